package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	Actor  string `gorm:"size:50;not null"` // username того, кто выполнил действие
	Action string `gorm:"type:text;not null"`
}
