package activity

import (
	"context"

	"gorm.io/gorm"

	"tms-portal/internal/models"
)

// DBLog stores entries in the audit_logs table.
type DBLog struct {
	db *gorm.DB
}

func NewDBLog(db *gorm.DB) *DBLog {
	return &DBLog{db: db}
}

func (l *DBLog) Record(ctx context.Context, actor, action string) error {
	record := models.AuditLog{
		Actor:  actor,
		Action: action,
	}
	return l.db.WithContext(ctx).Create(&record).Error
}

func (l *DBLog) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = RecentLimit
	}

	var logs []models.AuditLog
	if err := l.db.WithContext(ctx).
		Order("created_at desc").
		Limit(n).
		Find(&logs).Error; err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(logs))
	for _, lg := range logs {
		out = append(out, Entry{Time: lg.CreatedAt, Actor: lg.Actor, Action: lg.Action})
	}
	return out, nil
}
