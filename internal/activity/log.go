// Package activity records administrative actions (deleted files, added
// users and so on) and lists the most recent ones for the admin panel.
package activity

import (
	"context"
	"time"
)

// RecentLimit is how many entries the admin panel shows.
const RecentLimit = 100

const timeLayout = "2006-01-02 15:04:05"

type Entry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor,omitempty"`
	Action string    `json:"action"`
}

type Log interface {
	Record(ctx context.Context, actor, action string) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
}
