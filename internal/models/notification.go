package models

import (
	"database/sql"
	"time"
)

// Notification is the database row for an in-app notification.
type Notification struct {
	NotificationID string         `db:"notification_id"`
	UserID         string         `db:"user_id"`
	Type           string         `db:"type"`
	Title          string         `db:"title"`
	Body           string         `db:"body"`
	ExpenseID      sql.NullString `db:"expense_id"`
	Read           bool           `db:"read"`
	ReadAt         sql.NullTime   `db:"read_at"`
	CreatedAt      time.Time      `db:"created_at"`
}
