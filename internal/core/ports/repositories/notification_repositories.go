package repositories

import (
	"context"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
)

// NotificationReader defines read operations for notification data
type NotificationReader interface {
	// ListNotificationsByUser retrieves a user's notifications, newest first.
	ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit int, offset int) ([]domain.Notification, error)

	// CountUnread counts a user's unread notifications.
	CountUnread(ctx context.Context, userID string) (int, error)
}

// NotificationWriter defines write operations for notification data
type NotificationWriter interface {
	// SaveNotifications persists a batch of notifications.
	SaveNotifications(ctx context.Context, notifications []domain.Notification) error

	// MarkRead marks one of the user's notifications as read.
	MarkRead(ctx context.Context, notificationID string, userID string, readAt time.Time) error

	// MarkAllRead marks every unread notification of the user as read.
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error)
}

// NotificationRepositoryFacade combines all notification repository interfaces
type NotificationRepositoryFacade interface {
	NotificationReader
	NotificationWriter
}
