package domain

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationApprovalRequired NotificationType = "APPROVAL_REQUIRED"
	NotificationExpenseApproved  NotificationType = "EXPENSE_APPROVED"
	NotificationExpenseRejected  NotificationType = "EXPENSE_REJECTED"
	NotificationReminder         NotificationType = "REMINDER"
	NotificationWelcome          NotificationType = "WELCOME"
)

// Notification is a persisted in-app notification. Delivery beyond the
// stored row (email, websocket push) is handled outside this module.
type Notification struct {
	NotificationID string           `json:"notificationID"` // Primary Key (UUID)
	UserID         string           `json:"userID"`         // recipient
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Body           string           `json:"body"`
	ExpenseID      *string          `json:"expenseID,omitempty"`
	Read           bool             `json:"read"`
	ReadAt         *time.Time       `json:"readAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}
