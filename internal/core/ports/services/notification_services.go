package services

import (
	"context"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
)

// NotificationSvcFacade persists and serves in-app notifications. Actual
// delivery channels (email, push) live outside this module; callers read
// the stored rows.
type NotificationSvcFacade interface {
	// NotifyApprovalRequired records one notification per pending approver.
	NotifyApprovalRequired(ctx context.Context, expense *domain.Expense, approverIDs []string) error

	// NotifyExpenseStatus tells the submitter their expense was approved or rejected.
	NotifyExpenseStatus(ctx context.Context, expense *domain.Expense) error

	// NotifyReminder records a reminder for an approver sitting on an expense.
	NotifyReminder(ctx context.Context, expense *domain.Expense, approverID string, daysPending int) error

	// NotifyWelcome greets a freshly registered user.
	NotifyWelcome(ctx context.Context, userID string, companyName string) error

	// ListNotifications retrieves a user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)

	// CountUnread counts the user's unread notifications.
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead marks one notification read.
	MarkRead(ctx context.Context, notificationID string, userID string) error

	// MarkAllRead marks all of the user's notifications read, returning the count.
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// ReminderSvcFacade scans pending approval entries past their company's
// reminder schedule and records reminder notifications.
type ReminderSvcFacade interface {
	// SendDueReminders runs one scan across all companies and returns how
	// many reminders were recorded.
	SendDueReminders(ctx context.Context) (int, error)
}
