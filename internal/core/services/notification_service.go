package services

import (
	"context"
	"fmt"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/google/uuid"
)

// notificationService records in-app notifications. Delivery channels
// beyond the stored rows are out of scope.
type notificationService struct {
	BaseService
	notificationRepo portsrepo.NotificationRepositoryFacade
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notificationRepo portsrepo.NotificationRepositoryFacade) portssvc.NotificationSvcFacade {
	return &notificationService{notificationRepo: notificationRepo}
}

var _ portssvc.NotificationSvcFacade = (*notificationService)(nil)

// NotifyApprovalRequired records one notification per pending approver.
func (s *notificationService) NotifyApprovalRequired(ctx context.Context, expense *domain.Expense, approverIDs []string) error {
	if len(approverIDs) == 0 {
		return nil
	}
	now := time.Now()
	notifications := make([]domain.Notification, 0, len(approverIDs))
	for _, approverID := range approverIDs {
		notifications = append(notifications, s.newNotification(
			approverID,
			domain.NotificationApprovalRequired,
			"Approval required",
			fmt.Sprintf("Expense %q (%s %s) is awaiting your approval.", expense.Title, expense.Amount.StringFixed(2), expense.Currency),
			&expense.ExpenseID,
			now,
		))
	}
	return s.notificationRepo.SaveNotifications(ctx, notifications)
}

// NotifyExpenseStatus tells the submitter their expense was approved or rejected.
func (s *notificationService) NotifyExpenseStatus(ctx context.Context, expense *domain.Expense) error {
	var notificationType domain.NotificationType
	var title, body string
	switch expense.Status {
	case domain.ExpenseApproved:
		notificationType = domain.NotificationExpenseApproved
		title = "Expense approved"
		body = fmt.Sprintf("Your expense %q (%s %s) has been approved.", expense.Title, expense.Amount.StringFixed(2), expense.Currency)
	case domain.ExpenseRejected:
		notificationType = domain.NotificationExpenseRejected
		title = "Expense rejected"
		body = fmt.Sprintf("Your expense %q (%s %s) has been rejected.", expense.Title, expense.Amount.StringFixed(2), expense.Currency)
	default:
		return nil
	}

	notification := s.newNotification(expense.UserID, notificationType, title, body, &expense.ExpenseID, time.Now())
	return s.notificationRepo.SaveNotifications(ctx, []domain.Notification{notification})
}

// NotifyReminder records a reminder for an approver sitting on an expense.
func (s *notificationService) NotifyReminder(ctx context.Context, expense *domain.Expense, approverID string, daysPending int) error {
	body := fmt.Sprintf("Expense %q has been awaiting your approval for %d day(s).", expense.Title, daysPending)
	notification := s.newNotification(approverID, domain.NotificationReminder, "Approval reminder", body, &expense.ExpenseID, time.Now())
	return s.notificationRepo.SaveNotifications(ctx, []domain.Notification{notification})
}

// NotifyWelcome greets a freshly registered user.
func (s *notificationService) NotifyWelcome(ctx context.Context, userID string, companyName string) error {
	body := fmt.Sprintf("Welcome to %s. Submit your first expense to get started.", companyName)
	notification := s.newNotification(userID, domain.NotificationWelcome, "Welcome", body, nil, time.Now())
	return s.notificationRepo.SaveNotifications(ctx, []domain.Notification{notification})
}

// ListNotifications retrieves a user's notifications, newest first.
func (s *notificationService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListNotificationsByUser(ctx, userID, unreadOnly, limit, offset)
}

// CountUnread counts the user's unread notifications.
func (s *notificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one notification read.
func (s *notificationService) MarkRead(ctx context.Context, notificationID string, userID string) error {
	return s.notificationRepo.MarkRead(ctx, notificationID, userID, time.Now())
}

// MarkAllRead marks all of the user's notifications read, returning the count.
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID, time.Now())
}

func (s *notificationService) newNotification(userID string, notificationType domain.NotificationType, title, body string, expenseID *string, at time.Time) domain.Notification {
	return domain.Notification{
		NotificationID: uuid.NewString(),
		UserID:         userID,
		Type:           notificationType,
		Title:          title,
		Body:           body,
		ExpenseID:      expenseID,
		Read:           false,
		CreatedAt:      at,
	}
}
