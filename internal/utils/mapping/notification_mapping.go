package mapping

import (
	"database/sql"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/expenseflow/expense_mgmt_app/internal/models"
)

// ToModelNotification converts a domain Notification to a model Notification
func ToModelNotification(d domain.Notification) models.Notification {
	m := models.Notification{
		NotificationID: d.NotificationID,
		UserID:         d.UserID,
		Type:           string(d.Type),
		Title:          d.Title,
		Body:           d.Body,
		Read:           d.Read,
		CreatedAt:      d.CreatedAt,
	}
	if d.ExpenseID != nil {
		m.ExpenseID = sql.NullString{String: *d.ExpenseID, Valid: true}
	}
	if d.ReadAt != nil {
		m.ReadAt = sql.NullTime{Time: *d.ReadAt, Valid: true}
	}
	return m
}

// ToDomainNotification converts a model Notification to a domain Notification
func ToDomainNotification(m models.Notification) domain.Notification {
	d := domain.Notification{
		NotificationID: m.NotificationID,
		UserID:         m.UserID,
		Type:           domain.NotificationType(m.Type),
		Title:          m.Title,
		Body:           m.Body,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
	if m.ExpenseID.Valid {
		expenseID := m.ExpenseID.String
		d.ExpenseID = &expenseID
	}
	if m.ReadAt.Valid {
		readAt := m.ReadAt.Time
		d.ReadAt = &readAt
	}
	return d
}

// ToDomainNotificationSlice converts a slice of model Notifications to domain Notifications
func ToDomainNotificationSlice(ms []models.Notification) []domain.Notification {
	ds := make([]domain.Notification, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainNotification(m)
	}
	return ds
}
