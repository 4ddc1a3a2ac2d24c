package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	"github.com/expenseflow/expense_mgmt_app/internal/models"
	"github.com/expenseflow/expense_mgmt_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxNotificationRepository struct {
	db *pgxpool.Pool
}

func newPgxNotificationRepository(db *pgxpool.Pool) portsrepo.NotificationRepositoryFacade {
	return &PgxNotificationRepository{db: db}
}

var _ portsrepo.NotificationRepositoryFacade = (*PgxNotificationRepository)(nil)

func (r *PgxNotificationRepository) SaveNotifications(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO notifications (notification_id, user_id, type, title, body, expense_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, n := range notifications {
		m := mapping.ToModelNotification(n)
		batch.Queue(query, m.NotificationID, m.UserID, m.Type, m.Title, m.Body, m.ExpenseID, m.Read, m.CreatedAt)
	}
	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for range notifications {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save notifications: %w", err)
		}
	}
	return nil
}

func (r *PgxNotificationRepository) ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit int, offset int) ([]domain.Notification, error) {
	query := `
		SELECT notification_id, user_id, type, title, body, expense_id, read, read_at, created_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	modelNotifications := []models.Notification{}
	for rows.Next() {
		var m models.Notification
		if err := rows.Scan(&m.NotificationID, &m.UserID, &m.Type, &m.Title, &m.Body, &m.ExpenseID, &m.Read, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		modelNotifications = append(modelNotifications, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", rows.Err())
	}
	return mapping.ToDomainNotificationSlice(modelNotifications), nil
}

func (r *PgxNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE;`
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *PgxNotificationRepository) MarkRead(ctx context.Context, notificationID string, userID string, readAt time.Time) error {
	query := `
		UPDATE notifications
		SET read = TRUE, read_at = $1
		WHERE notification_id = $2 AND user_id = $3 AND read = FALSE;
	`
	cmdTag, err := r.db.Exec(ctx, query, readAt, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", notificationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxNotificationRepository) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error) {
	query := `
		UPDATE notifications
		SET read = TRUE, read_at = $1
		WHERE user_id = $2 AND read = FALSE;
	`
	cmdTag, err := r.db.Exec(ctx, query, readAt, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}
