package pgsql

import (
	"context"
	"errors"
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

const expenseColumns = `
	expense_id, title, description, amount, currency, converted_amount,
	exchange_rate, category, expense_date, status, receipt, user_id,
	company_id, approval_flow, current_stage_index, audit_log,
	pending_approver_ids, created_at, created_by, last_updated_at, last_updated_by`

// PgxExpenseRepository persists the expense aggregate. The approval flow
// and audit log travel as JSONB documents so the aggregate is written and
// read atomically in one row.
type PgxExpenseRepository struct {
	BaseRepository
}

func newPgxExpenseRepository(db *pgxpool.Pool) portsrepo.ExpenseRepositoryWithTx {
	return &PgxExpenseRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.ExpenseRepositoryWithTx = (*PgxExpenseRepository)(nil)

func scanExpense(row pgx.Row) (models.Expense, error) {
	var m models.Expense
	err := row.Scan(
		&m.ExpenseID,
		&m.Title,
		&m.Description,
		&m.Amount,
		&m.Currency,
		&m.ConvertedAmount,
		&m.ExchangeRate,
		&m.Category,
		&m.ExpenseDate,
		&m.Status,
		&m.Receipt,
		&m.UserID,
		&m.CompanyID,
		&m.ApprovalFlow,
		&m.CurrentStageIndex,
		&m.AuditLog,
		&m.PendingApproverIDs,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func collectExpenses(rows pgx.Rows) ([]domain.Expense, error) {
	defer rows.Close()
	modelExpenses := []models.Expense{}
	for rows.Next() {
		m, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		modelExpenses = append(modelExpenses, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", rows.Err())
	}
	return mapping.ToDomainExpenseSlice(modelExpenses)
}

func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	m, err := mapping.ToModelExpense(expense)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO expenses (
			expense_id, title, description, amount, currency, converted_amount,
			exchange_rate, category, expense_date, status, receipt, user_id,
			company_id, approval_flow, current_stage_index, audit_log,
			pending_approver_ids, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.ExpenseID, m.Title, m.Description, m.Amount, m.Currency, m.ConvertedAmount,
		m.ExchangeRate, m.Category, m.ExpenseDate, m.Status, m.Receipt, m.UserID,
		m.CompanyID, m.ApprovalFlow, m.CurrentStageIndex, m.AuditLog,
		m.PendingApproverIDs, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = $1;`
	m, err := scanExpense(r.Pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID %s: %w", expenseID, err)
	}
	expense, err := mapping.ToDomainExpense(m)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// FindExpenseByIDForUpdate loads the expense inside tx with a row lock.
// Concurrent decisions on the same expense queue on this lock.
func (r *PgxExpenseRepository) FindExpenseByIDForUpdate(ctx context.Context, tx pgx.Tx, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = $1 FOR UPDATE;`
	m, err := scanExpense(tx.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock expense %s: %w", expenseID, err)
	}
	expense, err := mapping.ToDomainExpense(m)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

const updateExpenseQuery = `
	UPDATE expenses
	SET title = $1, description = $2, amount = $3, currency = $4,
		converted_amount = $5, exchange_rate = $6, category = $7,
		expense_date = $8, status = $9, receipt = $10, approval_flow = $11,
		current_stage_index = $12, audit_log = $13, pending_approver_ids = $14,
		last_updated_at = $15, last_updated_by = $16
	WHERE expense_id = $17;
`

func (r *PgxExpenseRepository) UpdateExpense(ctx context.Context, expense domain.Expense) error {
	m, err := mapping.ToModelExpense(expense)
	if err != nil {
		return err
	}
	cmdTag, err := r.Pool.Exec(ctx, updateExpenseQuery,
		m.Title, m.Description, m.Amount, m.Currency,
		m.ConvertedAmount, m.ExchangeRate, m.Category,
		m.ExpenseDate, m.Status, m.Receipt, m.ApprovalFlow,
		m.CurrentStageIndex, m.AuditLog, m.PendingApproverIDs,
		m.LastUpdatedAt, m.LastUpdatedBy,
		m.ExpenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense %s: %w", expense.ExpenseID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxExpenseRepository) UpdateExpenseInTx(ctx context.Context, tx pgx.Tx, expense domain.Expense) error {
	m, err := mapping.ToModelExpense(expense)
	if err != nil {
		return err
	}
	cmdTag, err := tx.Exec(ctx, updateExpenseQuery,
		m.Title, m.Description, m.Amount, m.Currency,
		m.ConvertedAmount, m.ExchangeRate, m.Category,
		m.ExpenseDate, m.Status, m.Receipt, m.ApprovalFlow,
		m.CurrentStageIndex, m.AuditLog, m.PendingApproverIDs,
		m.LastUpdatedAt, m.LastUpdatedBy,
		m.ExpenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense %s in tx: %w", expense.ExpenseID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxExpenseRepository) ListExpensesByCompany(ctx context.Context, companyID string, filter portsrepo.ExpenseListFilter, limit int, offset int) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE company_id = $1`
	args := []any{companyID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Category != nil {
		args = append(args, string(*filter.Category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query company expenses: %w", err)
	}
	return collectExpenses(rows)
}

func (r *PgxExpenseRepository) ListPendingApprovalsForUser(ctx context.Context, approverID string, limit int, offset int) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE status = 'PENDING' AND $1 = ANY(pending_approver_ids)
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3;`
	rows, err := r.Pool.Query(ctx, query, approverID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending approvals: %w", err)
	}
	return collectExpenses(rows)
}

func (r *PgxExpenseRepository) CountPendingApprovalsForUser(ctx context.Context, approverID string) (int, error) {
	query := `SELECT COUNT(*) FROM expenses
		WHERE status = 'PENDING' AND $1 = ANY(pending_approver_ids);`
	var count int
	if err := r.Pool.QueryRow(ctx, query, approverID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending approvals: %w", err)
	}
	return count, nil
}

func (r *PgxExpenseRepository) ListOverduePendingExpenses(ctx context.Context, companyID string, cutoff time.Time) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE company_id = $1 AND status = 'PENDING' AND created_at < $2
		ORDER BY created_at ASC;`
	rows, err := r.Pool.Query(ctx, query, companyID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue pending expenses: %w", err)
	}
	return collectExpenses(rows)
}
