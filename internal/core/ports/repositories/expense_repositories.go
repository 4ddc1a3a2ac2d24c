package repositories

import (
	"context"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ExpenseListFilter narrows expense listings.
type ExpenseListFilter struct {
	Status   *domain.ExpenseStatus
	Category *domain.ExpenseCategory
	UserID   *string
}

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves an expense with its full approval flow and audit log.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpensesByCompany retrieves a filtered, paginated list of a company's expenses.
	ListExpensesByCompany(ctx context.Context, companyID string, filter ExpenseListFilter, limit int, offset int) ([]domain.Expense, error)

	// ListPendingApprovalsForUser retrieves pending expenses that have an
	// open flow entry assigned to the given approver.
	ListPendingApprovalsForUser(ctx context.Context, approverID string, limit int, offset int) ([]domain.Expense, error)

	// CountPendingApprovalsForUser counts open flow entries assigned to the approver.
	CountPendingApprovalsForUser(ctx context.Context, approverID string) (int, error)

	// ListOverduePendingExpenses retrieves pending expenses of a company
	// created before the cutoff. Backs the reminder scan.
	ListOverduePendingExpenses(ctx context.Context, companyID string, cutoff time.Time) ([]domain.Expense, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	// SaveExpense persists a new expense with its initial approval state.
	SaveExpense(ctx context.Context, expense domain.Expense) error

	// UpdateExpense persists the expense's mutable fields, approval flow and audit log.
	UpdateExpense(ctx context.Context, expense domain.Expense) error

	// FindExpenseByIDForUpdate loads an expense inside tx, taking a row
	// lock. This is the serialization point for concurrent decisions on
	// the same expense.
	FindExpenseByIDForUpdate(ctx context.Context, tx pgx.Tx, expenseID string) (*domain.Expense, error)

	// UpdateExpenseInTx persists approval state within tx.
	UpdateExpenseInTx(ctx context.Context, tx pgx.Tx, expense domain.Expense) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
}

// ExpenseRepositoryWithTx couples the expense repository with transaction management
type ExpenseRepositoryWithTx interface {
	ExpenseRepositoryFacade
	TransactionManager
}
