package services

import (
	"context"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
)

// ExpenseReaderSvc defines read operations for expense data
type ExpenseReaderSvc interface {
	// GetExpenseByID retrieves an expense, enforcing company visibility.
	GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error)

	// ListExpenses retrieves a filtered, paginated list of expenses
	// visible to the requesting user.
	ListExpenses(ctx context.Context, requestingUserID string, params dto.ListExpensesParams) ([]domain.Expense, error)

	// ListPendingApprovals retrieves expenses awaiting the caller's decision.
	ListPendingApprovals(ctx context.Context, approverID string, limit, offset int) ([]domain.Expense, error)

	// CountPendingApprovals counts expenses awaiting the caller's decision.
	CountPendingApprovals(ctx context.Context, approverID string) (int, error)

	// GetApprovalProgress summarises how far an expense has moved through its flow.
	GetApprovalProgress(ctx context.Context, expenseID string, requestingUserID string) (*dto.ApprovalProgressResponse, error)
}

// ExpenseWriterSvc defines write operations for expense data
type ExpenseWriterSvc interface {
	// CreateExpense validates, converts the amount to the company
	// currency, runs the approval engine's initialization, persists the
	// expense and fans out notifications.
	CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error)

	// UpdateExpense updates a draft expense's editable fields.
	UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, requestingUserID string) (*domain.Expense, error)

	// SubmitDraft moves a draft into the approval flow.
	SubmitDraft(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error)

	// CancelExpense cancels one of the caller's own non-terminal expenses.
	CancelExpense(ctx context.Context, expenseID string, requestingUserID string) error

	// MarkPaid transitions an approved expense to paid (admin only).
	MarkPaid(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error)
}

// ExpenseDeciderSvc applies approver decisions.
type ExpenseDeciderSvc interface {
	// SubmitDecision records one approver's approve/reject inside a
	// row-lock transaction, runs the approval engine and persists the
	// resulting state.
	SubmitDecision(ctx context.Context, expenseID string, approverID string, req dto.DecisionRequest) (*domain.Expense, error)
}

// ExpenseSvcFacade combines all expense-related service interfaces
type ExpenseSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
	ExpenseDeciderSvc
}
