package services

import (
	"context"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
)

// ApproverDirectory resolves who can decide a given stage. The flow engine
// depends on this interface only; it never touches user storage directly.
// Implementations must return only currently active users.
type ApproverDirectory interface {
	// ResolveApprovers returns the active users holding role in the company.
	ResolveApprovers(ctx context.Context, companyID string, role domain.Role) ([]domain.User, error)
}

// ApprovalEngineSvc is the approval-flow state machine. Both operations
// mutate the expense aggregate in place; on error the aggregate is left
// untouched. The engine performs no I/O beyond directory lookups and keeps
// no state between calls, so it is safe to use concurrently for distinct
// expenses. Callers must serialize decisions on a single expense (the
// expense service does this with a row-lock transaction).
type ApprovalEngineSvc interface {
	// Initialize computes the initial approval state for a newly submitted
	// expense: either auto-approves it outright or builds the first
	// stage's roster and marks the expense pending.
	Initialize(ctx context.Context, expense *domain.Expense, cfg domain.ApprovalFlowConfig, directory ApproverDirectory) error

	// RecordDecision applies one approver's decision and transitions the
	// expense: stays pending, rejects terminally, advances to the next
	// stage, or fully approves.
	RecordDecision(ctx context.Context, expense *domain.Expense, cfg domain.ApprovalFlowConfig, directory ApproverDirectory, approverID string, decision domain.DecisionState, comment string) error
}
