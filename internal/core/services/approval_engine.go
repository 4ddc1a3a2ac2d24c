package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/middleware"
)

var (
	// ErrNoApproversConfigured means a stage role resolved to zero active
	// users. The engine never substitutes a fallback approver or skips
	// the stage; the company's flow configuration has to be fixed.
	ErrNoApproversConfigured = errors.New("no active approvers configured for stage role")

	// ErrAlreadyFinalized means a decision arrived for an expense whose
	// approval flow is already closed.
	ErrAlreadyFinalized = errors.New("expense approval flow already finalized")

	// ErrNotAnActiveApprover means the caller has no pending entry in the
	// expense's current stage.
	ErrNotAnActiveApprover = errors.New("approval not found or already processed")

	// ErrInvalidDecision means the decision was neither approve nor reject.
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
)

// approvalSLA is how long each approver gets before their entry is due.
const approvalSLA = 7 * 24 * time.Hour

// Audit log actions written by the engine.
const (
	AuditApprovedByApprover = "approved_by_approver"
	AuditRejectedByApprover = "rejected_by_approver"
	AuditExpenseApproved    = "expense_approved"
	AuditExpenseRejected    = "expense_rejected"
	AuditMovedToNextStage   = "moved_to_next_approval_stage"
)

const autoApproveComment = "Auto-approved (below threshold)"

// approvalEngine is the approval-flow state machine. It holds no state of
// its own: every call works entirely on the expense aggregate it is
// handed, which makes it safe to share across goroutines as long as no
// two calls touch the same aggregate at once.
type approvalEngine struct{}

// NewApprovalEngine creates the approval-flow engine.
func NewApprovalEngine() portssvc.ApprovalEngineSvc {
	return &approvalEngine{}
}

var _ portssvc.ApprovalEngineSvc = (*approvalEngine)(nil)

// Initialize computes the initial approval state of a freshly submitted
// expense. Amounts at or below the auto-approve threshold short-circuit
// human review entirely, but still get a fully populated flow (every
// configured stage resolved and marked approved) so reporting sees a
// complete history. Everything is resolved before the aggregate is
// touched: on error the expense comes back unmodified.
func (e *approvalEngine) Initialize(ctx context.Context, expense *domain.Expense, cfg domain.ApprovalFlowConfig, directory portssvc.ApproverDirectory) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid approval flow config: %w", err)
	}

	now := time.Now()

	if expense.ConvertedAmount.LessThanOrEqual(cfg.AutoApproveThreshold) {
		flow, err := e.buildFullApprovedFlow(ctx, expense.CompanyID, cfg, directory, now)
		if err != nil {
			return err
		}

		expense.ApprovalFlow = flow
		expense.CurrentStageIndex = 0
		expense.Status = domain.ExpenseApproved
		expense.AppendAudit(AuditExpenseApproved, expense.UserID, autoApproveComment, now)

		logger.Info("Expense auto-approved",
			slog.String("expense_id", expense.ExpenseID),
			slog.String("converted_amount", expense.ConvertedAmount.String()),
			slog.String("threshold", cfg.AutoApproveThreshold.String()))
		return nil
	}

	roster, err := e.resolveStageRoster(ctx, expense.CompanyID, cfg.StageRoles[0], directory, now)
	if err != nil {
		return err
	}

	expense.ApprovalFlow = roster
	expense.CurrentStageIndex = 0
	expense.Status = domain.ExpensePending

	logger.Info("Approval flow initialized",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("stage_role", string(cfg.StageRoles[0])),
		slog.Int("approver_count", len(roster)))
	return nil
}

// RecordDecision applies one approver's decision and evaluates the
// current stage's consensus. Decision rule, in order: any rejection
// closes the whole flow; reaching the consensus threshold advances to the
// next stage (or fully approves when none remains); a fully decided stage
// that still falls short is rejected defensively; otherwise the stage
// stays open. All directory lookups happen before any mutation so a
// failed advancement leaves the aggregate untouched.
func (e *approvalEngine) RecordDecision(ctx context.Context, expense *domain.Expense, cfg domain.ApprovalFlowConfig, directory portssvc.ApproverDirectory, approverID string, decision domain.DecisionState, comment string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if decision != domain.DecisionApproved && decision != domain.DecisionRejected {
		return ErrInvalidDecision
	}
	if expense.Status != domain.ExpensePending {
		return ErrAlreadyFinalized
	}

	entryIdx := expense.PendingEntryIndex(approverID)
	if entryIdx < 0 {
		return ErrNotAnActiveApprover
	}

	// The entry's role identifies the stage; its roster was fixed when
	// the stage was built and is never re-resolved, so membership stays
	// stable even if the directory changes mid-stage.
	stageRole := expense.ApprovalFlow[entryIdx].Role

	counts := expense.CountStage(stageRole)
	counts.Pending--
	switch decision {
	case domain.DecisionApproved:
		counts.Approved++
	case domain.DecisionRejected:
		counts.Rejected++
	}

	required := cfg.RequiredApprovals(counts.Total)
	logger.Debug("Stage consensus evaluated",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("stage_role", string(stageRole)),
		slog.Int("approved", counts.Approved),
		slog.Int("required", required),
		slog.Int("rejected", counts.Rejected),
		slog.Int("pending", counts.Pending))

	// Resolve the next stage before mutating anything, so an empty next
	// roster surfaces as an error with the aggregate unmodified.
	var nextRoster []domain.ApprovalStageEntry
	advancing := false
	fullyApproved := false
	now := time.Now()

	if counts.Rejected == 0 && counts.Approved >= required {
		nextIdx := expense.CurrentStageIndex + 1
		if nextIdx < len(cfg.StageRoles) {
			roster, err := e.resolveStageRoster(ctx, expense.CompanyID, cfg.StageRoles[nextIdx], directory, now)
			if err != nil {
				return err
			}
			nextRoster = roster
			advancing = true
		} else {
			fullyApproved = true
		}
	}

	// Step 1: record the raw decision on the approver's entry.
	entry := &expense.ApprovalFlow[entryIdx]
	entry.State = decision
	entry.Comment = comment
	decidedAt := now
	entry.DecidedAt = &decidedAt

	auditAction := AuditApprovedByApprover
	if decision == domain.DecisionRejected {
		auditAction = AuditRejectedByApprover
	}
	expense.AppendAudit(auditAction, approverID, comment, now)

	// Step 2: transition the aggregate.
	switch {
	case counts.Rejected > 0:
		// A single rejection is terminal. Untouched peer entries stay
		// pending so the record shows who never got to act.
		expense.Status = domain.ExpenseRejected
		expense.AppendAudit(AuditExpenseRejected, approverID,
			fmt.Sprintf("Expense rejected by %s stage (%d rejection(s))", stageRole, counts.Rejected), now)
		logger.Info("Expense rejected",
			slog.String("expense_id", expense.ExpenseID),
			slog.String("stage_role", string(stageRole)))

	case advancing:
		expense.ApprovalFlow = append(expense.ApprovalFlow, nextRoster...)
		expense.CurrentStageIndex++
		nextRole := cfg.StageRoles[expense.CurrentStageIndex]
		expense.AppendAudit(AuditMovedToNextStage, approverID,
			fmt.Sprintf("Approval moved to %s stage", nextRole), now)
		logger.Info("Expense moved to next approval stage",
			slog.String("expense_id", expense.ExpenseID),
			slog.String("next_role", string(nextRole)),
			slog.Int("approver_count", len(nextRoster)))

	case fullyApproved:
		expense.Status = domain.ExpenseApproved
		expense.AppendAudit(AuditExpenseApproved, approverID, "Expense fully approved", now)
		logger.Info("Expense fully approved", slog.String("expense_id", expense.ExpenseID))

	case counts.Pending == 0:
		// Every roster member decided, nobody rejected, yet approvals
		// fell short of the threshold. Unreachable under the rules above
		// except for rounding edges; reject rather than strand the flow.
		expense.Status = domain.ExpenseRejected
		expense.AppendAudit(AuditExpenseRejected, approverID,
			"Expense rejected (insufficient approvals for stage)", now)
		logger.Warn("Expense rejected on exhausted stage",
			slog.String("expense_id", expense.ExpenseID),
			slog.String("stage_role", string(stageRole)))

	default:
		// Stage stays open; nothing beyond the recorded decision changes.
	}

	return nil
}

// resolveStageRoster builds the pending entries for one stage, one per
// active approver holding the role.
func (e *approvalEngine) resolveStageRoster(ctx context.Context, companyID string, role domain.Role, directory portssvc.ApproverDirectory, now time.Time) ([]domain.ApprovalStageEntry, error) {
	approvers, err := directory.ResolveApprovers(ctx, companyID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve approvers for role %s: %w", role, err)
	}
	if len(approvers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoApproversConfigured, role)
	}

	entries := make([]domain.ApprovalStageEntry, len(approvers))
	for i, approver := range approvers {
		entries[i] = domain.ApprovalStageEntry{
			ApproverID: approver.UserID,
			Role:       role,
			State:      domain.DecisionPending,
			DueDate:    now.Add(approvalSLA),
		}
	}
	return entries, nil
}

// buildFullApprovedFlow resolves every configured stage and marks all
// entries approved. Used only on the auto-approval path.
func (e *approvalEngine) buildFullApprovedFlow(ctx context.Context, companyID string, cfg domain.ApprovalFlowConfig, directory portssvc.ApproverDirectory, now time.Time) ([]domain.ApprovalStageEntry, error) {
	var flow []domain.ApprovalStageEntry
	for _, role := range cfg.StageRoles {
		roster, err := e.resolveStageRoster(ctx, companyID, role, directory, now)
		if err != nil {
			return nil, err
		}
		for i := range roster {
			roster[i].State = domain.DecisionApproved
			roster[i].Comment = autoApproveComment
			decidedAt := now
			roster[i].DecidedAt = &decidedAt
		}
		flow = append(flow, roster...)
	}
	return flow, nil
}
