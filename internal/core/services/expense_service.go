package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/google/uuid"
)

var (
	ErrExpenseNotDraft    = errors.New("expense is not a draft")
	ErrExpenseNotApproved = errors.New("expense is not approved")
	ErrExpenseFinalized   = errors.New("expense can no longer be cancelled")
	ErrAmountNotPositive  = errors.New("expense amount must be greater than zero")
	ErrFutureExpenseDate  = errors.New("expense date cannot be in the future")
	ErrInvalidCategory    = errors.New("unknown expense category")
	ErrReceiptRequired    = errors.New("company policy requires a receipt")
)

// Audit actions written by the expense lifecycle, outside the engine.
const (
	auditExpenseSubmitted = "expense_submitted"
	auditExpenseCancelled = "expense_cancelled"
	auditExpensePaid      = "expense_paid"
)

// expenseService orchestrates the expense lifecycle around the approval
// engine: it loads the aggregate and company config, hands both to the
// engine, persists the result and fans out notifications. Decisions are
// serialized per expense through a row-lock transaction.
type expenseService struct {
	BaseService
	expenseRepo     portsrepo.ExpenseRepositoryWithTx
	userSvc         portssvc.UserSvcFacade
	companySvc      portssvc.CompanyReaderSvc
	exchangeRateSvc portssvc.ExchangeRateSvcFacade
	notificationSvc portssvc.NotificationSvcFacade
	engine          portssvc.ApprovalEngineSvc
}

// NewExpenseService creates a new expense service with the provided dependencies.
func NewExpenseService(
	expenseRepo portsrepo.ExpenseRepositoryWithTx,
	userSvc portssvc.UserSvcFacade,
	companySvc portssvc.CompanyReaderSvc,
	exchangeRateSvc portssvc.ExchangeRateSvcFacade,
	notificationSvc portssvc.NotificationSvcFacade,
	engine portssvc.ApprovalEngineSvc,
) portssvc.ExpenseSvcFacade {
	return &expenseService{
		expenseRepo:     expenseRepo,
		userSvc:         userSvc,
		companySvc:      companySvc,
		exchangeRateSvc: exchangeRateSvc,
		notificationSvc: notificationSvc,
		engine:          engine,
	}
}

var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

// CreateExpense validates the request, converts the amount into the
// company currency and, unless the expense is saved as a draft, runs the
// approval engine's initialization before persisting.
func (s *expenseService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error) {
	if err := validateExpenseInput(req.Amount.IsPositive(), req.Category, req.ExpenseDate); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	user, err := s.userSvc.GetUserByID(ctx, creatorUserID)
	if err != nil {
		return nil, err
	}
	company, err := s.companySvc.GetCompanyByID(ctx, user.CompanyID)
	if err != nil {
		return nil, err
	}

	convertedAmount, rate, err := s.exchangeRateSvc.Convert(ctx, req.Amount, req.Currency, company.Currency)
	if err != nil {
		s.LogError(ctx, err, "Failed to convert expense amount",
			slog.String("from", req.Currency), slog.String("to", company.Currency))
		return nil, fmt.Errorf("%w: no exchange rate from %s to %s", apperrors.ErrValidation, req.Currency, company.Currency)
	}

	now := time.Now()
	expense := domain.Expense{
		ExpenseID:       uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Amount:          req.Amount,
		Currency:        req.Currency,
		ConvertedAmount: convertedAmount,
		ExchangeRate:    rate,
		Category:        req.Category,
		ExpenseDate:     req.ExpenseDate,
		Status:          domain.ExpenseDraft,
		Receipt:         req.Receipt.ToReceiptInfo(),
		UserID:          user.UserID,
		CompanyID:       company.CompanyID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if !req.AsDraft {
		if company.Settings.RequireReceipt && expense.Receipt == nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrReceiptRequired)
		}
		expense.AppendAudit(auditExpenseSubmitted, creatorUserID, "", now)
		if err := s.engine.Initialize(ctx, &expense, company.Settings.ApprovalFlowConfig, s.userSvc); err != nil {
			return nil, err
		}
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		s.LogError(ctx, err, "Failed to save expense", slog.String("expense_id", expense.ExpenseID))
		return nil, err
	}

	s.notifyAfterInitialize(ctx, &expense)

	s.LogInfo(ctx, "Expense created",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("status", string(expense.Status)))
	return &expense, nil
}

// SubmitDraft moves a draft into the approval flow.
func (s *expenseService) SubmitDraft(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.UserID != requestingUserID {
		return nil, apperrors.ErrForbidden
	}
	if expense.Status != domain.ExpenseDraft {
		return nil, fmt.Errorf("%w: status is %s", ErrExpenseNotDraft, expense.Status)
	}

	company, err := s.companySvc.GetCompanyByID(ctx, expense.CompanyID)
	if err != nil {
		return nil, err
	}

	if company.Settings.RequireReceipt && expense.Receipt == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrReceiptRequired)
	}

	now := time.Now()
	expense.AppendAudit(auditExpenseSubmitted, requestingUserID, "", now)
	if err := s.engine.Initialize(ctx, expense, company.Settings.ApprovalFlowConfig, s.userSvc); err != nil {
		return nil, err
	}
	expense.LastUpdatedAt = now
	expense.LastUpdatedBy = requestingUserID

	if err := s.expenseRepo.UpdateExpense(ctx, *expense); err != nil {
		s.LogError(ctx, err, "Failed to update submitted draft", slog.String("expense_id", expenseID))
		return nil, err
	}

	s.notifyAfterInitialize(ctx, expense)
	return expense, nil
}

// SubmitDecision records one approver's decision inside a row-lock
// transaction. The lock is the serialization point the engine's contract
// requires: at most one in-flight decision per expense at a time.
func (s *expenseService) SubmitDecision(ctx context.Context, expenseID string, approverID string, req dto.DecisionRequest) (*domain.Expense, error) {
	decision := domain.DecisionApproved
	if req.Decision == "reject" {
		decision = domain.DecisionRejected
	}

	tx, err := s.expenseRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.expenseRepo.Rollback(ctx, tx)
	}()

	expense, err := s.expenseRepo.FindExpenseByIDForUpdate(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}

	company, err := s.companySvc.GetCompanyByID(ctx, expense.CompanyID)
	if err != nil {
		return nil, err
	}

	pendingBefore := pendingApproverSet(expense)

	if err := s.engine.RecordDecision(ctx, expense, company.Settings.ApprovalFlowConfig, s.userSvc, approverID, decision, req.Comment); err != nil {
		return nil, err
	}

	expense.LastUpdatedAt = time.Now()
	expense.LastUpdatedBy = approverID

	if err := s.expenseRepo.UpdateExpenseInTx(ctx, tx, *expense); err != nil {
		s.LogError(ctx, err, "Failed to persist decision", slog.String("expense_id", expenseID))
		return nil, err
	}
	if err := s.expenseRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	s.notifyAfterDecision(ctx, expense, pendingBefore)

	s.LogInfo(ctx, "Decision recorded",
		slog.String("expense_id", expenseID),
		slog.String("approver_id", approverID),
		slog.String("decision", string(decision)),
		slog.String("status", string(expense.Status)))
	return expense, nil
}

// GetExpenseByID retrieves an expense, restricted to the caller's company.
func (s *expenseService) GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	requester, err := s.userSvc.GetUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if requester.CompanyID != expense.CompanyID {
		return nil, apperrors.ErrNotFound
	}
	if requester.Role == domain.RoleEmployee && expense.UserID != requestingUserID {
		return nil, apperrors.ErrForbidden
	}
	return expense, nil
}

// ListExpenses retrieves the expenses visible to the requesting user.
// Employees only ever see their own; approver roles see the company's.
func (s *expenseService) ListExpenses(ctx context.Context, requestingUserID string, params dto.ListExpensesParams) ([]domain.Expense, error) {
	requester, err := s.userSvc.GetUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}

	filter := portsrepo.ExpenseListFilter{}
	if params.Status != "" {
		status := domain.ExpenseStatus(params.Status)
		filter.Status = &status
	}
	if params.Category != "" {
		category := domain.ExpenseCategory(params.Category)
		filter.Category = &category
	}
	if params.Mine || requester.Role == domain.RoleEmployee {
		filter.UserID = &requester.UserID
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	return s.expenseRepo.ListExpensesByCompany(ctx, requester.CompanyID, filter, limit, offset)
}

// ListPendingApprovals retrieves expenses with an open entry assigned to the caller.
func (s *expenseService) ListPendingApprovals(ctx context.Context, approverID string, limit, offset int) ([]domain.Expense, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.expenseRepo.ListPendingApprovalsForUser(ctx, approverID, limit, offset)
}

// CountPendingApprovals counts open entries assigned to the caller.
func (s *expenseService) CountPendingApprovals(ctx context.Context, approverID string) (int, error) {
	return s.expenseRepo.CountPendingApprovalsForUser(ctx, approverID)
}

// UpdateExpense edits a draft. Submitted expenses are immutable to their
// owner; the threshold decision is made once, at submission.
func (s *expenseService) UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, requestingUserID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.UserID != requestingUserID {
		return nil, apperrors.ErrForbidden
	}
	if expense.Status != domain.ExpenseDraft {
		return nil, fmt.Errorf("%w: status is %s", ErrExpenseNotDraft, expense.Status)
	}

	if req.Title != nil {
		expense.Title = *req.Title
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}
	if req.Category != nil {
		if !req.Category.IsValid() {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrInvalidCategory)
		}
		expense.Category = *req.Category
	}
	if req.ExpenseDate != nil {
		if req.ExpenseDate.After(time.Now()) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrFutureExpenseDate)
		}
		expense.ExpenseDate = *req.ExpenseDate
	}
	if req.Receipt != nil {
		expense.Receipt = req.Receipt.ToReceiptInfo()
	}

	amountChanged := false
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrAmountNotPositive)
		}
		expense.Amount = *req.Amount
		amountChanged = true
	}
	if req.Currency != nil {
		expense.Currency = *req.Currency
		amountChanged = true
	}

	if amountChanged {
		company, err := s.companySvc.GetCompanyByID(ctx, expense.CompanyID)
		if err != nil {
			return nil, err
		}
		convertedAmount, rate, err := s.exchangeRateSvc.Convert(ctx, expense.Amount, expense.Currency, company.Currency)
		if err != nil {
			return nil, fmt.Errorf("%w: no exchange rate from %s to %s", apperrors.ErrValidation, expense.Currency, company.Currency)
		}
		expense.ConvertedAmount = convertedAmount
		expense.ExchangeRate = rate
	}

	expense.LastUpdatedAt = time.Now()
	expense.LastUpdatedBy = requestingUserID

	if err := s.expenseRepo.UpdateExpense(ctx, *expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// CancelExpense cancels one of the caller's own expenses before it
// reaches a terminal approval state.
func (s *expenseService) CancelExpense(ctx context.Context, expenseID string, requestingUserID string) error {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return err
	}
	if expense.UserID != requestingUserID {
		return apperrors.ErrForbidden
	}
	if expense.Status != domain.ExpenseDraft && expense.Status != domain.ExpensePending {
		return fmt.Errorf("%w: status is %s", ErrExpenseFinalized, expense.Status)
	}

	now := time.Now()
	expense.Status = domain.ExpenseCancelled
	expense.AppendAudit(auditExpenseCancelled, requestingUserID, "", now)
	expense.LastUpdatedAt = now
	expense.LastUpdatedBy = requestingUserID

	return s.expenseRepo.UpdateExpense(ctx, *expense)
}

// MarkPaid transitions an approved expense to paid. Admin only.
func (s *expenseService) MarkPaid(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error) {
	requester, err := s.userSvc.GetUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if requester.Role != domain.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.CompanyID != requester.CompanyID {
		return nil, apperrors.ErrNotFound
	}
	if expense.Status != domain.ExpenseApproved {
		return nil, fmt.Errorf("%w: status is %s", ErrExpenseNotApproved, expense.Status)
	}

	now := time.Now()
	expense.Status = domain.ExpensePaid
	expense.AppendAudit(auditExpensePaid, requestingUserID, "", now)
	expense.LastUpdatedAt = now
	expense.LastUpdatedBy = requestingUserID

	if err := s.expenseRepo.UpdateExpense(ctx, *expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// GetApprovalProgress summarises how far an expense has moved through its flow.
func (s *expenseService) GetApprovalProgress(ctx context.Context, expenseID string, requestingUserID string) (*dto.ApprovalProgressResponse, error) {
	expense, err := s.GetExpenseByID(ctx, expenseID, requestingUserID)
	if err != nil {
		return nil, err
	}

	totalSteps := len(expense.ApprovalFlow)
	completed := 0
	var current []dto.PendingApproverResponse
	for _, entry := range expense.ApprovalFlow {
		switch entry.State {
		case domain.DecisionApproved, domain.DecisionRejected, domain.DecisionSkipped:
			completed++
		case domain.DecisionPending:
			current = append(current, dto.PendingApproverResponse{
				ApproverID: entry.ApproverID,
				Role:       string(entry.Role),
				DueDate:    entry.DueDate,
			})
		}
	}

	percentage := 0
	if totalSteps > 0 {
		percentage = int(math.Round(float64(completed) / float64(totalSteps) * 100))
	}

	return &dto.ApprovalProgressResponse{
		CurrentStep:      expense.CurrentStageIndex + 1,
		TotalSteps:       totalSteps,
		CompletedSteps:   completed,
		Percentage:       percentage,
		CurrentApprovers: current,
		Status:           string(expense.Status),
	}, nil
}

// notifyAfterInitialize fans out notifications after the engine's
// Initialize. Notification failures are logged, never propagated: the
// expense is already persisted.
func (s *expenseService) notifyAfterInitialize(ctx context.Context, expense *domain.Expense) {
	switch expense.Status {
	case domain.ExpensePending:
		approverIDs := make([]string, 0, len(expense.ApprovalFlow))
		for _, entry := range expense.PendingEntries() {
			approverIDs = append(approverIDs, entry.ApproverID)
		}
		if err := s.notificationSvc.NotifyApprovalRequired(ctx, expense, approverIDs); err != nil {
			s.LogError(ctx, err, "Failed to notify approvers", slog.String("expense_id", expense.ExpenseID))
		}
	case domain.ExpenseApproved:
		if err := s.notificationSvc.NotifyExpenseStatus(ctx, expense); err != nil {
			s.LogError(ctx, err, "Failed to notify submitter", slog.String("expense_id", expense.ExpenseID))
		}
	}
}

// notifyAfterDecision notifies newly added approvers after a stage
// advance, or the submitter once the flow closes.
func (s *expenseService) notifyAfterDecision(ctx context.Context, expense *domain.Expense, pendingBefore map[string]struct{}) {
	if expense.Status.IsTerminalForApproval() {
		if err := s.notificationSvc.NotifyExpenseStatus(ctx, expense); err != nil {
			s.LogError(ctx, err, "Failed to notify submitter", slog.String("expense_id", expense.ExpenseID))
		}
		return
	}

	var newApprovers []string
	for _, entry := range expense.PendingEntries() {
		if _, existed := pendingBefore[entry.ApproverID]; !existed {
			newApprovers = append(newApprovers, entry.ApproverID)
		}
	}
	if len(newApprovers) == 0 {
		return
	}
	if err := s.notificationSvc.NotifyApprovalRequired(ctx, expense, newApprovers); err != nil {
		s.LogError(ctx, err, "Failed to notify next-stage approvers", slog.String("expense_id", expense.ExpenseID))
	}
}

func pendingApproverSet(expense *domain.Expense) map[string]struct{} {
	set := make(map[string]struct{})
	for _, entry := range expense.PendingEntries() {
		set[entry.ApproverID] = struct{}{}
	}
	return set
}

func validateExpenseInput(amountPositive bool, category domain.ExpenseCategory, expenseDate time.Time) error {
	if !amountPositive {
		return ErrAmountNotPositive
	}
	if !category.IsValid() {
		return ErrInvalidCategory
	}
	if expenseDate.After(time.Now()) {
		return ErrFutureExpenseDate
	}
	return nil
}
