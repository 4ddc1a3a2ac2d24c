package dto

import (
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest defines the data needed to submit an expense.
type CreateExpenseRequest struct {
	Title       string                 `json:"title" binding:"required,min=1,max=200"`
	Description string                 `json:"description" binding:"max=1000"`
	Amount      decimal.Decimal        `json:"amount" binding:"required"`
	Currency    string                 `json:"currency" binding:"required,len=3,uppercase"`
	Category    domain.ExpenseCategory `json:"category" binding:"required"`
	ExpenseDate time.Time              `json:"expenseDate" binding:"required"`
	Receipt *ReceiptRequest `json:"receipt"`
	// AsDraft keeps the expense out of the approval flow until submitted.
	AsDraft bool `json:"asDraft"`
}

// ReceiptRequest references an already-uploaded receipt file.
type ReceiptRequest struct {
	URL          string `json:"url" binding:"required"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	FileSize     int64  `json:"fileSize"`
}

// ToReceiptInfo converts a ReceiptRequest to domain.ReceiptInfo.
func (r *ReceiptRequest) ToReceiptInfo() *domain.ReceiptInfo {
	if r == nil {
		return nil
	}
	return &domain.ReceiptInfo{
		URL:          r.URL,
		OriginalName: r.OriginalName,
		MimeType:     r.MimeType,
		FileSize:     r.FileSize,
	}
}

// UpdateExpenseRequest defines the fields of a draft that may be edited.
type UpdateExpenseRequest struct {
	Title       *string                 `json:"title"`
	Description *string                 `json:"description"`
	Amount      *decimal.Decimal        `json:"amount"`
	Currency    *string                 `json:"currency"`
	Category    *domain.ExpenseCategory `json:"category"`
	ExpenseDate *time.Time              `json:"expenseDate"`
	Receipt     *ReceiptRequest         `json:"receipt"`
}

// DecisionRequest carries one approver's decision.
type DecisionRequest struct {
	// Decision is "approve" or "reject".
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Comment  string `json:"comment" binding:"max=1000"`
}

// ListExpensesParams defines query parameters for listing expenses.
type ListExpensesParams struct {
	Status   string `form:"status"`
	Category string `form:"category"`
	// Mine restricts the listing to the caller's own expenses.
	Mine   bool `form:"mine"`
	Limit  int  `form:"limit,default=20"`
	Offset int  `form:"offset,default=0"`
}

// ApprovalEntryResponse is one approver's slot in the flow.
type ApprovalEntryResponse struct {
	ApproverID string     `json:"approverID"`
	Role       string     `json:"role"`
	State      string     `json:"state"`
	Comment    string     `json:"comment,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	DueDate    time.Time  `json:"dueDate"`
}

// AuditEntryResponse is one audit-log record.
type AuditEntryResponse struct {
	Action    string    `json:"action"`
	ActorID   string    `json:"actorID"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ExpenseResponse defines the expense data returned by the API.
type ExpenseResponse struct {
	ExpenseID         string                  `json:"expenseID"`
	Title             string                  `json:"title"`
	Description       string                  `json:"description,omitempty"`
	Amount            decimal.Decimal         `json:"amount"`
	Currency          string                  `json:"currency"`
	ConvertedAmount   decimal.Decimal         `json:"convertedAmount"`
	ExchangeRate      decimal.Decimal         `json:"exchangeRate"`
	Category          string                  `json:"category"`
	ExpenseDate       time.Time               `json:"expenseDate"`
	Status            string                  `json:"status"`
	Receipt           *domain.ReceiptInfo     `json:"receipt,omitempty"`
	UserID            string                  `json:"userID"`
	CompanyID         string                  `json:"companyID"`
	ApprovalFlow      []ApprovalEntryResponse `json:"approvalFlow"`
	CurrentStageIndex int                     `json:"currentStageIndex"`
	AuditLog          []AuditEntryResponse    `json:"auditLog"`
	CreatedAt         time.Time               `json:"createdAt"`
}

// ToExpenseResponse converts a domain.Expense to ExpenseResponse.
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	flow := make([]ApprovalEntryResponse, len(e.ApprovalFlow))
	for i, entry := range e.ApprovalFlow {
		flow[i] = ApprovalEntryResponse{
			ApproverID: entry.ApproverID,
			Role:       string(entry.Role),
			State:      string(entry.State),
			Comment:    entry.Comment,
			DecidedAt:  entry.DecidedAt,
			DueDate:    entry.DueDate,
		}
	}
	audit := make([]AuditEntryResponse, len(e.AuditLog))
	for i, entry := range e.AuditLog {
		audit[i] = AuditEntryResponse{
			Action:    entry.Action,
			ActorID:   entry.ActorID,
			Comment:   entry.Comment,
			Timestamp: entry.Timestamp,
		}
	}
	return ExpenseResponse{
		ExpenseID:         e.ExpenseID,
		Title:             e.Title,
		Description:       e.Description,
		Amount:            e.Amount,
		Currency:          e.Currency,
		ConvertedAmount:   e.ConvertedAmount,
		ExchangeRate:      e.ExchangeRate,
		Category:          string(e.Category),
		ExpenseDate:       e.ExpenseDate,
		Status:            string(e.Status),
		Receipt:           e.Receipt,
		UserID:            e.UserID,
		CompanyID:         e.CompanyID,
		ApprovalFlow:      flow,
		CurrentStageIndex: e.CurrentStageIndex,
		AuditLog:          audit,
		CreatedAt:         e.CreatedAt,
	}
}

// ListExpensesResponse wraps a page of expenses.
type ListExpensesResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// ToListExpensesResponse converts a slice of domain.Expense to a page response.
func ToListExpensesResponse(expenses []domain.Expense, limit, offset int) ListExpensesResponse {
	responses := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		responses[i] = ToExpenseResponse(&expenses[i])
	}
	return ListExpensesResponse{Expenses: responses, Limit: limit, Offset: offset}
}

// PendingApproverResponse identifies an approver the flow is waiting on.
type PendingApproverResponse struct {
	ApproverID string    `json:"approverID"`
	Role       string    `json:"role"`
	DueDate    time.Time `json:"dueDate"`
}

// ApprovalProgressResponse summarises how far an expense has moved
// through its approval flow.
type ApprovalProgressResponse struct {
	CurrentStep      int                       `json:"currentStep"`
	TotalSteps       int                       `json:"totalSteps"`
	CompletedSteps   int                       `json:"completedSteps"`
	Percentage       int                       `json:"percentage"`
	CurrentApprovers []PendingApproverResponse `json:"currentApprovers"`
	Status           string                    `json:"status"`
}
