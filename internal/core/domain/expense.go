package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus indicates where an expense sits in its lifecycle. The
// approval engine only ever writes PENDING, APPROVED or REJECTED; the
// remaining statuses belong to the surrounding expense lifecycle.
type ExpenseStatus string

const (
	ExpenseDraft     ExpenseStatus = "DRAFT"
	ExpensePending   ExpenseStatus = "PENDING"
	ExpenseApproved  ExpenseStatus = "APPROVED"
	ExpenseRejected  ExpenseStatus = "REJECTED"
	ExpensePaid      ExpenseStatus = "PAID"
	ExpenseCancelled ExpenseStatus = "CANCELLED"
)

// IsTerminalForApproval reports whether the approval flow is closed: no
// further decisions are accepted once an expense is approved or rejected.
func (s ExpenseStatus) IsTerminalForApproval() bool {
	return s == ExpenseApproved || s == ExpenseRejected
}

// DecisionState is the state of a single approver's entry in the flow.
type DecisionState string

const (
	DecisionPending  DecisionState = "PENDING"
	DecisionApproved DecisionState = "APPROVED"
	DecisionRejected DecisionState = "REJECTED"
	DecisionSkipped  DecisionState = "SKIPPED"
)

// ExpenseCategory classifies what an expense was for.
type ExpenseCategory string

const (
	CategoryTravel        ExpenseCategory = "TRAVEL"
	CategoryMeals         ExpenseCategory = "MEALS"
	CategoryEntertainment ExpenseCategory = "ENTERTAINMENT"
	CategorySupplies      ExpenseCategory = "SUPPLIES"
	CategoryEquipment     ExpenseCategory = "EQUIPMENT"
	CategorySoftware      ExpenseCategory = "SOFTWARE"
	CategoryOther         ExpenseCategory = "OTHER"
)

// IsValid reports whether c is a known category.
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case CategoryTravel, CategoryMeals, CategoryEntertainment, CategorySupplies,
		CategoryEquipment, CategorySoftware, CategoryOther:
		return true
	}
	return false
}

// ApprovalStageEntry is one approver's slot in the flow. All entries
// sharing a role form one logical stage even though they are stored as a
// flat ordered list; entries for stage n are always appended before any
// entry for stage n+1.
type ApprovalStageEntry struct {
	ApproverID     string        `json:"approverID"`
	Role           Role          `json:"role"`
	State          DecisionState `json:"state"`
	Comment        string        `json:"comment,omitempty"`
	DecidedAt      *time.Time    `json:"decidedAt,omitempty"`
	DueDate        time.Time     `json:"dueDate"`
	ReminderSent   bool          `json:"reminderSent"`
	ReminderSentAt *time.Time    `json:"reminderSentAt,omitempty"`
}

// AuditLogEntry records one approval action or transition. The audit log
// is append-only; entries are never mutated or removed.
type AuditLogEntry struct {
	Action    string    `json:"action"`
	ActorID   string    `json:"actorID"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReceiptInfo carries the stored-receipt reference; upload and storage
// happen elsewhere.
type ReceiptInfo struct {
	URL          string `json:"url,omitempty"`
	OriginalName string `json:"originalName,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	FileSize     int64  `json:"fileSize,omitempty"`
}

// Expense is the aggregate whose approval state the flow engine reads and
// writes. Persistence is the caller's concern: the engine borrows the
// aggregate for one call and mutates it in place.
type Expense struct {
	ExpenseID   string          `json:"expenseID"` // Primary Key (UUID)
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	// ConvertedAmount is the amount in the company currency; computed at
	// submission and compared against the auto-approve threshold.
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`
	Category        ExpenseCategory `json:"category"`
	ExpenseDate     time.Time       `json:"expenseDate"`
	Status          ExpenseStatus   `json:"status"`
	Receipt         *ReceiptInfo    `json:"receipt,omitempty"`
	UserID          string          `json:"userID"`    // submitter, FK -> users
	CompanyID       string          `json:"companyID"` // FK -> companies

	ApprovalFlow []ApprovalStageEntry `json:"approvalFlow"`
	// CurrentStageIndex indexes the company's configured stage-role
	// sequence, not the flat ApprovalFlow list.
	CurrentStageIndex int             `json:"currentStageIndex"`
	AuditLog          []AuditLogEntry `json:"auditLog"`

	AuditFields
}

// StageEntries returns every flow entry belonging to the stage identified
// by role. This is the one place "current stage" is derived from the flat
// list; the roster is fixed once built, never re-resolved mid-stage.
func (e *Expense) StageEntries(role Role) []ApprovalStageEntry {
	var entries []ApprovalStageEntry
	for _, entry := range e.ApprovalFlow {
		if entry.Role == role {
			entries = append(entries, entry)
		}
	}
	return entries
}

// PendingEntryIndex returns the index in ApprovalFlow of the pending entry
// assigned to approverID, or -1 when the approver has no open entry.
func (e *Expense) PendingEntryIndex(approverID string) int {
	for i, entry := range e.ApprovalFlow {
		if entry.ApproverID == approverID && entry.State == DecisionPending {
			return i
		}
	}
	return -1
}

// PendingEntries returns all entries still awaiting a decision.
func (e *Expense) PendingEntries() []ApprovalStageEntry {
	var pending []ApprovalStageEntry
	for _, entry := range e.ApprovalFlow {
		if entry.State == DecisionPending {
			pending = append(pending, entry)
		}
	}
	return pending
}

// StageCounts tallies the decision states across one stage's roster.
type StageCounts struct {
	Approved int
	Rejected int
	Pending  int
	Total    int
}

// CountStage computes the decision tallies for the stage identified by role.
func (e *Expense) CountStage(role Role) StageCounts {
	var counts StageCounts
	for _, entry := range e.ApprovalFlow {
		if entry.Role != role {
			continue
		}
		counts.Total++
		switch entry.State {
		case DecisionApproved:
			counts.Approved++
		case DecisionRejected:
			counts.Rejected++
		case DecisionPending:
			counts.Pending++
		}
	}
	return counts
}

// AppendAudit appends one entry to the audit log.
func (e *Expense) AppendAudit(action, actorID, comment string, at time.Time) {
	e.AuditLog = append(e.AuditLog, AuditLogEntry{
		Action:    action,
		ActorID:   actorID,
		Comment:   comment,
		Timestamp: at,
	})
}
