package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is the database row for an expense. The approval flow and the
// audit log are ordered JSONB arrays; their element shape is the domain
// type's JSON encoding. Pending approver IDs are mirrored into a plain
// array column so approver inboxes can be indexed without unpacking the
// flow document.
type Expense struct {
	ExpenseID       string          `db:"expense_id"`
	Title           string          `db:"title"`
	Description     sql.NullString  `db:"description"`
	Amount          decimal.Decimal `db:"amount"`
	Currency        string          `db:"currency"`
	ConvertedAmount decimal.Decimal `db:"converted_amount"`
	ExchangeRate    decimal.Decimal `db:"exchange_rate"`
	Category        string          `db:"category"`
	ExpenseDate     time.Time       `db:"expense_date"`
	Status          string          `db:"status"`
	Receipt         []byte          `db:"receipt"` // JSONB, nullable
	UserID          string          `db:"user_id"`
	CompanyID       string          `db:"company_id"`

	ApprovalFlow      []byte   `db:"approval_flow"` // JSONB array
	CurrentStageIndex int      `db:"current_stage_index"`
	AuditLog          []byte   `db:"audit_log"` // JSONB array
	PendingApproverIDs []string `db:"pending_approver_ids"`

	AuditFields
}
