package mapping

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/expenseflow/expense_mgmt_app/internal/models"
)

// ToModelExpense converts a domain Expense to a model Expense. The
// approval flow and audit log become JSONB documents, and the IDs of
// approvers still pending are mirrored into the dedicated array column.
func ToModelExpense(d domain.Expense) (models.Expense, error) {
	flow, err := json.Marshal(d.ApprovalFlow)
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to marshal approval flow: %w", err)
	}
	auditLog, err := json.Marshal(d.AuditLog)
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to marshal audit log: %w", err)
	}

	m := models.Expense{
		ExpenseID:          d.ExpenseID,
		Title:              d.Title,
		Amount:             d.Amount,
		Currency:           d.Currency,
		ConvertedAmount:    d.ConvertedAmount,
		ExchangeRate:       d.ExchangeRate,
		Category:           string(d.Category),
		ExpenseDate:        d.ExpenseDate,
		Status:             string(d.Status),
		UserID:             d.UserID,
		CompanyID:          d.CompanyID,
		ApprovalFlow:       flow,
		CurrentStageIndex:  d.CurrentStageIndex,
		AuditLog:           auditLog,
		PendingApproverIDs: pendingApproverIDs(d),
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
	if d.Description != "" {
		m.Description = sql.NullString{String: d.Description, Valid: true}
	}
	if d.Receipt != nil {
		receipt, err := json.Marshal(d.Receipt)
		if err != nil {
			return models.Expense{}, fmt.Errorf("failed to marshal receipt: %w", err)
		}
		m.Receipt = receipt
	}
	return m, nil
}

// ToDomainExpense converts a model Expense to a domain Expense.
func ToDomainExpense(m models.Expense) (domain.Expense, error) {
	d := domain.Expense{
		ExpenseID:         m.ExpenseID,
		Title:             m.Title,
		Amount:            m.Amount,
		Currency:          m.Currency,
		ConvertedAmount:   m.ConvertedAmount,
		ExchangeRate:      m.ExchangeRate,
		Category:          domain.ExpenseCategory(m.Category),
		ExpenseDate:       m.ExpenseDate,
		Status:            domain.ExpenseStatus(m.Status),
		UserID:            m.UserID,
		CompanyID:         m.CompanyID,
		CurrentStageIndex: m.CurrentStageIndex,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
	if m.Description.Valid {
		d.Description = m.Description.String
	}
	if len(m.ApprovalFlow) > 0 {
		if err := json.Unmarshal(m.ApprovalFlow, &d.ApprovalFlow); err != nil {
			return domain.Expense{}, fmt.Errorf("failed to unmarshal approval flow: %w", err)
		}
	}
	if len(m.AuditLog) > 0 {
		if err := json.Unmarshal(m.AuditLog, &d.AuditLog); err != nil {
			return domain.Expense{}, fmt.Errorf("failed to unmarshal audit log: %w", err)
		}
	}
	if len(m.Receipt) > 0 {
		var receipt domain.ReceiptInfo
		if err := json.Unmarshal(m.Receipt, &receipt); err != nil {
			return domain.Expense{}, fmt.Errorf("failed to unmarshal receipt: %w", err)
		}
		d.Receipt = &receipt
	}
	return d, nil
}

// ToDomainExpenseSlice converts a slice of model Expenses to domain Expenses.
func ToDomainExpenseSlice(ms []models.Expense) ([]domain.Expense, error) {
	ds := make([]domain.Expense, len(ms))
	for i, m := range ms {
		d, err := ToDomainExpense(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

func pendingApproverIDs(d domain.Expense) []string {
	ids := make([]string, 0, len(d.ApprovalFlow))
	for _, entry := range d.ApprovalFlow {
		if entry.State == domain.DecisionPending {
			ids = append(ids, entry.ApproverID)
		}
	}
	return ids
}
