package domain_test

import (
	"testing"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func flowFixture() *domain.Expense {
	return &domain.Expense{
		ApprovalFlow: []domain.ApprovalStageEntry{
			{ApproverID: "mgr-1", Role: domain.RoleManager, State: domain.DecisionApproved},
			{ApproverID: "mgr-2", Role: domain.RoleManager, State: domain.DecisionRejected},
			{ApproverID: "mgr-3", Role: domain.RoleManager, State: domain.DecisionPending},
			{ApproverID: "fin-1", Role: domain.RoleFinance, State: domain.DecisionPending},
		},
	}
}

func TestExpense_CountStage(t *testing.T) {
	e := flowFixture()

	managerCounts := e.CountStage(domain.RoleManager)
	assert.Equal(t, 3, managerCounts.Total)
	assert.Equal(t, 1, managerCounts.Approved)
	assert.Equal(t, 1, managerCounts.Rejected)
	assert.Equal(t, 1, managerCounts.Pending)

	financeCounts := e.CountStage(domain.RoleFinance)
	assert.Equal(t, 1, financeCounts.Total)
	assert.Equal(t, 1, financeCounts.Pending)

	adminCounts := e.CountStage(domain.RoleAdmin)
	assert.Equal(t, domain.StageCounts{}, adminCounts)
}

func TestExpense_PendingEntryIndex(t *testing.T) {
	e := flowFixture()

	assert.Equal(t, 2, e.PendingEntryIndex("mgr-3"))
	assert.Equal(t, 3, e.PendingEntryIndex("fin-1"))
	// Already decided means no open entry.
	assert.Equal(t, -1, e.PendingEntryIndex("mgr-1"))
	assert.Equal(t, -1, e.PendingEntryIndex("unknown"))
}

func TestExpense_PendingEntries(t *testing.T) {
	e := flowFixture()

	pending := e.PendingEntries()
	assert.Len(t, pending, 2)
	assert.Equal(t, "mgr-3", pending[0].ApproverID)
	assert.Equal(t, "fin-1", pending[1].ApproverID)
}

func TestExpense_StageEntries(t *testing.T) {
	e := flowFixture()

	assert.Len(t, e.StageEntries(domain.RoleManager), 3)
	assert.Len(t, e.StageEntries(domain.RoleFinance), 1)
	assert.Empty(t, e.StageEntries(domain.RoleAdmin))
}

func TestExpense_AppendAudit(t *testing.T) {
	e := &domain.Expense{}
	at := time.Now()

	e.AppendAudit("expense_submitted", "user-1", "", at)
	e.AppendAudit("approved_by_approver", "mgr-1", "fine by me", at.Add(time.Minute))

	assert.Len(t, e.AuditLog, 2)
	assert.Equal(t, "expense_submitted", e.AuditLog[0].Action)
	assert.Equal(t, "mgr-1", e.AuditLog[1].ActorID)
	assert.Equal(t, "fine by me", e.AuditLog[1].Comment)
}

func TestExpenseStatus_IsTerminalForApproval(t *testing.T) {
	assert.True(t, domain.ExpenseApproved.IsTerminalForApproval())
	assert.True(t, domain.ExpenseRejected.IsTerminalForApproval())
	assert.False(t, domain.ExpensePending.IsTerminalForApproval())
	assert.False(t, domain.ExpenseDraft.IsTerminalForApproval())
	assert.False(t, domain.ExpensePaid.IsTerminalForApproval())
}

func TestExpenseCategory_IsValid(t *testing.T) {
	assert.True(t, domain.CategoryTravel.IsValid())
	assert.True(t, domain.CategoryOther.IsValid())
	assert.False(t, domain.ExpenseCategory("GADGETS").IsValid())
	assert.False(t, domain.ExpenseCategory("").IsValid())
}

func TestRole_CanApprove(t *testing.T) {
	assert.False(t, domain.RoleEmployee.CanApprove())
	assert.True(t, domain.RoleManager.CanApprove())
	assert.True(t, domain.RoleFinance.CanApprove())
	assert.True(t, domain.RoleAdmin.CanApprove())
}
