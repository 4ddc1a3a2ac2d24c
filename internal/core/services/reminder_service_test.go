package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ReminderServiceTestSuite struct {
	suite.Suite
	mockCompanyRepo *MockCompanyRepository
	mockExpenseRepo *MockExpenseRepository
	mockNotifySvc   *MockNotificationService
	service         portssvc.ReminderSvcFacade

	companyID string
}

func (suite *ReminderServiceTestSuite) SetupTest() {
	suite.mockCompanyRepo = new(MockCompanyRepository)
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockNotifySvc = new(MockNotificationService)
	suite.service = services.NewReminderService(suite.mockCompanyRepo, suite.mockExpenseRepo, suite.mockNotifySvc)
	suite.companyID = uuid.NewString()
}

func (suite *ReminderServiceTestSuite) reminderCompany(scheduleHours int) domain.Company {
	settings := domain.DefaultCompanySettings()
	settings.ReminderScheduleHours = scheduleHours
	return domain.Company{
		CompanyID: suite.companyID,
		Name:      "Acme Corp",
		Currency:  "USD",
		Settings:  settings,
	}
}

// overdueExpense builds a pending expense whose single approval entry was
// assigned pendingFor ago. The entry due date is derived from the
// assignment time plus the service's one week approval window.
func (suite *ReminderServiceTestSuite) overdueExpense(approverID string, pendingFor time.Duration) *domain.Expense {
	assignedAt := time.Now().Add(-pendingFor)
	return &domain.Expense{
		ExpenseID: uuid.NewString(),
		CompanyID: suite.companyID,
		UserID:    "emp-1",
		Status:    domain.ExpensePending,
		ApprovalFlow: []domain.ApprovalStageEntry{
			{
				ApproverID: approverID,
				Role:       domain.RoleManager,
				State:      domain.DecisionPending,
				DueDate:    assignedAt.Add(7 * 24 * time.Hour),
			},
		},
	}
}

// expectScan wires the company listing and the overdue listing to return
// the given expenses.
func (suite *ReminderServiceTestSuite) expectScan(ctx context.Context, scheduleHours int, expenses ...domain.Expense) {
	suite.mockCompanyRepo.On("ListCompanies", ctx).Return([]domain.Company{suite.reminderCompany(scheduleHours)}, nil).Once()
	suite.mockExpenseRepo.On("ListOverduePendingExpenses", ctx, suite.companyID, mock.AnythingOfType("time.Time")).
		Return(expenses, nil).Once()
}

// expectLockedReload wires the row-lock transaction to hand back fresh.
func (suite *ReminderServiceTestSuite) expectLockedReload(ctx context.Context, expenseID string, fresh *domain.Expense) {
	suite.mockExpenseRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expenseID).Return(fresh, nil).Once()
	suite.mockExpenseRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
}

func (suite *ReminderServiceTestSuite) TestSendDueReminders_NotifiesOverdueApprover() {
	ctx := context.Background()
	expense := suite.overdueExpense("mgr-1", 48*time.Hour)

	suite.expectScan(ctx, 24, *expense)
	suite.expectLockedReload(ctx, expense.ExpenseID, expense)
	suite.mockExpenseRepo.On("UpdateExpenseInTx", ctx, mock.Anything, mock.MatchedBy(func(e domain.Expense) bool {
		entry := e.ApprovalFlow[0]
		return entry.ReminderSent && entry.ReminderSentAt != nil
	})).Return(nil).Once()
	suite.mockExpenseRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockNotifySvc.On("NotifyReminder", ctx, mock.AnythingOfType("*domain.Expense"), "mgr-1", 2).Return(nil).Once()

	sent, err := suite.service.SendDueReminders(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, sent)
	suite.mockNotifySvc.AssertExpectations(suite.T())
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *ReminderServiceTestSuite) TestSendDueReminders_FinalizedBetweenScanAndLock() {
	ctx := context.Background()
	stale := suite.overdueExpense("mgr-1", 48*time.Hour)

	// By the time the row lock is taken, the approver's decision has
	// landed: the locked re-read sees APPROVED and the scan must not
	// write the stale pending snapshot back.
	fresh := suite.overdueExpense("mgr-1", 48*time.Hour)
	fresh.ExpenseID = stale.ExpenseID
	fresh.Status = domain.ExpenseApproved
	fresh.ApprovalFlow[0].State = domain.DecisionApproved

	suite.expectScan(ctx, 24, *stale)
	suite.expectLockedReload(ctx, stale.ExpenseID, fresh)

	sent, err := suite.service.SendDueReminders(ctx)

	suite.Require().NoError(err)
	suite.Zero(sent)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "UpdateExpenseInTx", mock.Anything, mock.Anything, mock.Anything)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "UpdateExpense", mock.Anything, mock.Anything)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
	suite.mockNotifySvc.AssertNotCalled(suite.T(), "NotifyReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReminderServiceTestSuite) TestSendDueReminders_SkipsEntryWithinSchedule() {
	ctx := context.Background()
	expense := suite.overdueExpense("mgr-1", 10*time.Hour)

	suite.expectScan(ctx, 24, *expense)
	suite.expectLockedReload(ctx, expense.ExpenseID, expense)

	sent, err := suite.service.SendDueReminders(ctx)

	suite.Require().NoError(err)
	suite.Zero(sent)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "UpdateExpenseInTx", mock.Anything, mock.Anything, mock.Anything)
	suite.mockNotifySvc.AssertNotCalled(suite.T(), "NotifyReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReminderServiceTestSuite) TestSendDueReminders_RepeatSuppressed() {
	ctx := context.Background()
	expense := suite.overdueExpense("mgr-1", 72*time.Hour)
	recentReminder := time.Now().Add(-1 * time.Hour)
	expense.ApprovalFlow[0].ReminderSent = true
	expense.ApprovalFlow[0].ReminderSentAt = &recentReminder

	suite.expectScan(ctx, 24, *expense)
	suite.expectLockedReload(ctx, expense.ExpenseID, expense)

	sent, err := suite.service.SendDueReminders(ctx)

	suite.Require().NoError(err)
	suite.Zero(sent)
	suite.mockNotifySvc.AssertNotCalled(suite.T(), "NotifyReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReminderServiceTestSuite) TestSendDueReminders_RemindsAgainAfterRepeatInterval() {
	ctx := context.Background()
	expense := suite.overdueExpense("mgr-1", 96*time.Hour)
	oldReminder := time.Now().Add(-24 * time.Hour)
	expense.ApprovalFlow[0].ReminderSent = true
	expense.ApprovalFlow[0].ReminderSentAt = &oldReminder

	suite.expectScan(ctx, 24, *expense)
	suite.expectLockedReload(ctx, expense.ExpenseID, expense)
	suite.mockExpenseRepo.On("UpdateExpenseInTx", ctx, mock.Anything, mock.AnythingOfType("domain.Expense")).Return(nil).Once()
	suite.mockExpenseRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockNotifySvc.On("NotifyReminder", ctx, mock.AnythingOfType("*domain.Expense"), "mgr-1", 4).Return(nil).Once()

	sent, err := suite.service.SendDueReminders(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, sent)
	suite.mockNotifySvc.AssertExpectations(suite.T())
}

func (suite *ReminderServiceTestSuite) TestSendDueReminders_SkipsDecidedEntries() {
	ctx := context.Background()
	expense := suite.overdueExpense("mgr-1", 72*time.Hour)
	expense.ApprovalFlow[0].State = domain.DecisionApproved

	suite.expectScan(ctx, 24, *expense)
	suite.expectLockedReload(ctx, expense.ExpenseID, expense)

	sent, err := suite.service.SendDueReminders(ctx)

	suite.Require().NoError(err)
	suite.Zero(sent)
	suite.mockNotifySvc.AssertNotCalled(suite.T(), "NotifyReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReminderServiceTestSuite) TestSendDueReminders_CompanyFailureIsSkipped() {
	ctx := context.Background()
	badCompanyID := uuid.NewString()
	badCompany := domain.Company{CompanyID: badCompanyID, Settings: domain.DefaultCompanySettings()}
	expense := suite.overdueExpense("mgr-1", 48*time.Hour)

	suite.mockCompanyRepo.On("ListCompanies", ctx).
		Return([]domain.Company{badCompany, suite.reminderCompany(24)}, nil).Once()
	suite.mockExpenseRepo.On("ListOverduePendingExpenses", ctx, badCompanyID, mock.AnythingOfType("time.Time")).
		Return(nil, errors.New("db down")).Once()
	suite.mockExpenseRepo.On("ListOverduePendingExpenses", ctx, suite.companyID, mock.AnythingOfType("time.Time")).
		Return([]domain.Expense{*expense}, nil).Once()
	suite.expectLockedReload(ctx, expense.ExpenseID, expense)
	suite.mockExpenseRepo.On("UpdateExpenseInTx", ctx, mock.Anything, mock.AnythingOfType("domain.Expense")).Return(nil).Once()
	suite.mockExpenseRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockNotifySvc.On("NotifyReminder", ctx, mock.AnythingOfType("*domain.Expense"), "mgr-1", 2).Return(nil).Once()

	sent, err := suite.service.SendDueReminders(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, sent)
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func TestReminderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReminderServiceTestSuite))
}
