package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
)

// Minimum gap between two reminders to the same approver on the same entry.
const reminderRepeatInterval = 12 * time.Hour

// reminderService scans pending approval entries that have sat past their
// company's reminder schedule and records reminder notifications. It is
// driven by a ticker in main.
type reminderService struct {
	BaseService
	companyRepo     portsrepo.CompanyReader
	expenseRepo     portsrepo.ExpenseRepositoryWithTx
	notificationSvc portssvc.NotificationSvcFacade
}

// NewReminderService creates a new reminder service.
func NewReminderService(
	companyRepo portsrepo.CompanyReader,
	expenseRepo portsrepo.ExpenseRepositoryWithTx,
	notificationSvc portssvc.NotificationSvcFacade,
) portssvc.ReminderSvcFacade {
	return &reminderService{
		companyRepo:     companyRepo,
		expenseRepo:     expenseRepo,
		notificationSvc: notificationSvc,
	}
}

var _ portssvc.ReminderSvcFacade = (*reminderService)(nil)

// SendDueReminders runs one scan across all companies and returns how
// many reminders were recorded. Failures on a single company or expense
// are logged and skipped so one bad row cannot stall the whole scan.
func (s *reminderService) SendDueReminders(ctx context.Context) (int, error) {
	companies, err := s.companyRepo.ListCompanies(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	sent := 0
	for i := range companies {
		company := &companies[i]
		schedule := time.Duration(company.Settings.ReminderScheduleHours) * time.Hour
		cutoff := now.Add(-schedule)

		expenses, err := s.expenseRepo.ListOverduePendingExpenses(ctx, company.CompanyID, cutoff)
		if err != nil {
			s.LogError(ctx, err, "Reminder scan failed for company", slog.String("company_id", company.CompanyID))
			continue
		}

		for j := range expenses {
			n, err := s.remindExpense(ctx, expenses[j].ExpenseID, schedule, now)
			if err != nil {
				s.LogError(ctx, err, "Failed to remind approvers", slog.String("expense_id", expenses[j].ExpenseID))
				continue
			}
			sent += n
		}
	}

	if sent > 0 {
		s.LogInfo(ctx, "Reminder scan complete", slog.Int("reminders_sent", sent))
	}
	return sent, nil
}

type dueReminder struct {
	approverID  string
	daysPending int
}

// remindExpense records reminder bookkeeping for the expense's overdue
// pending approvers. The expense is re-loaded under the row lock because
// the scan's listing read was unlocked: a decision committing in between
// would otherwise be clobbered by the stale snapshot. Notifications are
// written after the commit, mirroring the decision path.
func (s *reminderService) remindExpense(ctx context.Context, expenseID string, schedule time.Duration, now time.Time) (int, error) {
	tx, err := s.expenseRepo.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.expenseRepo.Rollback(ctx, tx) }()

	expense, err := s.expenseRepo.FindExpenseByIDForUpdate(ctx, tx, expenseID)
	if err != nil {
		return 0, err
	}
	if expense.Status != domain.ExpensePending {
		// Finalized since the scan read it.
		return 0, nil
	}

	var reminders []dueReminder
	for i := range expense.ApprovalFlow {
		entry := &expense.ApprovalFlow[i]
		if entry.State != domain.DecisionPending {
			continue
		}

		assignedAt := entry.DueDate.Add(-approvalSLA)
		if now.Sub(assignedAt) < schedule {
			continue
		}
		if entry.ReminderSentAt != nil && now.Sub(*entry.ReminderSentAt) < reminderRepeatInterval {
			continue
		}

		daysPending := int(now.Sub(assignedAt).Hours() / 24)
		if daysPending < 1 {
			daysPending = 1
		}

		sentAt := now
		entry.ReminderSent = true
		entry.ReminderSentAt = &sentAt
		reminders = append(reminders, dueReminder{approverID: entry.ApproverID, daysPending: daysPending})
	}
	if len(reminders) == 0 {
		return 0, nil
	}

	if err := s.expenseRepo.UpdateExpenseInTx(ctx, tx, *expense); err != nil {
		return 0, err
	}
	if err := s.expenseRepo.Commit(ctx, tx); err != nil {
		return 0, err
	}

	for _, r := range reminders {
		if err := s.notificationSvc.NotifyReminder(ctx, expense, r.approverID, r.daysPending); err != nil {
			s.LogError(ctx, err, "Failed to write reminder notification",
				slog.String("expense_id", expense.ExpenseID), slog.String("approver_id", r.approverID))
		}
	}
	return len(reminders), nil
}
