package services

import (
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// User service first; it doubles as the approver directory the
	// expense service hands to the flow engine.
	container.User = NewUserService(repos.UserRepo)
	container.Company = NewCompanyService(repos.CompanyRepo, repos.UserRepo)
	container.Notification = NewNotificationService(repos.NotificationRepo)
	container.ExchangeRate = NewExchangeRateService(repos.ExchangeRateRepo, repos.UserRepo)

	container.Expense = NewExpenseService(
		repos.ExpenseRepo,
		container.User,
		container.Company,
		container.ExchangeRate,
		container.Notification,
		NewApprovalEngine(),
	)

	// The reminder and auth services need tx-capable repos: reminders
	// re-lock each expense before writing, registration commits company
	// and admin user together.
	container.Reminder = NewReminderService(repos.CompanyRepo, repos.ExpenseRepo, container.Notification)
	container.Auth = NewAuthService(repos.UserRepo, repos.CompanyRepo, container.Notification)
	container.TokenService = NewTokenService(cfg, container.User)
	container.GoogleOAuthHandler = NewGoogleOAuthHandlerService(cfg)

	return container
}
