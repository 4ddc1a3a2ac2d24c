package pgsql

import (
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:         newPgxUserRepository(dbPool),
		CompanyRepo:      newPgxCompanyRepository(dbPool),
		ExpenseRepo:      newPgxExpenseRepository(dbPool),
		NotificationRepo: newPgxNotificationRepository(dbPool),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
	}
}
