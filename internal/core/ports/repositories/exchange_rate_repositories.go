package repositories

import (
	"context"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
)

// ExchangeRateRepositoryFacade defines persistence operations for exchange rates.
type ExchangeRateRepositoryFacade interface {
	// SaveExchangeRate persists a new rate.
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error

	// FindExchangeRate retrieves the latest effective rate for a currency pair.
	FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error)
}
