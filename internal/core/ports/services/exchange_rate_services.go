package services

import (
	"context"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/shopspring/decimal"
)

// ExchangeRateSvcFacade converts amounts between currencies using stored
// rates. The flow engine never converts; it consumes the result.
type ExchangeRateSvcFacade interface {
	// Convert returns amount converted from one currency to another plus
	// the rate used. Identical currencies convert at rate 1.
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, decimal.Decimal, error)

	// CreateExchangeRate stores a new rate (admin-managed).
	CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error)
}
