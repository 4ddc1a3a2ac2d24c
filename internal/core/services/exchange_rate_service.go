package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrExchangeRateNotFound = errors.New("no exchange rate found for currency pair")
	ErrNonPositiveRate      = errors.New("exchange rate must be greater than zero")
	ErrSameCurrencyPair     = errors.New("from and to currencies must differ")
)

// exchangeRateService converts amounts using admin-managed stored rates.
// When no direct rate exists it tries the inverse pair.
type exchangeRateService struct {
	BaseService
	rateRepo portsrepo.ExchangeRateRepositoryFacade
	userRepo portsrepo.UserReader
}

// NewExchangeRateService creates a new exchange rate service.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepositoryFacade, userRepo portsrepo.UserReader) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{rateRepo: rateRepo, userRepo: userRepo}
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

// Convert returns amount converted from one currency to another plus the
// rate used. Identical currencies convert at rate 1. Results are rounded
// to 2 decimal places.
func (s *exchangeRateService) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if fromCurrency == toCurrency {
		return amount, one, nil
	}

	rate, err := s.rateRepo.FindExchangeRate(ctx, fromCurrency, toCurrency)
	if err == nil {
		return amount.Mul(rate.Rate).Round(2), rate.Rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, decimal.Zero, err
	}

	// Fall back to the inverse pair.
	inverse, err := s.rateRepo.FindExchangeRate(ctx, toCurrency, fromCurrency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s/%s", ErrExchangeRateNotFound, fromCurrency, toCurrency)
		}
		return decimal.Zero, decimal.Zero, err
	}
	if inverse.Rate.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s/%s", ErrExchangeRateNotFound, fromCurrency, toCurrency)
	}
	effective := one.DivRound(inverse.Rate, 8)
	return amount.Mul(effective).Round(2), effective, nil
}

// CreateExchangeRate stores a new rate. Admin only.
func (s *exchangeRateService) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error) {
	creator, err := s.userRepo.FindUserByID(ctx, creatorUserID)
	if err != nil {
		return nil, err
	}
	if creator.Role != domain.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}
	if !req.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrNonPositiveRate)
	}
	if req.FromCurrencyCode == req.ToCurrencyCode {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrSameCurrencyPair)
	}

	now := time.Now()
	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: req.FromCurrencyCode,
		ToCurrencyCode:   req.ToCurrencyCode,
		Rate:             req.Rate,
		DateEffective:    req.DateEffective,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		s.LogError(ctx, err, "Failed to save exchange rate",
			slog.String("pair", req.FromCurrencyCode+"/"+req.ToCurrencyCode))
		return nil, err
	}
	return &rate, nil
}
