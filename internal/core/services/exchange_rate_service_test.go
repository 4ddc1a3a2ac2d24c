package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/core/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExchangeRateRepository ---
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCurrencyCode, toCurrencyCode)
	var rate *domain.ExchangeRate
	if args.Get(0) != nil {
		rate = args.Get(0).(*domain.ExchangeRate)
	}
	return rate, args.Error(1)
}

// --- Test Suite ---
type ExchangeRateServiceTestSuite struct {
	suite.Suite
	mockRateRepo *MockExchangeRateRepository
	mockUserRepo *MockUserRepository
	service      portssvc.ExchangeRateSvcFacade
}

func (suite *ExchangeRateServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewExchangeRateService(suite.mockRateRepo, suite.mockUserRepo)
}

// --- Convert Tests ---

func (suite *ExchangeRateServiceTestSuite) TestConvert_SameCurrency() {
	ctx := context.Background()

	converted, rate, err := suite.service.Convert(ctx, decimal.NewFromInt(120), "USD", "USD")

	suite.Require().NoError(err)
	suite.True(converted.Equal(decimal.NewFromInt(120)))
	suite.True(rate.Equal(decimal.NewFromInt(1)))
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindExchangeRate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeRateServiceTestSuite) TestConvert_DirectRate() {
	ctx := context.Background()
	stored := &domain.ExchangeRate{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.10"),
	}

	suite.mockRateRepo.On("FindExchangeRate", ctx, "EUR", "USD").Return(stored, nil).Once()

	converted, rate, err := suite.service.Convert(ctx, decimal.NewFromInt(100), "EUR", "USD")

	suite.Require().NoError(err)
	suite.True(converted.Equal(decimal.RequireFromString("110.00")), "got %s", converted)
	suite.True(rate.Equal(stored.Rate))
}

func (suite *ExchangeRateServiceTestSuite) TestConvert_InverseFallback() {
	ctx := context.Background()
	inverse := &domain.ExchangeRate{
		FromCurrencyCode: "USD",
		ToCurrencyCode:   "EUR",
		Rate:             decimal.RequireFromString("0.8"),
	}

	suite.mockRateRepo.On("FindExchangeRate", ctx, "EUR", "USD").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRateRepo.On("FindExchangeRate", ctx, "USD", "EUR").Return(inverse, nil).Once()

	converted, rate, err := suite.service.Convert(ctx, decimal.NewFromInt(80), "EUR", "USD")

	suite.Require().NoError(err)
	suite.True(rate.Equal(decimal.RequireFromString("1.25")), "got rate %s", rate)
	suite.True(converted.Equal(decimal.RequireFromString("100.00")), "got %s", converted)
}

func (suite *ExchangeRateServiceTestSuite) TestConvert_NoRateEitherDirection() {
	ctx := context.Background()

	suite.mockRateRepo.On("FindExchangeRate", ctx, "GBP", "JPY").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRateRepo.On("FindExchangeRate", ctx, "JPY", "GBP").Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := suite.service.Convert(ctx, decimal.NewFromInt(10), "GBP", "JPY")

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrExchangeRateNotFound)
}

// --- CreateExchangeRate Tests ---

func (suite *ExchangeRateServiceTestSuite) TestCreateExchangeRate_Success() {
	ctx := context.Background()
	adminID := uuid.NewString()
	admin := &domain.User{UserID: adminID, Role: domain.RoleAdmin, IsActive: true}
	req := dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.09"),
		DateEffective:    time.Now(),
	}

	suite.mockUserRepo.On("FindUserByID", ctx, adminID).Return(admin, nil).Once()
	suite.mockRateRepo.On("SaveExchangeRate", ctx, mock.MatchedBy(func(rate domain.ExchangeRate) bool {
		return rate.FromCurrencyCode == "EUR" && rate.ToCurrencyCode == "USD"
	})).Return(nil).Once()

	created, err := suite.service.CreateExchangeRate(ctx, req, adminID)

	suite.Require().NoError(err)
	suite.NotEmpty(created.ExchangeRateID)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ExchangeRateServiceTestSuite) TestCreateExchangeRate_NonAdminForbidden() {
	ctx := context.Background()
	userID := uuid.NewString()
	user := &domain.User{UserID: userID, Role: domain.RoleFinance, IsActive: true}

	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(user, nil).Once()

	created, err := suite.service.CreateExchangeRate(ctx, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: decimal.NewFromInt(1),
	}, userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.Nil(created)
}

func (suite *ExchangeRateServiceTestSuite) TestCreateExchangeRate_RejectsBadInput() {
	ctx := context.Background()
	adminID := uuid.NewString()
	admin := &domain.User{UserID: adminID, Role: domain.RoleAdmin, IsActive: true}

	suite.mockUserRepo.On("FindUserByID", ctx, adminID).Return(admin, nil).Twice()

	_, err := suite.service.CreateExchangeRate(ctx, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: decimal.Zero,
	}, adminID)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.CreateExchangeRate(ctx, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "USD", ToCurrencyCode: "USD", Rate: decimal.NewFromInt(1),
	}, adminID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestExchangeRateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExchangeRateServiceTestSuite))
}
