package services_test

import (
	"context"
	"testing"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/core/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock CompanyRepository ---
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) SaveCompany(ctx context.Context, company domain.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) SaveCompanyInTx(ctx context.Context, tx pgx.Tx, company domain.Company) error {
	args := m.Called(ctx, tx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	var tx pgx.Tx
	if args.Get(0) != nil {
		tx = args.Get(0).(pgx.Tx)
	}
	return tx, args.Error(1)
}

func (m *MockCompanyRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCompanyRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCompanyRepository) UpdateCompany(ctx context.Context, company domain.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) UpdateCompanySettings(ctx context.Context, companyID string, settings domain.CompanySettings, updatedBy string) error {
	args := m.Called(ctx, companyID, settings, updatedBy)
	return args.Error(0)
}

func (m *MockCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID)
	var company *domain.Company
	if args.Get(0) != nil {
		company = args.Get(0).(*domain.Company)
	}
	return company, args.Error(1)
}

func (m *MockCompanyRepository) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	args := m.Called(ctx)
	var companies []domain.Company
	if args.Get(0) != nil {
		companies = args.Get(0).([]domain.Company)
	}
	return companies, args.Error(1)
}

// --- Test Suite ---
type CompanyServiceTestSuite struct {
	suite.Suite
	mockCompanyRepo *MockCompanyRepository
	mockUserRepo    *MockUserRepository
	service         portssvc.CompanySvcFacade

	companyID string
	adminID   string
}

func (suite *CompanyServiceTestSuite) SetupTest() {
	suite.mockCompanyRepo = new(MockCompanyRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewCompanyService(suite.mockCompanyRepo, suite.mockUserRepo)
	suite.companyID = uuid.NewString()
	suite.adminID = uuid.NewString()
}

func (suite *CompanyServiceTestSuite) admin() *domain.User {
	return &domain.User{UserID: suite.adminID, Role: domain.RoleAdmin, CompanyID: suite.companyID, IsActive: true}
}

func (suite *CompanyServiceTestSuite) company() *domain.Company {
	return &domain.Company{
		CompanyID: suite.companyID,
		Name:      "Acme Corp",
		Country:   "US",
		Currency:  "USD",
		Timezone:  "UTC",
		Settings:  domain.DefaultCompanySettings(),
	}
}

func (suite *CompanyServiceTestSuite) TestCreateCompany_DefaultsApplied() {
	ctx := context.Background()
	req := dto.CreateCompanyRequest{Name: "Acme Corp", Country: "US", Currency: "USD"}

	suite.mockCompanyRepo.On("SaveCompany", ctx, mock.MatchedBy(func(c domain.Company) bool {
		return c.Timezone == "UTC" && c.Settings.Validate() == nil
	})).Return(nil).Once()

	company, err := suite.service.CreateCompany(ctx, req, suite.adminID)

	suite.Require().NoError(err)
	suite.NotEmpty(company.CompanyID)
	suite.Equal(domain.DefaultCompanySettings(), company.Settings)
	suite.mockCompanyRepo.AssertExpectations(suite.T())
}

func (suite *CompanyServiceTestSuite) TestUpdateSettings_Success() {
	ctx := context.Background()
	req := dto.UpdateCompanySettingsRequest{
		StageRoles:            []domain.Role{domain.RoleManager, domain.RoleFinance},
		ConsensusPercentage:   75,
		AutoApproveThreshold:  decimal.NewFromInt(25),
		ReminderScheduleHours: 48,
		RequireReceipt:        false,
	}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.adminID).Return(suite.admin(), nil).Once()
	suite.mockCompanyRepo.On("FindCompanyByID", ctx, suite.companyID).Return(suite.company(), nil).Once()
	suite.mockCompanyRepo.On("UpdateCompanySettings", ctx, suite.companyID, mock.MatchedBy(func(s domain.CompanySettings) bool {
		return s.ConsensusPercentage == 75 && len(s.StageRoles) == 2
	}), suite.adminID).Return(nil).Once()

	company, err := suite.service.UpdateSettings(ctx, suite.companyID, req, suite.adminID)

	suite.Require().NoError(err)
	suite.Equal(75, company.Settings.ConsensusPercentage)
	suite.Equal(48, company.Settings.ReminderScheduleHours)
	suite.mockCompanyRepo.AssertExpectations(suite.T())
}

func (suite *CompanyServiceTestSuite) TestUpdateSettings_InvalidStageRole() {
	ctx := context.Background()
	req := dto.UpdateCompanySettingsRequest{
		StageRoles:            []domain.Role{domain.RoleEmployee},
		ConsensusPercentage:   60,
		ReminderScheduleHours: 24,
	}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.adminID).Return(suite.admin(), nil).Once()
	suite.mockCompanyRepo.On("FindCompanyByID", ctx, suite.companyID).Return(suite.company(), nil).Once()

	company, err := suite.service.UpdateSettings(ctx, suite.companyID, req, suite.adminID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(company)
	suite.mockCompanyRepo.AssertNotCalled(suite.T(), "UpdateCompanySettings", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CompanyServiceTestSuite) TestUpdateSettings_NonAdminForbidden() {
	ctx := context.Background()
	manager := &domain.User{UserID: "mgr-1", Role: domain.RoleManager, CompanyID: suite.companyID, IsActive: true}

	suite.mockUserRepo.On("FindUserByID", ctx, "mgr-1").Return(manager, nil).Once()

	company, err := suite.service.UpdateSettings(ctx, suite.companyID, dto.UpdateCompanySettingsRequest{
		StageRoles:            []domain.Role{domain.RoleManager},
		ConsensusPercentage:   60,
		ReminderScheduleHours: 24,
	}, "mgr-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.Nil(company)
}

func (suite *CompanyServiceTestSuite) TestUpdateCompany_OtherCompanyHidden() {
	ctx := context.Background()
	outsider := &domain.User{UserID: "outsider", Role: domain.RoleAdmin, CompanyID: uuid.NewString(), IsActive: true}

	suite.mockUserRepo.On("FindUserByID", ctx, "outsider").Return(outsider, nil).Once()

	name := "New Name"
	company, err := suite.service.UpdateCompany(ctx, suite.companyID, dto.UpdateCompanyRequest{Name: &name}, "outsider")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(company)
}

func TestCompanyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CompanyServiceTestSuite))
}
