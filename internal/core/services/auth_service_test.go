package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/core/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/expenseflow/expense_mgmt_app/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AuthServiceTestSuite struct {
	suite.Suite
	mockUserRepo        *MockUserRepository
	mockCompanyRepo     *MockCompanyRepository
	mockNotificationSvc *MockNotificationService
	service             portssvc.AuthSvcFacade
	ctx                 context.Context
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockCompanyRepo = new(MockCompanyRepository)
	suite.mockNotificationSvc = new(MockNotificationService)
	suite.service = services.NewAuthService(suite.mockUserRepo, suite.mockCompanyRepo, suite.mockNotificationSvc)
	suite.ctx = context.Background()
}

func registerRequestFixture() dto.RegisterRequest {
	return dto.RegisterRequest{
		Name:        "Ada Admin",
		Email:       "Ada@Example.com",
		Password:    "s3cret-pass",
		CompanyName: "Acme Corp",
		Country:     "US",
		Currency:    "USD",
	}
}

func (suite *AuthServiceTestSuite) TestRegister_Success() {
	req := registerRequestFixture()

	suite.mockUserRepo.On("FindUserByEmail", suite.ctx, "ada@example.com").
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockCompanyRepo.On("Begin", suite.ctx).Return(nil, nil).Once()
	suite.mockCompanyRepo.On("SaveCompanyInTx", suite.ctx, mock.Anything, mock.MatchedBy(func(c domain.Company) bool {
		return c.Name == "Acme Corp" && c.Timezone == "UTC"
	})).Return(nil).Once()
	suite.mockUserRepo.On("SaveUserInTx", suite.ctx, mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == "ada@example.com" && u.Role == domain.RoleAdmin && u.IsActive
	})).Return(nil).Once()
	suite.mockCompanyRepo.On("Commit", suite.ctx, mock.Anything).Return(nil).Once()
	suite.mockCompanyRepo.On("Rollback", suite.ctx, mock.Anything).Return(nil).Once()
	suite.mockNotificationSvc.On("NotifyWelcome", suite.ctx, mock.AnythingOfType("string"), "Acme Corp").
		Return(nil).Once()

	user, company, err := suite.service.Register(suite.ctx, req)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), user)
	assert.NotNil(suite.T(), company)
	assert.Equal(suite.T(), company.CompanyID, user.CompanyID)
	assert.Equal(suite.T(), domain.DefaultCompanySettings(), company.Settings)
	assert.Equal(suite.T(), domain.ProviderLocal, user.AuthProvider)
	assert.NotNil(suite.T(), user.PasswordHash)
	assert.True(suite.T(), utils.CheckPasswordHash("s3cret-pass", *user.PasswordHash))
	suite.mockCompanyRepo.AssertExpectations(suite.T())
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockNotificationSvc.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestRegister_UserSaveFailureRollsBackCompany() {
	req := registerRequestFixture()

	suite.mockUserRepo.On("FindUserByEmail", suite.ctx, "ada@example.com").
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockCompanyRepo.On("Begin", suite.ctx).Return(nil, nil).Once()
	suite.mockCompanyRepo.On("SaveCompanyInTx", suite.ctx, mock.Anything, mock.AnythingOfType("domain.Company")).
		Return(nil).Once()
	suite.mockUserRepo.On("SaveUserInTx", suite.ctx, mock.Anything, mock.AnythingOfType("domain.User")).
		Return(errors.New("insert failed")).Once()
	suite.mockCompanyRepo.On("Rollback", suite.ctx, mock.Anything).Return(nil).Once()

	user, company, err := suite.service.Register(suite.ctx, req)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), user)
	assert.Nil(suite.T(), company)
	suite.mockCompanyRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
	suite.mockCompanyRepo.AssertNotCalled(suite.T(), "SaveCompany", mock.Anything, mock.Anything)
	suite.mockCompanyRepo.AssertCalled(suite.T(), "Rollback", suite.ctx, mock.Anything)
	suite.mockNotificationSvc.AssertNotCalled(suite.T(), "NotifyWelcome", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestRegister_DuplicateEmail() {
	req := registerRequestFixture()
	existing := &domain.User{UserID: "user-1", Email: "ada@example.com"}

	suite.mockUserRepo.On("FindUserByEmail", suite.ctx, "ada@example.com").
		Return(existing, nil).Once()

	user, company, err := suite.service.Register(suite.ctx, req)
	assert.ErrorIs(suite.T(), err, apperrors.ErrDuplicate)
	assert.Nil(suite.T(), user)
	assert.Nil(suite.T(), company)
	suite.mockCompanyRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPassword() {
	hash, err := utils.HashPassword("right-password")
	assert.NoError(suite.T(), err)
	user := &domain.User{UserID: "user-1", Email: "ada@example.com", PasswordHash: &hash, IsActive: true}

	suite.mockUserRepo.On("FindUserByEmail", suite.ctx, "ada@example.com").Return(user, nil).Once()

	got, err := suite.service.Login(suite.ctx, dto.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(suite.T(), err, services.ErrInvalidCredentials)
	assert.Nil(suite.T(), got)
}

func (suite *AuthServiceTestSuite) TestLogin_InactiveUser() {
	hash, err := utils.HashPassword("right-password")
	assert.NoError(suite.T(), err)
	user := &domain.User{UserID: "user-1", Email: "ada@example.com", PasswordHash: &hash, IsActive: false}

	suite.mockUserRepo.On("FindUserByEmail", suite.ctx, "ada@example.com").Return(user, nil).Once()

	got, err := suite.service.Login(suite.ctx, dto.LoginRequest{Email: "ada@example.com", Password: "right-password"})
	assert.ErrorIs(suite.T(), err, services.ErrUserInactive)
	assert.Nil(suite.T(), got)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
