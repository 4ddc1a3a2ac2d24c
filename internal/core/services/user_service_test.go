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
	"github.com/expenseflow/expense_mgmt_app/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SaveUserInTx(ctx context.Context, tx pgx.Tx, user domain.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUserByProviderDetails(ctx context.Context, authProvider string, providerUserID string) (*domain.User, error) {
	args := m.Called(ctx, authProvider, providerUserID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUsersByCompany(ctx context.Context, companyID string, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, companyID, limit, offset)
	var users []domain.User
	if args.Get(0) != nil {
		users = args.Get(0).([]domain.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) FindActiveUsersByCompanyRole(ctx context.Context, companyID string, role domain.Role) ([]domain.User, error) {
	args := m.Called(ctx, companyID, role)
	var users []domain.User
	if args.Get(0) != nil {
		users = args.Get(0).([]domain.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	args := m.Called(ctx, userID, refreshTokenHash, refreshTokenExpiryTime)
	return args.Error(0)
}

func (m *MockUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	args := m.Called(ctx, userID, deletedAt, deletedBy)
	return args.Error(0)
}

// --- Test Suite ---
type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	service      portssvc.UserSvcFacade

	companyID string
	adminID   string
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewUserService(suite.mockUserRepo)
	suite.companyID = uuid.NewString()
	suite.adminID = uuid.NewString()
}

func (suite *UserServiceTestSuite) admin() *domain.User {
	return &domain.User{
		UserID:    suite.adminID,
		Role:      domain.RoleAdmin,
		CompanyID: suite.companyID,
		IsActive:  true,
	}
}

// --- CreateUser Tests ---

func (suite *UserServiceTestSuite) TestCreateUser_Success() {
	ctx := context.Background()
	req := dto.CreateUserRequest{
		Name:     "Jane Approver",
		Email:    "Jane@Example.com",
		Password: "password123",
		Role:     domain.RoleManager,
	}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.adminID).Return(suite.admin(), nil).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "jane@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.Email == "jane@example.com" &&
			user.CompanyID == suite.companyID &&
			user.PasswordHash != nil && *user.PasswordHash != req.Password
	})).Return(nil).Once()

	created, err := suite.service.CreateUser(ctx, req, suite.adminID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.Equal("jane@example.com", created.Email)
	suite.Equal(domain.RoleManager, created.Role)
	suite.Equal(domain.ProviderLocal, created.AuthProvider)
	suite.True(created.IsActive)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_NonAdminForbidden() {
	ctx := context.Background()
	requester := &domain.User{UserID: "mgr-1", Role: domain.RoleManager, CompanyID: suite.companyID, IsActive: true}

	suite.mockUserRepo.On("FindUserByID", ctx, "mgr-1").Return(requester, nil).Once()

	created, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{
		Name: "X", Email: "x@example.com", Password: "password123", Role: domain.RoleEmployee,
	}, "mgr-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.Nil(created)
}

func (suite *UserServiceTestSuite) TestCreateUser_DuplicateEmail() {
	ctx := context.Background()
	existing := &domain.User{UserID: uuid.NewString(), Email: "taken@example.com"}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.adminID).Return(suite.admin(), nil).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "taken@example.com").Return(existing, nil).Once()

	created, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{
		Name: "X", Email: "taken@example.com", Password: "password123", Role: domain.RoleEmployee,
	}, suite.adminID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Nil(created)
}

func (suite *UserServiceTestSuite) TestCreateUser_InvalidRole() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByID", ctx, suite.adminID).Return(suite.admin(), nil).Once()

	created, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{
		Name: "X", Email: "x@example.com", Password: "password123", Role: domain.Role("WIZARD"),
	}, suite.adminID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrInvalidRole)
	suite.Nil(created)
}

// --- AuthenticateUser Tests ---

func (suite *UserServiceTestSuite) TestAuthenticateUser_Success() {
	ctx := context.Background()
	hash, err := utils.HashPassword("correct-horse")
	suite.Require().NoError(err)
	user := &domain.User{UserID: uuid.NewString(), Email: "a@example.com", PasswordHash: &hash, IsActive: true}

	suite.mockUserRepo.On("FindUserByEmail", ctx, "a@example.com").Return(user, nil).Once()

	found, err := suite.service.AuthenticateUser(ctx, "A@Example.com", "correct-horse")

	suite.Require().NoError(err)
	suite.Equal(user.UserID, found.UserID)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_WrongPasswordAndUnknownEmailLookAlike() {
	ctx := context.Background()
	hash, err := utils.HashPassword("correct-horse")
	suite.Require().NoError(err)
	user := &domain.User{UserID: uuid.NewString(), Email: "a@example.com", PasswordHash: &hash, IsActive: true}

	suite.mockUserRepo.On("FindUserByEmail", ctx, "a@example.com").Return(user, nil).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "b@example.com").Return(nil, apperrors.ErrNotFound).Once()

	_, wrongPassErr := suite.service.AuthenticateUser(ctx, "a@example.com", "wrong")
	_, unknownErr := suite.service.AuthenticateUser(ctx, "b@example.com", "whatever")

	suite.Require().Error(wrongPassErr)
	suite.Require().Error(unknownErr)
	suite.ErrorIs(wrongPassErr, services.ErrInvalidCredentials)
	suite.ErrorIs(unknownErr, services.ErrInvalidCredentials)
	suite.Equal(wrongPassErr.Error(), unknownErr.Error())
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_InactiveUser() {
	ctx := context.Background()
	hash, err := utils.HashPassword("correct-horse")
	suite.Require().NoError(err)
	user := &domain.User{UserID: uuid.NewString(), Email: "a@example.com", PasswordHash: &hash, IsActive: false}

	suite.mockUserRepo.On("FindUserByEmail", ctx, "a@example.com").Return(user, nil).Once()

	found, authErr := suite.service.AuthenticateUser(ctx, "a@example.com", "correct-horse")

	suite.Require().Error(authErr)
	suite.ErrorIs(authErr, services.ErrUserInactive)
	suite.Nil(found)
}

// --- DeactivateUser Tests ---

func (suite *UserServiceTestSuite) TestDeactivateUser_Success() {
	ctx := context.Background()
	target := &domain.User{UserID: "target", Role: domain.RoleManager, CompanyID: suite.companyID, IsActive: true}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.adminID).Return(suite.admin(), nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, "target").Return(target, nil).Once()
	suite.mockUserRepo.On("UpdateUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.UserID == "target" && !user.IsActive
	})).Return(nil).Once()

	err := suite.service.DeactivateUser(ctx, "target", suite.adminID)

	suite.Require().NoError(err)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestDeactivateUser_SelfRejected() {
	ctx := context.Background()

	err := suite.service.DeactivateUser(ctx, suite.adminID, suite.adminID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrSelfDeactivation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateUser", mock.Anything, mock.Anything)
}

// --- ResolveApprovers Tests ---

func (suite *UserServiceTestSuite) TestResolveApprovers_DelegatesToRepo() {
	ctx := context.Background()
	managers := []domain.User{{UserID: "mgr-1", Role: domain.RoleManager, IsActive: true}}

	suite.mockUserRepo.On("FindActiveUsersByCompanyRole", ctx, suite.companyID, domain.RoleManager).
		Return(managers, nil).Once()

	approvers, err := suite.service.ResolveApprovers(ctx, suite.companyID, domain.RoleManager)

	suite.Require().NoError(err)
	suite.Equal(managers, approvers)
}

// --- ProvisionOAuthUser Tests ---

func (suite *UserServiceTestSuite) TestProvisionOAuthUser_ExistingProviderIdentity() {
	ctx := context.Background()
	user := &domain.User{UserID: uuid.NewString(), IsActive: true, AuthProvider: domain.ProviderGoogle, ProviderUserID: "sub-1"}

	suite.mockUserRepo.On("FindUserByProviderDetails", ctx, domain.ProviderGoogle, "sub-1").Return(user, nil).Once()

	found, err := suite.service.ProvisionOAuthUser(ctx, domain.ProviderGoogle, domain.GoogleUserInfo{Sub: "sub-1"})

	suite.Require().NoError(err)
	suite.Equal(user.UserID, found.UserID)
}

func (suite *UserServiceTestSuite) TestProvisionOAuthUser_LinksByEmail() {
	ctx := context.Background()
	local := &domain.User{UserID: uuid.NewString(), Email: "jane@example.com", IsActive: true, AuthProvider: domain.ProviderLocal}

	suite.mockUserRepo.On("FindUserByProviderDetails", ctx, domain.ProviderGoogle, "sub-2").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "jane@example.com").Return(local, nil).Once()
	suite.mockUserRepo.On("UpdateUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.AuthProvider == domain.ProviderGoogle && user.ProviderUserID == "sub-2"
	})).Return(nil).Once()

	found, err := suite.service.ProvisionOAuthUser(ctx, domain.ProviderGoogle, domain.GoogleUserInfo{Sub: "sub-2", Email: "Jane@Example.com"})

	suite.Require().NoError(err)
	suite.Equal(domain.ProviderGoogle, found.AuthProvider)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestProvisionOAuthUser_UnknownEmailRejected() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByProviderDetails", ctx, domain.ProviderGoogle, "sub-3").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrNotFound).Once()

	found, err := suite.service.ProvisionOAuthUser(ctx, domain.ProviderGoogle, domain.GoogleUserInfo{Sub: "sub-3", Email: "nobody@example.com"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(found)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
