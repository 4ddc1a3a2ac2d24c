package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/expenseflow/expense_mgmt_app/internal/utils"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidRole        = errors.New("invalid role")
	ErrSelfDeactivation   = errors.New("cannot deactivate your own account")
)

// userService implements user management on top of the user repository.
// It doubles as the approver directory the flow engine resolves stage
// rosters through.
type userService struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
}

// NewUserService creates a new user service with the given repository.
func NewUserService(userRepo portsrepo.UserRepositoryFacade) portssvc.UserSvcFacade {
	return &userService{userRepo: userRepo}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)
var _ portssvc.ApproverDirectory = (*userService)(nil)

// ResolveApprovers returns the active users holding role in the company.
func (s *userService) ResolveApprovers(ctx context.Context, companyID string, role domain.Role) ([]domain.User, error) {
	return s.userRepo.FindActiveUsersByCompanyRole(ctx, companyID, role)
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

// GetUserByEmail retrieves a user by email.
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.FindUserByEmail(ctx, strings.ToLower(email))
}

// ListCompanyUsers retrieves a paginated list of users in the requesting
// user's company. Callers outside the company get nothing.
func (s *userService) ListCompanyUsers(ctx context.Context, companyID string, requestingUserID string, limit, offset int) ([]domain.User, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if requester.CompanyID != companyID {
		return nil, apperrors.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.FindUsersByCompany(ctx, companyID, limit, offset)
}

// CreateUser creates a new user within the requesting admin's company.
func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest, requestingUserID string) (*domain.User, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if requester.Role != domain.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}
	if !req.Role.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)
	}

	email := strings.ToLower(req.Email)
	if existing, err := s.userRepo.FindUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: email already in use", apperrors.ErrDuplicate)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, err
	}

	now := time.Now()
	user := domain.User{
		UserID:       uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		Role:         req.Role,
		CompanyID:    requester.CompanyID,
		Department:   req.Department,
		IsActive:     true,
		PasswordHash: &hash,
		AuthProvider: domain.ProviderLocal,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		s.LogError(ctx, err, "Failed to save user", slog.String("email", email))
		return nil, err
	}

	s.LogInfo(ctx, "User created",
		slog.String("user_id", user.UserID),
		slog.String("role", string(user.Role)))
	return &user, nil
}

// UpdateUser updates an existing user. Admins may edit anyone in their
// company; other users may only rename themselves.
func (s *userService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CompanyID != requester.CompanyID {
		return nil, apperrors.ErrNotFound
	}

	isAdmin := requester.Role == domain.RoleAdmin
	if !isAdmin && requestingUserID != userID {
		return nil, apperrors.ErrForbidden
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.Role != nil {
		if !isAdmin {
			return nil, apperrors.ErrForbidden
		}
		if !req.Role.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, *req.Role)
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if !isAdmin {
			return nil, apperrors.ErrForbidden
		}
		user.IsActive = *req.IsActive
	}

	user.LastUpdatedAt = time.Now()
	user.LastUpdatedBy = requestingUserID

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRefreshToken stores refresh token details for a user.
func (s *userService) UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	return s.userRepo.UpdateRefreshToken(ctx, userID, refreshTokenHash, refreshTokenExpiryTime)
}

// ClearRefreshToken clears the refresh token for a user.
func (s *userService) ClearRefreshToken(ctx context.Context, userID string) error {
	return s.userRepo.ClearRefreshToken(ctx, userID)
}

// DeactivateUser marks a user inactive. Inactive users stop resolving as
// approvers; entries already assigned to them keep counting toward their
// stage roster.
func (s *userService) DeactivateUser(ctx context.Context, userID string, requestingUserID string) error {
	if userID == requestingUserID {
		return ErrSelfDeactivation
	}
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return err
	}
	if requester.Role != domain.RoleAdmin {
		return apperrors.ErrForbidden
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.CompanyID != requester.CompanyID {
		return apperrors.ErrNotFound
	}

	user.IsActive = false
	user.LastUpdatedAt = time.Now()
	user.LastUpdatedBy = requestingUserID
	return s.userRepo.UpdateUser(ctx, *user)
}

// DeleteUser marks a user as deleted (soft delete). Admin only.
func (s *userService) DeleteUser(ctx context.Context, userID string, requestingUserID string) error {
	if userID == requestingUserID {
		return ErrSelfDeactivation
	}
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return err
	}
	if requester.Role != domain.RoleAdmin {
		return apperrors.ErrForbidden
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.CompanyID != requester.CompanyID {
		return apperrors.ErrNotFound
	}
	return s.userRepo.MarkUserDeleted(ctx, userID, time.Now(), requestingUserID)
}

// AuthenticateUser authenticates a user with email and password. The
// error is deliberately identical for unknown email and wrong password.
func (s *userService) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil || !utils.CheckPasswordHash(password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// ProvisionOAuthUser resolves an external provider profile to a user.
// Sign-in only links to accounts that already exist; it never creates a
// company, so unknown emails are rejected.
func (s *userService) ProvisionOAuthUser(ctx context.Context, provider string, info domain.GoogleUserInfo) (*domain.User, error) {
	user, err := s.userRepo.FindUserByProviderDetails(ctx, provider, info.Sub)
	if err == nil {
		if !user.IsActive {
			return nil, ErrUserInactive
		}
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// Link the provider identity to an existing local account with the
	// same verified email.
	user, err = s.userRepo.FindUserByEmail(ctx, strings.ToLower(info.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no account for %s", apperrors.ErrNotFound, info.Email)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	user.AuthProvider = provider
	user.ProviderUserID = info.Sub
	user.LastUpdatedAt = time.Now()
	user.LastUpdatedBy = user.UserID
	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Linked external identity",
		slog.String("user_id", user.UserID),
		slog.String("provider", provider))
	return user, nil
}
