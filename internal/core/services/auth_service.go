package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/expenseflow/expense_mgmt_app/internal/platform/config"
	"github.com/expenseflow/expense_mgmt_app/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// authService handles registration and credential login. Registration is
// the tenant bootstrap: it creates the company with default approval
// settings and the first admin user in one step.
type authService struct {
	BaseService
	userRepo        portsrepo.UserRepositoryFacade
	companyRepo     portsrepo.CompanyRepositoryWithTx
	notificationSvc portssvc.NotificationSvcFacade
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo portsrepo.UserRepositoryFacade,
	companyRepo portsrepo.CompanyRepositoryWithTx,
	notificationSvc portssvc.NotificationSvcFacade,
) portssvc.AuthSvcFacade {
	return &authService{
		userRepo:        userRepo,
		companyRepo:     companyRepo,
		notificationSvc: notificationSvc,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Register creates a new company plus its admin user.
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, *domain.Company, error) {
	email := strings.ToLower(req.Email)
	if existing, err := s.userRepo.FindUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, nil, fmt.Errorf("%w: email already in use", apperrors.ErrDuplicate)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password during registration")
		return nil, nil, err
	}

	now := time.Now()
	userID := uuid.NewString()
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	company := domain.Company{
		CompanyID: uuid.NewString(),
		Name:      req.CompanyName,
		Country:   req.Country,
		Currency:  req.Currency,
		Timezone:  timezone,
		Settings:  domain.DefaultCompanySettings(),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	user := domain.User{
		UserID:       userID,
		Name:         req.Name,
		Email:        email,
		Role:         domain.RoleAdmin,
		CompanyID:    company.CompanyID,
		IsActive:     true,
		PasswordHash: &hash,
		AuthProvider: domain.ProviderLocal,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	// Company and admin user commit together; a failed user insert must
	// not strand an orphan company row.
	tx, err := s.companyRepo.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = s.companyRepo.Rollback(ctx, tx) }()

	if err := s.companyRepo.SaveCompanyInTx(ctx, tx, company); err != nil {
		s.LogError(ctx, err, "Failed to save company during registration")
		return nil, nil, err
	}
	if err := s.userRepo.SaveUserInTx(ctx, tx, user); err != nil {
		s.LogError(ctx, err, "Failed to save admin user during registration",
			slog.String("company_id", company.CompanyID))
		return nil, nil, err
	}
	if err := s.companyRepo.Commit(ctx, tx); err != nil {
		return nil, nil, err
	}

	if err := s.notificationSvc.NotifyWelcome(ctx, user.UserID, company.Name); err != nil {
		s.LogError(ctx, err, "Failed to record welcome notification", slog.String("user_id", user.UserID))
	}

	s.LogInfo(ctx, "Company registered",
		slog.String("company_id", company.CompanyID),
		slog.String("admin_user_id", user.UserID))
	return &user, &company, nil
}

// Login authenticates with email and password.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil || !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// tokenService implements TokenSvcFacade for JWT and refresh tokens.
type tokenService struct {
	cfg         *config.Config
	userService portssvc.UserSvcFacade
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config, userService portssvc.UserSvcFacade) portssvc.TokenSvcFacade {
	return &tokenService{
		cfg:         cfg,
		userService: userService,
	}
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken creates a new JWT access token for the given user.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiryTime := time.Now().Add(s.cfg.JWTExpiryDuration)
	accessToken, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return "", time.Time{}, err
	}
	return accessToken, expiryTime, nil
}

// GenerateRefreshToken creates a refresh token, stores its hash on the
// user and returns the raw token for the cookie.
func (s *tokenService) GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	rawRefreshToken, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiryTime := time.Now().Add(s.cfg.RefreshTokenExpiryDuration)
	hash := utils.HashRefreshToken(rawRefreshToken)
	if err := s.userService.UpdateRefreshToken(ctx, user.UserID, hash, expiryTime); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rawRefreshToken, expiryTime, nil
}

// ValidateAndParseRefreshToken checks a presented refresh token against
// the stored hash and returns the owning user.
func (s *tokenService) ValidateAndParseRefreshToken(ctx context.Context, userID string, refreshTokenString string) (*domain.User, error) {
	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to retrieve user for refresh token validation: %w", err)
	}

	if user.RefreshTokenHash == nil || user.RefreshTokenExpiryTime == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if time.Now().After(*user.RefreshTokenExpiryTime) {
		return nil, apperrors.ErrRefreshTokenExpired
	}
	if !utils.CompareRefreshTokenHash(refreshTokenString, *user.RefreshTokenHash) {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// googleOAuthHandlerService implements the Google sign-in flow.
type googleOAuthHandlerService struct {
	cfg          *config.Config
	oauth2Config *oauth2.Config
}

// NewGoogleOAuthHandlerService creates a new instance of googleOAuthHandlerService.
func NewGoogleOAuthHandlerService(cfg *config.Config) portssvc.GoogleOAuthHandlerSvcFacade {
	return &googleOAuthHandlerService{
		cfg: cfg,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

var _ portssvc.GoogleOAuthHandlerSvcFacade = (*googleOAuthHandlerService)(nil)

// GenerateStateString creates the anti-CSRF state parameter.
func (s *googleOAuthHandlerService) GenerateStateString(ctx context.Context) (string, error) {
	state, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate state string for OAuth: %w", err)
	}
	return state, nil
}

// GetGoogleLoginURL returns the URL to redirect the user to for Google login.
func (s *googleOAuthHandlerService) GetGoogleLoginURL(ctx context.Context, state string) string {
	return s.oauth2Config.AuthCodeURL(state)
}

// ExchangeCodeForToken exchanges an OAuth authorization code for a token.
func (s *googleOAuthHandlerService) ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code for token: %w", err)
	}
	return token, nil
}

// GetUserInfo uses the access token to get user information from Google.
func (s *googleOAuthHandlerService) GetUserInfo(ctx context.Context, token *oauth2.Token) (*domain.GoogleUserInfo, error) {
	client := s.oauth2Config.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info from google: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned non-200 status for userinfo: %s", resp.Status)
	}

	var userInfo domain.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info from google: %w", err)
	}
	return &userInfo, nil
}

// ValidateGoogleIDToken validates an ID token received from Google.
func (s *googleOAuthHandlerService) ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*idtoken.Payload, error) {
	if s.cfg.GoogleClientID == "" {
		return nil, errors.New("google client ID is not configured")
	}
	payload, err := idtoken.Validate(ctx, idTokenString, s.cfg.GoogleClientID)
	if err != nil {
		return nil, fmt.Errorf("google ID token validation failed: %w", err)
	}
	return payload, nil
}
