package services

import (
	"context"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

// AuthSvcFacade handles registration and credential login. Registration
// creates the company and its first admin user atomically.
type AuthSvcFacade interface {
	// Register creates a new company plus its admin user.
	Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, *domain.Company, error)

	// Login authenticates with email and password.
	Login(ctx context.Context, req dto.LoginRequest) (*domain.User, error)
}

// TokenSvcFacade issues and validates tokens.
type TokenSvcFacade interface {
	// GenerateAccessToken creates a signed JWT access token for the user.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// GenerateRefreshToken creates, stores (hashed) and returns a refresh token.
	GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// ValidateAndParseRefreshToken checks a presented refresh token
	// against the stored hash and returns the owning user.
	ValidateAndParseRefreshToken(ctx context.Context, userID string, refreshToken string) (*domain.User, error)
}

// GoogleOAuthHandlerSvcFacade wraps the Google sign-in flow.
type GoogleOAuthHandlerSvcFacade interface {
	// GenerateStateString creates the anti-CSRF state parameter.
	GenerateStateString(ctx context.Context) (string, error)

	// GetGoogleLoginURL builds the consent-screen redirect URL.
	GetGoogleLoginURL(ctx context.Context, state string) string

	// ExchangeCodeForToken swaps the authorization code for tokens.
	ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error)

	// GetUserInfo extracts the Google profile from the token's ID token.
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*domain.GoogleUserInfo, error)

	// ValidateGoogleIDToken verifies a raw ID token against Google's keys.
	ValidateGoogleIDToken(ctx context.Context, idToken string) (*idtoken.Payload, error)
}
