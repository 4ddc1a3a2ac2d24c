package dto

import "time"

// RegisterRequest creates a company together with its first admin user.
type RegisterRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	CompanyName string `json:"companyName" binding:"required,min=2,max=200"`
	Country     string `json:"country" binding:"required"`
	Currency    string `json:"currency" binding:"required,len=3,uppercase"`
	Timezone    string `json:"timezone"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// RefreshTokenResponse carries the re-issued access token.
type RefreshTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GoogleCallbackRequest carries a verified Google ID token from the client.
type GoogleCallbackRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}
