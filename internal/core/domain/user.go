package domain

import "time"

// Role defines the possible roles a user can have within a company.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleFinance  Role = "FINANCE"
	RoleAdmin    Role = "ADMIN"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleFinance, RoleAdmin:
		return true
	}
	return false
}

// CanApprove reports whether users holding this role may appear in an
// approval flow stage. Employees submit expenses but never review them.
func (r Role) CanApprove() bool {
	switch r {
	case RoleManager, RoleFinance, RoleAdmin:
		return true
	}
	return false
}

// Auth providers.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents an employee or approver belonging to a company.
type User struct {
	UserID       string  `json:"userID"` // Primary Key (UUID)
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         Role    `json:"role"`
	CompanyID    string  `json:"companyID"` // FK -> companies.company_id
	Department   string  `json:"department,omitempty"`
	IsActive     bool    `json:"isActive"`
	PasswordHash *string `json:"-"` // nil for externally-authenticated users
	AuthProvider string  `json:"authProvider"`
	// ProviderUserID is the subject claim from the external provider, empty for local users.
	ProviderUserID string `json:"-"`

	// Refresh token state, stored hashed.
	RefreshTokenHash       *string    `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`

	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Used for soft delete
}

// GoogleUserInfo holds the subset of the Google profile used for sign-in.
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}
