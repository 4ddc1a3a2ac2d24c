package models

import (
	"database/sql"
	"time"
)

// User is the database row for a user.
type User struct {
	UserID       string         `db:"user_id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Role         string         `db:"role"`
	CompanyID    string         `db:"company_id"`
	Department   sql.NullString `db:"department"`
	IsActive     bool           `db:"is_active"`
	PasswordHash sql.NullString `db:"password_hash"`

	AuthProvider   string         `db:"auth_provider"`
	ProviderUserID sql.NullString `db:"provider_user_id"`

	RefreshTokenHash       sql.NullString `db:"refresh_token_hash"`
	RefreshTokenExpiryTime sql.NullTime   `db:"refresh_token_expiry_time"`

	AuditFields
	DeletedAt *time.Time `db:"deleted_at"`
}
