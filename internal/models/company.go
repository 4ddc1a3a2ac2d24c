package models

import "database/sql"

// Company is the database row for a company. Settings are stored as one
// JSONB document; the mapping layer marshals domain.CompanySettings.
type Company struct {
	CompanyID string         `db:"company_id"`
	Name      string         `db:"name"`
	LegalName sql.NullString `db:"legal_name"`
	Country   string         `db:"country"`
	Currency  string         `db:"currency"`
	Timezone  string         `db:"timezone"`
	Settings  []byte         `db:"settings"` // JSONB
	AuditFields
}
