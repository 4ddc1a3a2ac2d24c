package mapping

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/expenseflow/expense_mgmt_app/internal/models"
)

// ToModelCompany converts a domain Company to a model Company, marshalling
// the settings block to JSON.
func ToModelCompany(d domain.Company) (models.Company, error) {
	settings, err := json.Marshal(d.Settings)
	if err != nil {
		return models.Company{}, fmt.Errorf("failed to marshal company settings: %w", err)
	}
	m := models.Company{
		CompanyID:   d.CompanyID,
		Name:        d.Name,
		Country:     d.Country,
		Currency:    d.Currency,
		Timezone:    d.Timezone,
		Settings:    settings,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
	if d.LegalName != "" {
		m.LegalName = sql.NullString{String: d.LegalName, Valid: true}
	}
	return m, nil
}

// ToDomainCompany converts a model Company to a domain Company.
func ToDomainCompany(m models.Company) (domain.Company, error) {
	var settings domain.CompanySettings
	if len(m.Settings) > 0 {
		if err := json.Unmarshal(m.Settings, &settings); err != nil {
			return domain.Company{}, fmt.Errorf("failed to unmarshal company settings: %w", err)
		}
	}
	d := domain.Company{
		CompanyID:   m.CompanyID,
		Name:        m.Name,
		Country:     m.Country,
		Currency:    m.Currency,
		Timezone:    m.Timezone,
		Settings:    settings,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if m.LegalName.Valid {
		d.LegalName = m.LegalName.String
	}
	return d, nil
}

// ToDomainCompanySlice converts a slice of model Companies to domain Companies.
func ToDomainCompanySlice(ms []models.Company) ([]domain.Company, error) {
	ds := make([]domain.Company, len(ms))
	for i, m := range ms {
		d, err := ToDomainCompany(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
