package dto

import (
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCompanyRequest defines the data needed to create a company.
type CreateCompanyRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=200"`
	LegalName string `json:"legalName"`
	Country   string `json:"country" binding:"required"`
	Currency  string `json:"currency" binding:"required,len=3,uppercase"`
	Timezone  string `json:"timezone"`
}

// UpdateCompanyRequest defines the profile fields a company admin may change.
type UpdateCompanyRequest struct {
	Name      *string `json:"name"`
	LegalName *string `json:"legalName"`
	Country   *string `json:"country"`
	Timezone  *string `json:"timezone"`
}

// UpdateCompanySettingsRequest replaces the company's approval and
// reminder settings. The whole block is submitted at once so a partial
// edit can never leave the flow configuration inconsistent.
type UpdateCompanySettingsRequest struct {
	StageRoles            []domain.Role   `json:"stageRoles" binding:"required,min=1"`
	ConsensusPercentage   int             `json:"consensusPercentage" binding:"required,min=1,max=100"`
	AutoApproveThreshold  decimal.Decimal `json:"autoApproveThreshold"`
	ReminderScheduleHours int             `json:"reminderScheduleHours" binding:"required,min=1,max=168"`
	RequireReceipt        bool            `json:"requireReceipt"`
}

// CompanyResponse defines the company data returned by the API.
type CompanyResponse struct {
	CompanyID string                 `json:"companyID"`
	Name      string                 `json:"name"`
	LegalName string                 `json:"legalName,omitempty"`
	Country   string                 `json:"country"`
	Currency  string                 `json:"currency"`
	Timezone  string                 `json:"timezone"`
	Settings  domain.CompanySettings `json:"settings"`
}

// ToCompanyResponse converts a domain.Company to CompanyResponse.
func ToCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		CompanyID: c.CompanyID,
		Name:      c.Name,
		LegalName: c.LegalName,
		Country:   c.Country,
		Currency:  c.Currency,
		Timezone:  c.Timezone,
		Settings:  c.Settings,
	}
}
