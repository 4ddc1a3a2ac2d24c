package services

import (
	"context"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
)

// CompanyReaderSvc defines read operations for company data
type CompanyReaderSvc interface {
	// GetCompanyByID retrieves a company by its ID.
	GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
}

// CompanyWriterSvc defines write operations for company data
type CompanyWriterSvc interface {
	// CreateCompany creates a new company with default settings.
	CreateCompany(ctx context.Context, req dto.CreateCompanyRequest, creatorUserID string) (*domain.Company, error)

	// UpdateCompany updates a company's profile fields.
	UpdateCompany(ctx context.Context, companyID string, req dto.UpdateCompanyRequest, requestingUserID string) (*domain.Company, error)

	// UpdateSettings validates and replaces a company's approval and
	// reminder settings.
	UpdateSettings(ctx context.Context, companyID string, req dto.UpdateCompanySettingsRequest, requestingUserID string) (*domain.Company, error)
}

// CompanySvcFacade combines all company-related service interfaces
type CompanySvcFacade interface {
	CompanyReaderSvc
	CompanyWriterSvc
}
