package repositories

import (
	"context"

	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// CompanyReader defines read operations for company data
type CompanyReader interface {
	// FindCompanyByID retrieves a company by its ID.
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)

	// ListCompanies retrieves all companies. Used by the reminder scan.
	ListCompanies(ctx context.Context) ([]domain.Company, error)
}

// CompanyWriter defines write operations for company data
type CompanyWriter interface {
	// SaveCompany persists a new company.
	SaveCompany(ctx context.Context, company domain.Company) error

	// SaveCompanyInTx persists a new company within tx. Used by the
	// registration bootstrap so the company and its admin user commit
	// together.
	SaveCompanyInTx(ctx context.Context, tx pgx.Tx, company domain.Company) error

	// UpdateCompany updates a company's profile fields.
	UpdateCompany(ctx context.Context, company domain.Company) error

	// UpdateCompanySettings replaces a company's settings.
	UpdateCompanySettings(ctx context.Context, companyID string, settings domain.CompanySettings, updatedBy string) error
}

// CompanyRepositoryFacade combines all company-related repository interfaces
type CompanyRepositoryFacade interface {
	CompanyReader
	CompanyWriter
}

// CompanyRepositoryWithTx couples the company repository with transaction management
type CompanyRepositoryWithTx interface {
	CompanyRepositoryFacade
	TransactionManager
}
