package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	"github.com/expenseflow/expense_mgmt_app/internal/models"
	"github.com/expenseflow/expense_mgmt_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const companyColumns = `
	company_id, name, legal_name, country, currency, timezone, settings,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxCompanyRepository struct {
	BaseRepository
}

func newPgxCompanyRepository(db *pgxpool.Pool) portsrepo.CompanyRepositoryWithTx {
	return &PgxCompanyRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.CompanyRepositoryWithTx = (*PgxCompanyRepository)(nil)

func scanCompany(row pgx.Row) (models.Company, error) {
	var m models.Company
	err := row.Scan(
		&m.CompanyID,
		&m.Name,
		&m.LegalName,
		&m.Country,
		&m.Currency,
		&m.Timezone,
		&m.Settings,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

const saveCompanyQuery = `
	INSERT INTO companies (
		company_id, name, legal_name, country, currency, timezone, settings,
		created_at, created_by, last_updated_at, last_updated_by
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`

func (r *PgxCompanyRepository) SaveCompany(ctx context.Context, company domain.Company) error {
	m, err := mapping.ToModelCompany(company)
	if err != nil {
		return err
	}
	_, err = r.Pool.Exec(ctx, saveCompanyQuery,
		m.CompanyID, m.Name, m.LegalName, m.Country, m.Currency, m.Timezone, m.Settings,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

func (r *PgxCompanyRepository) SaveCompanyInTx(ctx context.Context, tx pgx.Tx, company domain.Company) error {
	m, err := mapping.ToModelCompany(company)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, saveCompanyQuery,
		m.CompanyID, m.Name, m.LegalName, m.Country, m.Currency, m.Timezone, m.Settings,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save company in tx: %w", err)
	}
	return nil
}

func (r *PgxCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE company_id = $1;`
	m, err := scanCompany(r.Pool.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find company by ID %s: %w", companyID, err)
	}
	company, err := mapping.ToDomainCompany(m)
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *PgxCompanyRepository) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY created_at ASC;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	modelCompanies := []models.Company{}
	for rows.Next() {
		m, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		modelCompanies = append(modelCompanies, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating company rows: %w", rows.Err())
	}
	return mapping.ToDomainCompanySlice(modelCompanies)
}

func (r *PgxCompanyRepository) UpdateCompany(ctx context.Context, company domain.Company) error {
	m, err := mapping.ToModelCompany(company)
	if err != nil {
		return err
	}
	query := `
		UPDATE companies
		SET name = $1, legal_name = $2, country = $3, timezone = $4,
			last_updated_at = $5, last_updated_by = $6
		WHERE company_id = $7;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.Name, m.LegalName, m.Country, m.Timezone,
		m.LastUpdatedAt, m.LastUpdatedBy,
		m.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update company %s: %w", company.CompanyID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxCompanyRepository) UpdateCompanySettings(ctx context.Context, companyID string, settings domain.CompanySettings, updatedBy string) error {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal company settings: %w", err)
	}
	query := `
		UPDATE companies
		SET settings = $1, last_updated_at = $2, last_updated_by = $3
		WHERE company_id = $4;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, settingsJSON, time.Now(), updatedBy, companyID)
	if err != nil {
		return fmt.Errorf("failed to update settings for company %s: %w", companyID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
