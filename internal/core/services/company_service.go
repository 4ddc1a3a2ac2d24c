package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/google/uuid"
)

// companyService manages company profiles and the approval settings the
// flow engine runs against.
type companyService struct {
	BaseService
	companyRepo portsrepo.CompanyRepositoryFacade
	userRepo    portsrepo.UserReader
}

// NewCompanyService creates a new company service with the given repositories.
func NewCompanyService(companyRepo portsrepo.CompanyRepositoryFacade, userRepo portsrepo.UserReader) portssvc.CompanySvcFacade {
	return &companyService{companyRepo: companyRepo, userRepo: userRepo}
}

var _ portssvc.CompanySvcFacade = (*companyService)(nil)

// GetCompanyByID retrieves a company by its ID.
func (s *companyService) GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	return s.companyRepo.FindCompanyByID(ctx, companyID)
}

// CreateCompany creates a new company with default settings.
func (s *companyService) CreateCompany(ctx context.Context, req dto.CreateCompanyRequest, creatorUserID string) (*domain.Company, error) {
	now := time.Now()
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	company := domain.Company{
		CompanyID: uuid.NewString(),
		Name:      req.Name,
		LegalName: req.LegalName,
		Country:   req.Country,
		Currency:  req.Currency,
		Timezone:  timezone,
		Settings:  domain.DefaultCompanySettings(),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.companyRepo.SaveCompany(ctx, company); err != nil {
		s.LogError(ctx, err, "Failed to save company", slog.String("name", req.Name))
		return nil, err
	}

	s.LogInfo(ctx, "Company created", slog.String("company_id", company.CompanyID))
	return &company, nil
}

// UpdateCompany updates a company's profile fields. Admin only. The
// company currency is fixed at creation and not editable here.
func (s *companyService) UpdateCompany(ctx context.Context, companyID string, req dto.UpdateCompanyRequest, requestingUserID string) (*domain.Company, error) {
	company, err := s.requireAdmin(ctx, companyID, requestingUserID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.LegalName != nil {
		company.LegalName = *req.LegalName
	}
	if req.Country != nil {
		company.Country = *req.Country
	}
	if req.Timezone != nil {
		company.Timezone = *req.Timezone
	}
	company.LastUpdatedAt = time.Now()
	company.LastUpdatedBy = requestingUserID

	if err := s.companyRepo.UpdateCompany(ctx, *company); err != nil {
		return nil, err
	}
	return company, nil
}

// UpdateSettings validates and replaces the company's approval and
// reminder settings. Expenses already in flight keep the flow they were
// initialized with; only future submissions see the new settings.
func (s *companyService) UpdateSettings(ctx context.Context, companyID string, req dto.UpdateCompanySettingsRequest, requestingUserID string) (*domain.Company, error) {
	company, err := s.requireAdmin(ctx, companyID, requestingUserID)
	if err != nil {
		return nil, err
	}

	settings := domain.CompanySettings{
		ApprovalFlowConfig: domain.ApprovalFlowConfig{
			StageRoles:           req.StageRoles,
			ConsensusPercentage:  req.ConsensusPercentage,
			AutoApproveThreshold: req.AutoApproveThreshold,
		},
		ReminderScheduleHours: req.ReminderScheduleHours,
		RequireReceipt:        req.RequireReceipt,
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	if err := s.companyRepo.UpdateCompanySettings(ctx, companyID, settings, requestingUserID); err != nil {
		s.LogError(ctx, err, "Failed to update company settings", slog.String("company_id", companyID))
		return nil, err
	}

	company.Settings = settings
	company.LastUpdatedAt = time.Now()
	company.LastUpdatedBy = requestingUserID

	s.LogInfo(ctx, "Company settings updated", slog.String("company_id", companyID))
	return company, nil
}

func (s *companyService) requireAdmin(ctx context.Context, companyID string, requestingUserID string) (*domain.Company, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if requester.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	if requester.Role != domain.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}
	return s.companyRepo.FindCompanyByID(ctx, companyID)
}
