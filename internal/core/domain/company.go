package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyStageRoles      = errors.New("approval flow must contain at least one stage role")
	ErrInvalidStageRole     = errors.New("approval flow stage role cannot approve expenses")
	ErrDuplicateStageRole   = errors.New("approval flow stage roles must be distinct")
	ErrInvalidConsensus     = errors.New("consensus percentage must be between 1 and 100")
	ErrNegativeThreshold    = errors.New("auto-approve threshold cannot be negative")
	ErrInvalidReminderHours = errors.New("reminder schedule must be between 1 and 168 hours")
)

// ApprovalFlowConfig is the per-company approval policy the flow engine
// evaluates. It is read-only to the engine; changing it never rewrites
// flows already in flight.
type ApprovalFlowConfig struct {
	// StageRoles is the ordered list of roles an expense must clear,
	// one sequential stage per entry.
	StageRoles []Role `json:"stageRoles"`
	// ConsensusPercentage is the fraction (1-100) of a stage's roster
	// whose approval passes the stage.
	ConsensusPercentage int `json:"consensusPercentage"`
	// AutoApproveThreshold: expenses with a converted amount at or below
	// this skip human review entirely.
	AutoApproveThreshold decimal.Decimal `json:"autoApproveThreshold"`
}

// Validate checks the config is usable by the approval engine.
func (c ApprovalFlowConfig) Validate() error {
	if len(c.StageRoles) == 0 {
		return ErrEmptyStageRoles
	}
	// Stage identity is keyed by role, so a repeated role would merge two
	// conceptual stages into one roster.
	seen := make(map[Role]bool, len(c.StageRoles))
	for _, role := range c.StageRoles {
		if !role.CanApprove() {
			return fmt.Errorf("%w: %s", ErrInvalidStageRole, role)
		}
		if seen[role] {
			return fmt.Errorf("%w: %s", ErrDuplicateStageRole, role)
		}
		seen[role] = true
	}
	if c.ConsensusPercentage < 1 || c.ConsensusPercentage > 100 {
		return ErrInvalidConsensus
	}
	if c.AutoApproveThreshold.IsNegative() {
		return ErrNegativeThreshold
	}
	return nil
}

// RequiredApprovals returns how many approvals a stage roster of the given
// size needs to pass: ceil(rosterSize * percentage / 100), never below one.
func (c ApprovalFlowConfig) RequiredApprovals(rosterSize int) int {
	required := (rosterSize*c.ConsensusPercentage + 99) / 100
	if required < 1 {
		required = 1
	}
	return required
}

// CompanySettings bundles the approval policy with the company's
// operational knobs.
type CompanySettings struct {
	ApprovalFlowConfig
	// ReminderScheduleHours is how long a pending approval sits before
	// the reminder scan picks it up (1-168).
	ReminderScheduleHours int `json:"reminderScheduleHours"`
	RequireReceipt        bool `json:"requireReceipt"`
}

// Validate checks the settings, including the embedded approval config.
func (s CompanySettings) Validate() error {
	if err := s.ApprovalFlowConfig.Validate(); err != nil {
		return err
	}
	if s.ReminderScheduleHours < 1 || s.ReminderScheduleHours > 168 {
		return ErrInvalidReminderHours
	}
	return nil
}

// DefaultCompanySettings returns the settings a freshly registered company
// starts with.
func DefaultCompanySettings() CompanySettings {
	return CompanySettings{
		ApprovalFlowConfig: ApprovalFlowConfig{
			StageRoles:           []Role{RoleManager},
			ConsensusPercentage:  60,
			AutoApproveThreshold: decimal.NewFromInt(50),
		},
		ReminderScheduleHours: 24,
		RequireReceipt:        true,
	}
}

// Company represents a tenant: users belong to one company, and its
// settings drive the approval flow for every expense submitted under it.
type Company struct {
	CompanyID string          `json:"companyID"` // Primary Key (UUID)
	Name      string          `json:"name"`
	LegalName string          `json:"legalName,omitempty"`
	Country   string          `json:"country"`
	Currency  string          `json:"currency"` // ISO 4217 code, e.g. "USD"
	Timezone  string          `json:"timezone"`
	Settings  CompanySettings `json:"settings"`
	AuditFields
}
