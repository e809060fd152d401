// Package flow picks the execution profile a run is handed to the agent with.
package flow

import (
	"strings"

	"explorecore/internal/domain"
)

const GuestMaxSteps = 10

// ApprovalMode says who approves each proposed agent action.
type ApprovalMode string

const (
	ApprovalAuto  ApprovalMode = "auto"
	ApprovalHuman ApprovalMode = "human"
)

// Profile configures one run of the external agent.
type Profile struct {
	Flow          domain.FlowType `json:"flow"`
	MaxSteps      int             `json:"maxSteps"`
	SkipDiagnosis bool            `json:"skipDiagnosis"`
	Approval      ApprovalMode    `json:"approval"`
}

// RequiresApproval reports whether the agent must pause for a human before
// performing action. Auto-approved profiles never pause.
func (p Profile) RequiresApproval(action string) bool {
	return p.Approval == ApprovalHuman
}

type Config struct {
	// StepBudgets caps authenticated runs per plan tier. Guest runs always
	// get GuestMaxSteps.
	StepBudgets map[string]int `mapstructure:"step_budgets"`
	DefaultTier string         `mapstructure:"default_tier"`
}

func DefaultConfig() Config {
	return Config{
		StepBudgets: map[string]int{"free": 25, "pro": 50, "enterprise": 100},
		DefaultTier: "free",
	}
}

type Selector struct {
	cfg Config
}

func NewSelector(cfg Config) *Selector {
	def := DefaultConfig()
	if len(cfg.StepBudgets) == 0 {
		cfg.StepBudgets = def.StepBudgets
	}
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = def.DefaultTier
	}
	return &Selector{cfg: cfg}
}

// Select returns the profile for job. Unknown flow types get the guest
// profile, the most restrictive one.
func (s *Selector) Select(job domain.JobData) Profile {
	if job.FlowType != domain.FlowAuthenticated {
		return Profile{
			Flow:          domain.FlowGuest,
			MaxSteps:      GuestMaxSteps,
			SkipDiagnosis: true,
			Approval:      ApprovalAuto,
		}
	}
	p := Profile{
		Flow:     domain.FlowAuthenticated,
		MaxSteps: s.budget(job.PlanTier),
		Approval: ApprovalAuto,
	}
	if job.GodMode {
		p.Approval = ApprovalHuman
	}
	return p
}

func (s *Selector) budget(tier string) int {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if n, ok := s.cfg.StepBudgets[tier]; ok && n > 0 {
		return n
	}
	if n, ok := s.cfg.StepBudgets[s.cfg.DefaultTier]; ok && n > 0 {
		return n
	}
	return DefaultConfig().StepBudgets["free"]
}
