package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"explorecore/internal/domain"
)

func TestSelect_GuestIsCappedAndAutoApproved(t *testing.T) {
	s := NewSelector(DefaultConfig())
	jobs := []domain.JobData{
		{URL: "https://example.com", FlowType: domain.FlowGuest},
		{URL: "https://example.com", FlowType: domain.FlowGuest, GodMode: true, PlanTier: "enterprise"},
		{URL: "https://example.com", FlowType: "something-else", GodMode: true},
		{URL: "https://example.com"},
	}
	for _, job := range jobs {
		p := s.Select(job)
		assert.Equal(t, domain.FlowGuest, p.Flow)
		assert.Equal(t, 10, p.MaxSteps)
		assert.True(t, p.SkipDiagnosis)
		assert.Equal(t, ApprovalAuto, p.Approval)
		for _, action := range []string{"click", "type", "navigate", "submit", ""} {
			assert.False(t, p.RequiresApproval(action))
		}
	}
}

func TestSelect_GuestIgnoresConfiguredBudgets(t *testing.T) {
	s := NewSelector(Config{StepBudgets: map[string]int{"free": 3}})
	assert.Equal(t, GuestMaxSteps, s.Select(domain.JobData{FlowType: domain.FlowGuest}).MaxSteps)
}

func TestSelect_Authenticated(t *testing.T) {
	s := NewSelector(DefaultConfig())

	p := s.Select(domain.JobData{FlowType: domain.FlowAuthenticated, PlanTier: "Pro"})
	assert.Equal(t, domain.FlowAuthenticated, p.Flow)
	assert.Equal(t, 50, p.MaxSteps)
	assert.False(t, p.SkipDiagnosis)
	assert.False(t, p.RequiresApproval("click"))

	p = s.Select(domain.JobData{FlowType: domain.FlowAuthenticated, PlanTier: "enterprise", GodMode: true})
	assert.Equal(t, 100, p.MaxSteps)
	assert.Equal(t, ApprovalHuman, p.Approval)
	assert.True(t, p.RequiresApproval("click"))

	p = s.Select(domain.JobData{FlowType: domain.FlowAuthenticated, PlanTier: "platinum"})
	assert.Equal(t, 25, p.MaxSteps)
}

func TestSelect_CustomBudgets(t *testing.T) {
	s := NewSelector(Config{StepBudgets: map[string]int{"team": 70, "starter": 15}, DefaultTier: "starter"})
	assert.Equal(t, 70, s.Select(domain.JobData{FlowType: domain.FlowAuthenticated, PlanTier: "team"}).MaxSteps)
	assert.Equal(t, 15, s.Select(domain.JobData{FlowType: domain.FlowAuthenticated}).MaxSteps)
}
