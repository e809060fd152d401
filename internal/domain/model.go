package domain

import "time"

// Core domain models shared by the validator, scorer, lifecycle manager and
// adapters. HTTP payloads reuse these directly; keep JSON tags stable since the
// dashboard reads them.

// RunStatus is the lifecycle state of an exploration run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusBlocked   RunStatus = "blocked"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether no further transitions are allowed out of s.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusBlocked, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// FlowType selects the execution profile for a run.
type FlowType string

const (
	FlowGuest         FlowType = "guest"
	FlowAuthenticated FlowType = "authenticated"
)

// FinalStatus is the agent's own verdict for a finished run.
type FinalStatus string

const (
	FinalSuccess FinalStatus = "success"
	FinalFailed  FinalStatus = "failed"
)

// ValidationResult is the verdict on a candidate target URL. Reason is always
// set when Safe is false.
type ValidationResult struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
}

// Safe returns an allowing verdict.
func Safe() ValidationResult { return ValidationResult{Safe: true} }

// Unsafe returns a rejecting verdict with the given reason.
func Unsafe(reason string) ValidationResult {
	if reason == "" {
		reason = "rejected"
	}
	return ValidationResult{Safe: false, Reason: reason}
}

// JobData is what the scheduler hands a worker.
type JobData struct {
	URL          string   `json:"url"`
	FlowType     FlowType `json:"flowType"`
	Instructions string   `json:"instructions,omitempty"`
	PlanTier     string   `json:"planTier,omitempty"`
	GodMode      bool     `json:"godMode,omitempty"`
}

type ExplorationRun struct {
	ID                string     `json:"id"`
	Status            RunStatus  `json:"status"`
	TargetURL         string     `json:"targetUrl"`
	RegistrableDomain string     `json:"registrableDomain,omitempty"`
	FlowType          FlowType   `json:"flowType"`
	Instructions      string     `json:"instructions,omitempty"`
	PlanTier          string     `json:"planTier,omitempty"`
	GodMode           bool       `json:"godMode,omitempty"`
	Error             *string    `json:"error,omitempty"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Job returns the scheduler payload the run was created from.
func (r ExplorationRun) Job() JobData {
	return JobData{
		URL:          r.TargetURL,
		FlowType:     r.FlowType,
		Instructions: r.Instructions,
		PlanTier:     r.PlanTier,
		GodMode:      r.GodMode,
	}
}

// StepMetadata carries the optional page context of a step.
type StepMetadata struct {
	URL     string `json:"url,omitempty"`
	PageURL string `json:"pageUrl,omitempty"`
}

// StepRecord is one atomic agent interaction (click, type, scroll, navigate...).
type StepRecord struct {
	Action    string       `json:"action"`
	Timestamp time.Time    `json:"timestamp"`
	Metadata  StepMetadata `json:"metadata"`
}

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

type TerminationReason string

const (
	TerminationComplete TerminationReason = "complete"
	TerminationError    TerminationReason = "error"
	TerminationBlocked  TerminationReason = "blocked"
)

// ExertionReport summarises how hard a run tried. It is derived per run and
// handed to the reporting layer; this module never stores it.
type ExertionReport struct {
	TotalSteps        int               `json:"totalSteps"`
	PagesVisited      int               `json:"pagesVisited"`
	FormsInteracted   int               `json:"formsInteracted"`
	ScrollingDistance int               `json:"scrollingDistance"`
	TotalDurationMs   int64             `json:"totalDurationMs"`
	ConfidenceScore   int               `json:"confidenceScore"`
	ConfidenceLevel   ConfidenceLevel   `json:"confidenceLevel"`
	TerminationReason TerminationReason `json:"terminationReason"`
	WeightsVersion    string            `json:"weightsVersion"`
}
