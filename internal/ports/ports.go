package ports

import (
	"context"

	"explorecore/internal/domain"
)

// Explorer enqueues exploration runs and reports their state.
type Explorer interface {
	Enqueue(ctx context.Context, job domain.JobData) (runID string, err error)
	Get(ctx context.Context, runID string) (domain.ExplorationRun, error)
}

// URLValidator gates target URLs before any navigation happens.
type URLValidator interface {
	Validate(ctx context.Context, rawurl string) domain.ValidationResult
}

// ExploreRequest is what a worker hands the browser agent once a run is cleared.
type ExploreRequest struct {
	RunID            string
	URL              string
	Instructions     string
	MaxSteps         int
	SkipDiagnosis    bool
	RequiresApproval func(action string) bool
}

// ExploreResult is the agent's trace and verdict.
type ExploreResult struct {
	Steps  []domain.StepRecord
	Status domain.FinalStatus
	Error  string
}

// Agent drives the browser. It lives outside this module.
type Agent interface {
	Explore(ctx context.Context, req ExploreRequest) (ExploreResult, error)
}

// ReportSink receives finished exertion reports for the reporting layer.
type ReportSink interface {
	Publish(ctx context.Context, runID string, report domain.ExertionReport) error
}
