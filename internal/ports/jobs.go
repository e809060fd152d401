package ports

import (
	"context"

	"explorecore/internal/domain"
)

type ExploreJob struct {
	ID    string
	RunID string
	Data  domain.JobData
}

// JobRepository supports claiming and finishing exploration jobs. Claiming a
// job never touches the run status; runs only become running after their
// target has been validated.
type JobRepository interface {
	ClaimNext(ctx context.Context) (job ExploreJob, found bool, err error)
	ClaimForRun(ctx context.Context, runID string) (job ExploreJob, err error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
}
