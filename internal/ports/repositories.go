package ports

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"explorecore/internal/domain"
)

// ErrNotFound is returned by every store when a run or job does not exist.
var ErrNotFound = eris.New("not found")

// RunRepository creates and reads exploration run records.
type RunRepository interface {
	CreateRun(ctx context.Context, run domain.ExplorationRun) (runID string, err error)
	GetRun(ctx context.Context, runID string) (domain.ExplorationRun, error)
}

// RunStatusStore is the direct write path into the run-state store.
type RunStatusStore interface {
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, errMsg *string, at time.Time) error
}

// StateManager is a higher-level state abstraction some deployments put in
// front of the run-state store.
type StateManager interface {
	TransitionRun(ctx context.Context, runID string, status domain.RunStatus, errMsg *string) error
}
