package lifecycle

import (
	"context"
	"time"

	"explorecore/internal/domain"
	"explorecore/internal/ports"
)

// StatusUpdate is one persisted status change.
type StatusUpdate struct {
	RunID     string
	Status    domain.RunStatus
	Error     *string
	UpdatedAt time.Time
}

// RunStatusSink persists status updates. A Manager is built with exactly one.
type RunStatusSink interface {
	Write(ctx context.Context, u StatusUpdate) error
}

// StoreSink writes straight to the run-state store.
type StoreSink struct {
	store ports.RunStatusStore
}

func NewStoreSink(store ports.RunStatusStore) *StoreSink { return &StoreSink{store: store} }

func (s *StoreSink) Write(ctx context.Context, u StatusUpdate) error {
	return s.store.UpdateRunStatus(ctx, u.RunID, u.Status, u.Error, u.UpdatedAt)
}

// StateManagerSink hands updates to a state manager, which owns timestamps
// and the write itself.
type StateManagerSink struct {
	states ports.StateManager
}

func NewStateManagerSink(states ports.StateManager) *StateManagerSink {
	return &StateManagerSink{states: states}
}

func (s *StateManagerSink) Write(ctx context.Context, u StatusUpdate) error {
	return s.states.TransitionRun(ctx, u.RunID, u.Status, u.Error)
}
