// Package lifecycle records exploration run status transitions. Writes are
// best-effort: a store outage is logged and never aborts the run.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"explorecore/internal/domain"
	"explorecore/internal/resilience"
)

// ErrNotValidated is returned by MarkStarted when the target was not cleared.
var ErrNotValidated = eris.New("lifecycle: target not validated as safe")

const defaultTrackedRuns = 4096

type Manager struct {
	sink  RunStatusSink
	log   *zap.Logger
	retry resilience.RetryConfig
	now   func() time.Time

	mu   sync.Mutex
	last *lru.Cache[string, domain.RunStatus]
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

func WithRetry(cfg resilience.RetryConfig) Option { return func(m *Manager) { m.retry = cfg } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(sink RunStatusSink, opts ...Option) *Manager {
	last, _ := lru.New[string, domain.RunStatus](defaultTrackedRuns)
	m := &Manager{
		sink:  sink,
		log:   zap.L(),
		retry: resilience.DefaultRetryConfig(),
		now:   time.Now,
		last:  last,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UpdateStatus records a transition for runID. Illegal transitions are logged
// and dropped; persistence failures are retried when transient, then logged.
// It never returns an error and never panics.
func (m *Manager) UpdateStatus(ctx context.Context, runID string, status domain.RunStatus, errMsg string) {
	m.mu.Lock()
	from, ok := m.last.Get(runID)
	if !ok {
		from = domain.StatusQueued
	}
	if !CanTransition(from, status) {
		m.mu.Unlock()
		m.log.Warn("lifecycle: rejected status transition",
			zap.String("run_id", runID),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
		)
		return
	}
	m.last.Add(runID, status)
	m.mu.Unlock()

	u := StatusUpdate{RunID: runID, Status: status, UpdatedAt: m.now().UTC()}
	if errMsg != "" {
		u.Error = &errMsg
	}
	cfg := m.retry
	cfg.OnRetry = resilience.RetryLogger(m.log, "lifecycle.update_status")
	if err := resilience.Do(ctx, cfg, func(ctx context.Context) error { return m.write(ctx, u) }); err != nil {
		m.log.Warn("lifecycle: failed to persist run status",
			zap.String("run_id", runID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

func (m *Manager) write(ctx context.Context, u StatusUpdate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.New(fmt.Sprintf("lifecycle: sink panicked: %v", r))
		}
	}()
	return m.sink.Write(ctx, u)
}

// MarkStarted moves runID to running. The verdict must be safe; otherwise
// nothing is written and ErrNotValidated is returned.
func (m *Manager) MarkStarted(ctx context.Context, runID string, flow domain.FlowType, url string, verdict domain.ValidationResult) error {
	if !verdict.Safe {
		m.log.Warn("lifecycle: refusing to start unvalidated run",
			zap.String("run_id", runID),
			zap.String("url", url),
			zap.String("reason", verdict.Reason),
		)
		return ErrNotValidated
	}
	m.log.Info("lifecycle: run started",
		zap.String("run_id", runID),
		zap.String("flow", string(flow)),
		zap.String("url", url),
	)
	m.UpdateStatus(ctx, runID, domain.StatusRunning, "")
	return nil
}

// Status returns the last status this manager recorded for runID.
func (m *Manager) Status(runID string) (domain.RunStatus, bool) {
	return m.last.Get(runID)
}
