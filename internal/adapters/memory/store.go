// Package memory is an in-process run store and job queue for local runs and
// tests. It implements the same ports as the Postgres adapter.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"explorecore/internal/domain"
	"explorecore/internal/ports"
)

var ErrNotFound = ports.ErrNotFound

type jobRecord struct {
	id       string
	runID    string
	status   string
	attempts int
	reason   string
}

type Store struct {
	mu   sync.Mutex
	now  func() time.Time
	runs map[string]domain.ExplorationRun
	jobs []*jobRecord
}

func New() *Store {
	return &Store{now: time.Now, runs: map[string]domain.ExplorationRun{}}
}

func (s *Store) CreateRun(_ context.Context, run domain.ExplorationRun) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	run.ID = uuid.NewString()
	run.Status = domain.StatusQueued
	run.CreatedAt = now
	run.UpdatedAt = now
	s.runs[run.ID] = run
	s.jobs = append(s.jobs, &jobRecord{id: uuid.NewString(), runID: run.ID, status: "queued"})
	return run.ID, nil
}

func (s *Store) GetRun(_ context.Context, runID string) (domain.ExplorationRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.ExplorationRun{}, ErrNotFound
	}
	return run, nil
}

func (s *Store) UpdateRunStatus(_ context.Context, runID string, status domain.RunStatus, errMsg *string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	run.Error = errMsg
	run.UpdatedAt = at
	if status == domain.StatusRunning && run.StartedAt == nil {
		started := at
		run.StartedAt = &started
	}
	s.runs[runID] = run
	return nil
}

func (s *Store) ClaimNext(_ context.Context) (ports.ExploreJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.status == "queued" {
			return s.claim(j), true, nil
		}
	}
	return ports.ExploreJob{}, false, nil
}

func (s *Store) ClaimForRun(_ context.Context, runID string) (ports.ExploreJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.runID == runID && j.status == "queued" {
			return s.claim(j), nil
		}
	}
	return ports.ExploreJob{}, ErrNotFound
}

func (s *Store) claim(j *jobRecord) ports.ExploreJob {
	j.status = "claimed"
	j.attempts++
	return ports.ExploreJob{ID: j.id, RunID: j.runID, Data: s.runs[j.runID].Job()}
}

func (s *Store) MarkCompleted(_ context.Context, jobID string) error {
	return s.finish(jobID, "completed", "")
}

func (s *Store) MarkFailed(_ context.Context, jobID string, reason string) error {
	return s.finish(jobID, "failed", reason)
}

func (s *Store) finish(jobID, status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.id == jobID {
			j.status = status
			j.reason = reason
			return nil
		}
	}
	return ErrNotFound
}

// JobStatus returns the queue status of the job belonging to runID.
func (s *Store) JobStatus(runID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.runID == runID {
			return j.status, true
		}
	}
	return "", false
}
