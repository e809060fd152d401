package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"explorecore/internal/domain"
)

// CreateRun inserts a queued run and its job in one transaction.
func (db *DB) CreateRun(ctx context.Context, run domain.ExplorationRun) (runID string, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", eris.Wrap(err, "postgres: begin create run")
	}
	defer finishTx(ctx, tx, &err)

	err = tx.QueryRow(ctx, `
		INSERT INTO exploration_runs (target_url, registrable_domain, flow_type, instructions, plan_tier, god_mode, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'queued')
		RETURNING id::text
	`, run.TargetURL, strings.ToLower(run.RegistrableDomain), string(run.FlowType), run.Instructions, run.PlanTier, run.GodMode).Scan(&runID)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert run")
	}
	if _, err = tx.Exec(ctx, `INSERT INTO exploration_jobs (run_id) VALUES ($1)`, runID); err != nil {
		return "", eris.Wrap(err, "postgres: insert job")
	}
	return runID, nil
}

func (db *DB) GetRun(ctx context.Context, runID string) (domain.ExplorationRun, error) {
	var (
		run    domain.ExplorationRun
		status string
		flow   string
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT id::text, status, target_url, registrable_domain, flow_type, instructions, plan_tier, god_mode,
		       error, started_at, created_at, updated_at
		FROM exploration_runs
		WHERE id = $1
	`, runID).Scan(&run.ID, &status, &run.TargetURL, &run.RegistrableDomain, &flow, &run.Instructions,
		&run.PlanTier, &run.GodMode, &run.Error, &run.StartedAt, &run.CreatedAt, &run.UpdatedAt)
	if notFound(err) {
		return run, ErrNotFound
	}
	if err != nil {
		return run, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	run.Status = domain.RunStatus(status)
	run.FlowType = domain.FlowType(flow)
	return run, nil
}

// UpdateRunStatus is the direct lifecycle write. started_at is stamped the
// first time a run becomes running.
func (db *DB) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, errMsg *string, at time.Time) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE exploration_runs
		SET status = $2,
		    error = $3,
		    updated_at = $4,
		    started_at = CASE WHEN $2 = 'running' THEN COALESCE(started_at, $4) ELSE started_at END
		WHERE id = $1
	`, runID, string(status), errMsg, at)
	if notFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s status", runID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
