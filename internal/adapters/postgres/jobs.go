package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"explorecore/internal/domain"
	"explorecore/internal/ports"
)

const claimColumns = `j.id::text, j.run_id::text, r.target_url, r.flow_type, r.instructions, r.plan_tier, r.god_mode`

// ClaimNext locks the oldest queued job with SKIP LOCKED and marks it claimed.
// The run itself stays queued until its target is validated.
func (db *DB) ClaimNext(ctx context.Context) (job ports.ExploreJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, eris.Wrap(err, "postgres: begin claim")
	}
	defer finishTx(ctx, tx, &err)

	job, err = scanJob(tx.QueryRow(ctx, `
		SELECT `+claimColumns+`
		FROM exploration_jobs j
		JOIN exploration_runs r ON r.id = j.run_id
		WHERE j.status = 'queued'
		ORDER BY j.queued_at
		FOR UPDATE OF j SKIP LOCKED
		LIMIT 1
	`))
	if errors.Is(err, pgx.ErrNoRows) {
		err = nil
		return job, false, nil
	}
	if err != nil {
		return job, false, eris.Wrap(err, "postgres: select next job")
	}
	if err = markClaimed(ctx, tx, job.ID); err != nil {
		return job, false, err
	}
	return job, true, nil
}

// ClaimForRun claims the queued job of a specific run.
func (db *DB) ClaimForRun(ctx context.Context, runID string) (job ports.ExploreJob, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, eris.Wrap(err, "postgres: begin claim")
	}
	defer finishTx(ctx, tx, &err)

	job, err = scanJob(tx.QueryRow(ctx, `
		SELECT `+claimColumns+`
		FROM exploration_jobs j
		JOIN exploration_runs r ON r.id = j.run_id
		WHERE j.run_id = $1 AND j.status = 'queued'
		FOR UPDATE OF j SKIP LOCKED
	`, runID))
	if notFound(err) {
		err = ErrNotFound
		return job, err
	}
	if err != nil {
		return job, eris.Wrapf(err, "postgres: select job for run %s", runID)
	}
	err = markClaimed(ctx, tx, job.ID)
	return job, err
}

func scanJob(row pgx.Row) (ports.ExploreJob, error) {
	var (
		job  ports.ExploreJob
		flow string
	)
	err := row.Scan(&job.ID, &job.RunID, &job.Data.URL, &flow, &job.Data.Instructions, &job.Data.PlanTier, &job.Data.GodMode)
	job.Data.FlowType = domain.FlowType(flow)
	return job, err
}

func markClaimed(ctx context.Context, tx pgx.Tx, jobID string) error {
	if _, err := tx.Exec(ctx, `
		UPDATE exploration_jobs SET status = 'claimed', started_at = now(), attempts = attempts + 1 WHERE id = $1
	`, jobID); err != nil {
		return eris.Wrapf(err, "postgres: claim job %s", jobID)
	}
	return nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	_, err := db.Pool.Exec(ctx, `UPDATE exploration_jobs SET status = 'completed', finished_at = now() WHERE id = $1`, jobID)
	return eris.Wrapf(err, "postgres: complete job %s", jobID)
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE exploration_jobs SET status = 'failed', last_error = $2, finished_at = now() WHERE id = $1
	`, jobID, reason)
	return eris.Wrapf(err, "postgres: fail job %s", jobID)
}
