package explorerunner

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"explorecore/internal/ports"
)

const finishTimeout = 5 * time.Second

// detached returns a context that outlives ctx's cancellation, for the
// bookkeeping writes that close out a run.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
}

// Run polls for queued jobs and processes them with concurrency workers until
// ctx is cancelled. It returns once every worker has exited.
func Run(ctx context.Context, repo ports.JobRepository, processor JobProcessor, concurrency int, pollInterval time.Duration) error {
	if concurrency < 1 {
		return nil
	}
	log := zap.L().Named("explorerunner")
	jobsCh := make(chan ports.ExploreJob, concurrency)
	g, ctx := errgroup.WithContext(ctx)

	// dispatcher loop
	g.Go(func() error {
		defer close(jobsCh)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			for {
				job, found, err := repo.ClaimNext(ctx)
				if err != nil {
					if ctx.Err() == nil {
						log.Warn("job claim error", zap.Error(err))
					}
					break
				}
				if !found {
					break
				}
				// Workers drain jobsCh until it is closed, so a claimed job is
				// always handed over; after cancellation it is closed out as failed.
				jobsCh <- job
				if ctx.Err() != nil {
					return nil
				}
			}
		}
	})

	for i := 0; i < concurrency; i++ {
		idx := i
		g.Go(func() error {
			for job := range jobsCh {
				finish(ctx, repo, processor, job, log.With(zap.Int("worker", idx)))
			}
			return nil
		})
	}
	return g.Wait()
}

func finish(ctx context.Context, repo ports.JobRepository, processor JobProcessor, job ports.ExploreJob, log *zap.Logger) {
	out, err := processor.Process(ctx, job)
	wctx, cancel := detached(ctx)
	defer cancel()
	if err != nil {
		log.Warn("job failed", zap.String("job_id", job.ID), zap.String("run_id", job.RunID), zap.Error(err))
		if merr := repo.MarkFailed(wctx, job.ID, err.Error()); merr != nil {
			log.Warn("mark job failed", zap.String("job_id", job.ID), zap.Error(merr))
		}
		return
	}
	if err := repo.MarkCompleted(wctx, job.ID); err != nil {
		log.Warn("complete job", zap.String("job_id", job.ID), zap.Error(err))
	}
	log.Debug("job done", zap.String("run_id", job.RunID), zap.String("status", string(out.Status)))
}

// ProcessInline claims and processes the queued job of runID synchronously,
// using the same processor the background workers use.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor JobProcessor, runID string) (Outcome, error) {
	job, err := repo.ClaimForRun(ctx, runID)
	if err != nil {
		return Outcome{}, err
	}
	out, err := processor.Process(ctx, job)
	wctx, cancel := detached(ctx)
	defer cancel()
	if err != nil {
		if merr := repo.MarkFailed(wctx, job.ID, err.Error()); merr != nil {
			zap.L().Named("explorerunner").Warn("mark job failed",
				zap.String("job_id", job.ID), zap.String("run_id", runID), zap.Error(merr))
		}
		return out, err
	}
	return out, repo.MarkCompleted(wctx, job.ID)
}
