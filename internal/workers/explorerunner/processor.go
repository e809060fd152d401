package explorerunner

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"explorecore/internal/domain"
	"explorecore/internal/exertion"
	"explorecore/internal/flow"
	"explorecore/internal/lifecycle"
	"explorecore/internal/ports"
)

// JobProcessor performs the work for one claimed job.
type JobProcessor interface {
	Process(ctx context.Context, job ports.ExploreJob) (Outcome, error)
}

// Outcome is what happened to a run.
type Outcome struct {
	Status  domain.RunStatus
	Verdict domain.ValidationResult
	Report  *domain.ExertionReport
}

// Processor gates, runs and scores one exploration: select the profile,
// validate the target, start the run, hand it to the agent, score the trace.
type Processor struct {
	Validator ports.URLValidator
	Selector  *flow.Selector
	Scorer    *exertion.Scorer
	Lifecycle *lifecycle.Manager
	Agent     ports.Agent
	Reports   ports.ReportSink
	Log       *zap.Logger
	Now       func() time.Time
}

func (p *Processor) Process(ctx context.Context, job ports.ExploreJob) (Outcome, error) {
	log := p.logger().With(zap.String("run_id", job.RunID), zap.String("job_id", job.ID))
	if err := ctx.Err(); err != nil {
		p.finalStatus(ctx, job.RunID, domain.StatusFailed, "cancelled before start")
		return Outcome{Status: domain.StatusFailed}, eris.Wrap(err, "explorerunner: run not started")
	}
	profile := p.Selector.Select(job.Data)

	verdict := p.Validator.Validate(ctx, job.Data.URL)
	if !verdict.Safe {
		log.Info("target rejected", zap.String("url", job.Data.URL), zap.String("reason", verdict.Reason))
		p.finalStatus(ctx, job.RunID, domain.StatusBlocked, verdict.Reason)
		return Outcome{Status: domain.StatusBlocked, Verdict: verdict}, nil
	}
	if err := p.Lifecycle.MarkStarted(ctx, job.RunID, profile.Flow, job.Data.URL, verdict); err != nil {
		return Outcome{Verdict: verdict}, err
	}

	start := p.now()
	res, err := p.Agent.Explore(ctx, ports.ExploreRequest{
		RunID:            job.RunID,
		URL:              job.Data.URL,
		Instructions:     job.Data.Instructions,
		MaxSteps:         profile.MaxSteps,
		SkipDiagnosis:    profile.SkipDiagnosis,
		RequiresApproval: profile.RequiresApproval,
	})
	end := p.now()

	final, errMsg := res.Status, res.Error
	if err != nil {
		final, errMsg = domain.FinalFailed, err.Error()
	}
	if final == "" {
		final = domain.FinalSuccess
	}
	if len(res.Steps) > profile.MaxSteps {
		log.Warn("agent exceeded step budget", zap.Int("steps", len(res.Steps)), zap.Int("max_steps", profile.MaxSteps))
	}

	report := p.Scorer.Calculate(res.Steps, start, end, final)
	if p.Reports != nil {
		rctx, cancel := detached(ctx)
		perr := p.Reports.Publish(rctx, job.RunID, report)
		cancel()
		if perr != nil {
			log.Warn("failed to publish exertion report", zap.Error(perr))
		}
	}

	out := Outcome{Status: domain.StatusCompleted, Verdict: verdict, Report: &report}
	if final == domain.FinalFailed {
		if errMsg == "" {
			errMsg = "exploration failed"
		}
		out.Status = domain.StatusFailed
		p.finalStatus(ctx, job.RunID, domain.StatusFailed, errMsg)
		if err != nil {
			return out, eris.Wrap(err, "explorerunner: agent")
		}
		return out, nil
	}
	p.finalStatus(ctx, job.RunID, domain.StatusCompleted, "")
	return out, nil
}

// finalStatus writes a terminal status even when ctx is already done, so a
// timed-out or shut-down run does not stay running.
func (p *Processor) finalStatus(ctx context.Context, runID string, status domain.RunStatus, errMsg string) {
	wctx, cancel := detached(ctx)
	defer cancel()
	p.Lifecycle.UpdateStatus(wctx, runID, status, errMsg)
}

func (p *Processor) logger() *zap.Logger {
	if p.Log != nil {
		return p.Log
	}
	return zap.L()
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// LogReportSink hands reports to the reporting layer through structured logs.
type LogReportSink struct {
	Log *zap.Logger
}

func (s LogReportSink) Publish(_ context.Context, runID string, report domain.ExertionReport) error {
	log := s.Log
	if log == nil {
		log = zap.L()
	}
	log.Info("exertion report",
		zap.String("run_id", runID),
		zap.Int("confidence_score", report.ConfidenceScore),
		zap.String("confidence_level", string(report.ConfidenceLevel)),
		zap.String("termination_reason", string(report.TerminationReason)),
		zap.Any("report", report),
	)
	return nil
}
