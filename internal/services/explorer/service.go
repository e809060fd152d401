package explorer

import (
	"context"
	"net/netip"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/publicsuffix"

	"explorecore/internal/domain"
	"explorecore/internal/ports"
)

// ErrInvalidJob is returned for jobs that cannot even be queued.
var ErrInvalidJob = eris.New("invalid job")

type Service struct {
	runs ports.RunRepository
}

func New(runs ports.RunRepository) *Service {
	return &Service{runs: runs}
}

// Enqueue records a queued run for job. The target is not validated here;
// workers gate every run before it starts.
func (s *Service) Enqueue(ctx context.Context, job domain.JobData) (string, error) {
	job.URL = strings.TrimSpace(job.URL)
	if job.URL == "" {
		return "", eris.Wrap(ErrInvalidJob, "url is required")
	}
	switch job.FlowType {
	case domain.FlowGuest, domain.FlowAuthenticated:
	case "":
		job.FlowType = domain.FlowGuest
	default:
		return "", eris.Wrapf(ErrInvalidJob, "unknown flow type %q", job.FlowType)
	}

	run := domain.ExplorationRun{
		TargetURL:         job.URL,
		RegistrableDomain: registrableDomain(job.URL),
		FlowType:          job.FlowType,
		Instructions:      job.Instructions,
		PlanTier:          job.PlanTier,
		GodMode:           job.GodMode,
	}
	id, err := s.runs.CreateRun(ctx, run)
	if err != nil {
		return "", eris.Wrap(err, "explorer: create run")
	}
	return id, nil
}

func (s *Service) Get(ctx context.Context, runID string) (domain.ExplorationRun, error) {
	return s.runs.GetRun(ctx, runID)
}

func registrableDomain(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if _, err := netip.ParseAddr(host); err == nil {
		return host
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}
