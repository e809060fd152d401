package explorerunner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"explorecore/internal/domain"
	"explorecore/internal/ports"
)

// ProbeAgent is a stand-in for the browser agent used in local runs: it
// fetches the target once and reports a navigate step per page reached.
// Give it a client from urlsafety.NewHTTPClient so the fetch is pinned to
// validated addresses.
type ProbeAgent struct {
	Client *http.Client
	Now    func() time.Time
}

func (a ProbeAgent) Explore(ctx context.Context, req ports.ExploreRequest) (ports.ExploreResult, error) {
	now := a.Now
	if now == nil {
		now = time.Now
	}
	steps := []domain.StepRecord{{
		Action:    "navigate",
		Timestamp: now(),
		Metadata:  domain.StepMetadata{URL: req.URL},
	}}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return ports.ExploreResult{}, eris.Wrap(err, "probe: build request")
	}
	httpReq.Header.Set("User-Agent", "explorecore-probe/1.0")
	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return ports.ExploreResult{Steps: steps, Status: domain.FinalFailed, Error: err.Error()}, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if final := resp.Request.URL.String(); final != req.URL {
		steps = append(steps, domain.StepRecord{
			Action:    "navigate",
			Timestamp: now(),
			Metadata:  domain.StepMetadata{PageURL: final},
		})
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return ports.ExploreResult{Steps: steps, Status: domain.FinalFailed, Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}, nil
	}
	return ports.ExploreResult{Steps: steps, Status: domain.FinalSuccess}, nil
}
