// Package exertion scores how thoroughly an exploration run tried, separately
// from whether the agent reported success. A run that claims success after
// doing nothing must not read as a trustworthy pass.
package exertion

import (
	"math"
	"strings"
	"time"

	"explorecore/internal/domain"
)

type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

func (s *Scorer) Weights() Weights { return s.w }

// Calculate builds the report for a finished run. It is pure and tolerates
// missing metadata and inverted timestamps.
func (s *Scorer) Calculate(steps []domain.StepRecord, start, end time.Time, final domain.FinalStatus) domain.ExertionReport {
	pages := map[string]struct{}{}
	forms, scrolls := 0, 0
	for _, st := range steps {
		if st.Metadata.URL != "" {
			pages[st.Metadata.URL] = struct{}{}
		}
		if st.Metadata.PageURL != "" {
			pages[st.Metadata.PageURL] = struct{}{}
		}
		switch strings.ToLower(st.Action) {
		case "type", "click":
			forms++
		case "scroll":
			scrolls++
		}
	}
	pagesVisited := len(pages)
	if pagesVisited < 1 {
		pagesVisited = 1
	}

	durationMs := end.Sub(start).Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}

	score := math.Min(float64(len(steps))*s.w.StepWeight, s.w.StepCap) +
		math.Min(float64(pagesVisited)*s.w.PageWeight, s.w.PageCap) +
		math.Min(float64(durationMs)/1000, s.w.DurationCap)
	if forms > s.w.InteractionBonusThreshold {
		score += s.w.InteractionBonus
	}
	confidence := clamp(int(math.Round(score)), 0, 100)

	return domain.ExertionReport{
		TotalSteps:        len(steps),
		PagesVisited:      pagesVisited,
		FormsInteracted:   forms,
		ScrollingDistance: scrolls * s.w.ScrollUnit,
		TotalDurationMs:   durationMs,
		ConfidenceScore:   confidence,
		ConfidenceLevel:   level(confidence),
		TerminationReason: termination(final, len(steps)),
		WeightsVersion:    s.w.Version,
	}
}

func level(score int) domain.ConfidenceLevel {
	switch {
	case score >= HighThreshold:
		return domain.ConfidenceHigh
	case score >= MediumThreshold:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func termination(final domain.FinalStatus, steps int) domain.TerminationReason {
	switch {
	case final == domain.FinalFailed:
		return domain.TerminationError
	case steps == 0:
		return domain.TerminationBlocked
	default:
		return domain.TerminationComplete
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
