package lifecycle

import "explorecore/internal/domain"

// transitions is the forward-only run state machine. Terminal states have no
// entry and therefore no exits.
var transitions = map[domain.RunStatus][]domain.RunStatus{
	domain.StatusQueued:  {domain.StatusRunning, domain.StatusBlocked, domain.StatusFailed},
	domain.StatusRunning: {domain.StatusCompleted, domain.StatusFailed, domain.StatusBlocked},
}

// CanTransition reports whether a run may move from one status to another.
func CanTransition(from, to domain.RunStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
