package resolve

import (
	"github.com/jonathan/profile-enricher/internal/topics"
	"github.com/jonathan/profile-enricher/internal/types"
)

// State tracks a profile through the resolution pipeline.
type State int

const (
	StatePending State = iota
	StateQueried
	StateSearched
	StateVerifying
	StateDone
	StateSkipped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateQueried:
		return "queried"
	case StateSearched:
		return "searched"
	case StateVerifying:
		return "verifying"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status distinguishes how a profile reached DONE: with stored matches,
// with no candidates at all, or with candidates that all fell below the
// confidence bar.
type Status string

const (
	StatusMatched          Status = "matched"
	StatusNoCandidates     Status = "no_candidates"
	StatusNoConfidentMatch Status = "no_confident_match"
)

// Outcome is the result of resolving one profile.
type Outcome struct {
	Handle     string
	State      State
	Status     Status
	SkipReason string
	Err        error
	Record     *types.MatchRecord
}

// Report summarizes a completed run.
type Report struct {
	Resolved        int
	Skipped         int
	Failed          int
	Pending         int
	AlreadyResolved int
	Matches         int

	// Topics maps handle to canonical topics for profiles whose raw
	// topics resolved to at least one canonical value.
	Topics     map[string][]string
	TopicStats topics.Stats
}
