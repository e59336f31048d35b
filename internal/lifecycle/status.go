// Package lifecycle holds the status and priority vocabulary shared by
// questions, epics and tasks.
package lifecycle

import (
	"fmt"
)

type Status string

const (
	StatusNotStarted  Status = "not_started"
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusNeedsReview Status = "needs_review"
	StatusBlocked     Status = "blocked"
)

// Statuses lists every recognized status, in a fixed order used for
// zero-filled breakdowns.
var Statuses = []Status{
	StatusNotStarted,
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusNeedsReview,
	StatusBlocked,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if s == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unrecognized status %q", s)
}

func (s Status) String() string {
	return string(s)
}
