package lifecycle

import "fmt"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unrecognized priority %q", s)
}

// Rank orders priorities by severity: high < medium < low. Queue queries
// order by rank, not by the raw string, so "high" really does come first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

func (p Priority) String() string {
	return string(p)
}

// PriorityRankSQL is the CASE expression repositories embed in ORDER BY
// clauses to sort priority strings by severity.
const PriorityRankSQL = "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 WHEN 'low' THEN 2 ELSE 3 END"
