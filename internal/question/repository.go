package question

import (
	"context"

	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/seed"
)

// ListFilter narrows List; zero values mean "no filter".
type ListFilter struct {
	Category string
	Status   lifecycle.Status
	Agent    string
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*Question, error)
	Get(ctx context.Context, id string) (*Question, error)
	// Claim atomically moves a not_started question to pending and records
	// the agent's working row. Fails with NotFound when the question is
	// absent, FailedPrecondition when it is past not_started, AlreadyExists
	// when the agent already holds a claim.
	Claim(ctx context.Context, questionID, agentID string) (*Claim, error)
	// UpdateStatus applies any recognized status. When the new status is
	// completed and agentID is set, the agent's working row is cleared,
	// provided it points at this question.
	UpdateStatus(ctx context.Context, questionID string, status lifecycle.Status, agentID, notes string) (*StatusChange, error)
	// Populate seeds the question table. It is a no-op when any question
	// already exists; individual inserts are insert-or-ignore.
	Populate(ctx context.Context, seeds []seed.Question) (int, error)
	Report(ctx context.Context) (*Report, error)
}
