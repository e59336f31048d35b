package task

import (
	"context"

	"github.com/questdesk/questdesk/internal/lifecycle"
)

// Assigner chooses the agent best suited for a task. It must be
// deterministic and side-effect-free: the same inputs always name the same
// agent.
type Assigner interface {
	Assign(title, description, epicID string) string
}

type ListFilter struct {
	Status   lifecycle.Status
	Priority lifecycle.Priority
	Agent    string
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*Summary, error)
	Get(ctx context.Context, id string) (*Task, error)
	// ClaimNext picks the highest-priority oldest not_started task, lets the
	// Assigner choose its agent and opens an assignment.
	ClaimNext(ctx context.Context) (*Task, error)
	// Checkout scans not_started tasks in queue order for one the Assigner
	// would give to agentID, falling back to the head of the queue when none
	// match.
	Checkout(ctx context.Context, agentID string) (*Task, error)
	UpdateStatus(ctx context.Context, id string, status lifecycle.Status, agentID string) (*StatusChange, error)
	// Complete requires the task to be in_progress, sets it completed with
	// prURL and closes the agent's open assignment.
	Complete(ctx context.Context, id, agentID, prURL string) (*CompletionResult, error)
	// FindActive returns the in_progress task assigned to agentID.
	FindActive(ctx context.Context, agentID string) (*Task, error)
	AssignedTo(ctx context.Context, agentID string) ([]*Task, error)
	// ActiveByAgent groups every in-progress task with an open assignment by
	// its assigned agent.
	ActiveByAgent(ctx context.Context) (map[string][]ActiveWork, error)
}
