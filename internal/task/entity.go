package task

import "github.com/questdesk/questdesk/internal/lifecycle"

// Task is one unit of deliverable work under an epic.
type Task struct {
	ID                  string             `json:"task_id"`
	EpicID              string             `json:"epic_id"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	Deliverables        string             `json:"deliverables"`
	Guidelines          string             `json:"guidelines"`
	SuccessCriteria     string             `json:"success_criteria"`
	ImplementationNotes string             `json:"implementation_notes"`
	EstimatedHours      int                `json:"estimated_hours"`
	Priority            lifecycle.Priority `json:"priority"`
	Status              lifecycle.Status   `json:"status"`
	AssignedAgent       string             `json:"assigned_agent,omitempty"`
	PRURL               string             `json:"pr_url,omitempty"`
	CreatedAt           string             `json:"created_at"`
	UpdatedAt           string             `json:"updated_at"`
}

// Summary is the trimmed listing shape.
type Summary struct {
	ID            string             `json:"task_id"`
	EpicID        string             `json:"epic_id"`
	Title         string             `json:"title"`
	Status        lifecycle.Status   `json:"status"`
	Priority      lifecycle.Priority `json:"priority"`
	AssignedAgent string             `json:"assigned_agent,omitempty"`
}

// Assignment records one claim episode on a task. A task may accumulate
// several over its lifetime, but only one should be open (no completed_at)
// at a time.
type Assignment struct {
	ID          string `json:"assignment_id"`
	TaskID      string `json:"task_id"`
	AgentID     string `json:"agent_id"`
	AssignedAt  string `json:"assigned_at"`
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type StatusChange struct {
	TaskID    string           `json:"task_id"`
	Status    lifecycle.Status `json:"status"`
	UpdatedAt string           `json:"updated_at"`
}

// CompletionResult is returned when a task is completed through either the
// task or the agent surface.
type CompletionResult struct {
	TaskID string           `json:"task_id"`
	Status lifecycle.Status `json:"status"`
	PRURL  string           `json:"pr_url"`
}

// ActiveWork is one line of the per-agent activity view: an in-progress
// task joined with its open assignment.
type ActiveWork struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	StartedAt string `json:"started_at"`
}
