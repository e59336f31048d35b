package epic

import "github.com/questdesk/questdesk/internal/lifecycle"

// Epic is a coarse-grained grouping of related tasks.
type Epic struct {
	ID                   string             `json:"epic_id"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Category             string             `json:"category"`
	Priority             lifecycle.Priority `json:"priority"`
	Status               lifecycle.Status   `json:"status"`
	EstimatedStoryPoints int                `json:"estimated_story_points"`
	CreatedAt            string             `json:"created_at"`
	UpdatedAt            string             `json:"updated_at"`
}

// Summary is the trimmed listing shape.
type Summary struct {
	ID       string             `json:"epic_id"`
	Title    string             `json:"title"`
	Category string             `json:"category"`
	Priority lifecycle.Priority `json:"priority"`
	Status   lifecycle.Status   `json:"status"`
}

// TaskRef is the per-task line item in an epic detail view.
type TaskRef struct {
	TaskID        string             `json:"task_id"`
	Title         string             `json:"title"`
	Status        lifecycle.Status   `json:"status"`
	Priority      lifecycle.Priority `json:"priority"`
	AssignedAgent string             `json:"assigned_agent,omitempty"`
}

// PopulateResult reports what a catalog populate run did.
type PopulateResult struct {
	Status       string `json:"status"`
	EpicsCreated int    `json:"epics_created"`
	TasksCreated int    `json:"tasks_created"`
	Reset        bool   `json:"reset"`
	Message      string `json:"message"`
}
