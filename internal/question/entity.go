package question

import "github.com/questdesk/questdesk/internal/lifecycle"

// Question is one research question tracked through the claim lifecycle.
// Timestamps are stored and exposed as sortable UTC strings.
type Question struct {
	ID               string           `json:"question_id"`
	Category         string           `json:"category"`
	Status           lifecycle.Status `json:"status"`
	Text             string           `json:"question_text"`
	ResponseFilepath string           `json:"response_filepath"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at"`
}

// Claim confirms an exclusive reservation of a question by one agent.
type Claim struct {
	QuestionID string           `json:"question_id"`
	AgentID    string           `json:"agent_id"`
	Status     lifecycle.Status `json:"status"`
	StartedAt  string           `json:"started_at"`
}

// StatusChange reports an applied status transition.
type StatusChange struct {
	QuestionID string           `json:"question_id"`
	Category   string           `json:"category"`
	OldStatus  lifecycle.Status `json:"old_status"`
	NewStatus  lifecycle.Status `json:"new_status"`
	UpdatedBy  string           `json:"updated_by,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	UpdatedAt  string           `json:"updated_at"`
}

// Report aggregates overall progress.
type Report struct {
	TotalQuestions  int                                 `json:"total_questions"`
	StatusBreakdown map[lifecycle.Status]int            `json:"status_breakdown"`
	Categories      map[string]map[lifecycle.Status]int `json:"categories"`
	AgentsWorking   []string                            `json:"agents_working"`
	Metadata        map[string]string                   `json:"metadata"`
}
