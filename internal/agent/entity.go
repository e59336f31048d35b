package agent

// Profile describes one worker agent and the skills it advertises. The
// directory of profiles is static; there are no mutation operations.
type Profile struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	Skills         []string `json:"skills"`
	PreferredTasks []string `json:"preferred_tasks"`
}
