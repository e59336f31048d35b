package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/questdesk/questdesk/internal/lifecycle"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Every catalog task ships with the same boilerplate fields.
const (
	defaultGuidelines          = "Follow best practices for security, performance, and maintainability"
	defaultSuccessCriteria     = "Code should be tested, documented, and reviewed"
	defaultImplementationNotes = "Use Cloudflare Workers, D1 database, and Pages for deployment"
)

type Epic struct {
	ID                   string             `yaml:"epic_id"`
	Title                string             `yaml:"title"`
	Description          string             `yaml:"description"`
	Category             string             `yaml:"category"`
	Priority             lifecycle.Priority `yaml:"priority"`
	EstimatedStoryPoints int                `yaml:"estimated_story_points"`
}

type Task struct {
	ID                  string             `yaml:"task_id"`
	EpicID              string             `yaml:"epic_id"`
	Title               string             `yaml:"title"`
	Description         string             `yaml:"description"`
	Deliverables        string             `yaml:"deliverables"`
	EstimatedHours      int                `yaml:"estimated_hours"`
	Priority            lifecycle.Priority `yaml:"priority"`
	Guidelines          string             `yaml:"-"`
	SuccessCriteria     string             `yaml:"-"`
	ImplementationNotes string             `yaml:"-"`
}

type Catalog struct {
	Epics        []Epic   `yaml:"epics"`
	Tasks        []Task   `yaml:"tasks"`
	BlockedTasks []string `yaml:"blocked_tasks"`

	blocked map[string]bool
}

// LoadCatalog parses the embedded epic/task catalog.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	c.blocked = make(map[string]bool, len(c.BlockedTasks))
	for _, id := range c.BlockedTasks {
		c.blocked[id] = true
	}
	for i := range c.Tasks {
		c.Tasks[i].Guidelines = defaultGuidelines
		c.Tasks[i].SuccessCriteria = defaultSuccessCriteria
		c.Tasks[i].ImplementationNotes = defaultImplementationNotes
	}
	return &c, nil
}

// TaskStatus returns the seed baseline status for a catalog task: blocked
// for the blocked list, not_started otherwise.
func (c *Catalog) TaskStatus(taskID string) lifecycle.Status {
	if c.blocked[taskID] {
		return lifecycle.StatusBlocked
	}
	return lifecycle.StatusNotStarted
}
