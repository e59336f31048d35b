package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questdesk/questdesk/internal/lifecycle"
)

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog()
	require.NoError(t, err)

	assert.Len(t, c.Epics, 11)
	assert.Len(t, c.Tasks, 28)

	assert.Equal(t, "E001", c.Epics[0].ID)
	assert.Equal(t, "T001", c.Tasks[0].ID)
	assert.Equal(t, "E001", c.Tasks[0].EpicID)

	// Boilerplate fields are filled in for every task.
	for _, task := range c.Tasks {
		assert.NotEmpty(t, task.Guidelines, "task %s", task.ID)
		assert.NotEmpty(t, task.SuccessCriteria, "task %s", task.ID)
		assert.NotEmpty(t, task.ImplementationNotes, "task %s", task.ID)
	}
}

func TestCatalogTaskStatus(t *testing.T) {
	c, err := LoadCatalog()
	require.NoError(t, err)

	for _, id := range []string{"T010", "T012", "T020", "T024"} {
		assert.Equal(t, lifecycle.StatusBlocked, c.TaskStatus(id), "task %s", id)
	}
	assert.Equal(t, lifecycle.StatusNotStarted, c.TaskStatus("T001"))
	assert.Equal(t, lifecycle.StatusNotStarted, c.TaskStatus("unknown"))
}
