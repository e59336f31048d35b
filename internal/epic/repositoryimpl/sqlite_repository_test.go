package repositoryimpl

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/seed"
	"github.com/questdesk/questdesk/internal/sqlitedb"
	"github.com/questdesk/questdesk/pkg/cerr"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()
	db, err := sqlitedb.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db), db
}

func populateTestCatalog(t *testing.T, repo *SQLiteRepository, reset bool) (int, int) {
	t.Helper()
	catalog, err := seed.LoadCatalog()
	require.NoError(t, err)
	epics, tasks, err := repo.PopulateCatalog(context.Background(), catalog, reset)
	require.NoError(t, err)
	return epics, tasks
}

func TestPopulateCatalog(t *testing.T) {
	repo, _ := newTestRepo(t)

	epics, tasks := populateTestCatalog(t, repo, false)
	assert.Equal(t, 11, epics)
	assert.Equal(t, 28, tasks)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 11)
}

func TestPopulateCatalogBlockedTasks(t *testing.T) {
	repo, db := newTestRepo(t)
	populateTestCatalog(t, repo, false)

	for _, id := range []string{"T010", "T012", "T020", "T024"} {
		var status string
		err := db.QueryRow("SELECT status FROM project_tasks WHERE task_id = ?", id).Scan(&status)
		require.NoError(t, err)
		assert.Equal(t, string(lifecycle.StatusBlocked), status, "task %s", id)
	}
}

func TestPopulateCatalogPreservesProgress(t *testing.T) {
	repo, db := newTestRepo(t)
	populateTestCatalog(t, repo, false)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		"UPDATE project_tasks SET status = ?, assigned_agent = 'codex-cli' WHERE task_id = 'T001'",
		string(lifecycle.StatusInProgress))
	require.NoError(t, err)

	// A plain re-run refreshes catalog fields but keeps in-flight progress.
	populateTestCatalog(t, repo, false)

	var status string
	var agent sql.NullString
	err = db.QueryRowContext(ctx,
		"SELECT status, assigned_agent FROM project_tasks WHERE task_id = 'T001'").Scan(&status, &agent)
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusInProgress), status)
	assert.Equal(t, "codex-cli", agent.String)
}

func TestPopulateCatalogReset(t *testing.T) {
	repo, db := newTestRepo(t)
	populateTestCatalog(t, repo, false)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		"UPDATE project_tasks SET status = ?, assigned_agent = 'codex-cli', pr_url = 'https://example.test/pr/1' WHERE task_id = 'T001'",
		string(lifecycle.StatusInProgress))
	require.NoError(t, err)

	populateTestCatalog(t, repo, true)

	var status string
	var agent, prURL sql.NullString
	err = db.QueryRowContext(ctx,
		"SELECT status, assigned_agent, pr_url FROM project_tasks WHERE task_id = 'T001'").Scan(&status, &agent, &prURL)
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusNotStarted), status)
	assert.False(t, agent.Valid, "reset clears the assigned agent")
	assert.False(t, prURL.Valid, "reset clears the PR reference")

	// Blocked tasks return to blocked, not not_started.
	err = db.QueryRowContext(ctx, "SELECT status FROM project_tasks WHERE task_id = 'T010'").Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusBlocked), status)
}

func TestGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	populateTestCatalog(t, repo, false)
	ctx := context.Background()

	e, err := repo.Get(ctx, "E001")
	require.NoError(t, err)
	assert.Equal(t, "E001", e.ID)
	assert.Equal(t, lifecycle.StatusNotStarted, e.Status)
	assert.NotEmpty(t, e.Title)

	_, err = repo.Get(ctx, "E999")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestTasks(t *testing.T) {
	repo, _ := newTestRepo(t)
	populateTestCatalog(t, repo, false)

	tasks, err := repo.Tasks(context.Background(), "E001")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "T001", tasks[0].TaskID)
}

func TestUpdateStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	populateTestCatalog(t, repo, false)
	ctx := context.Background()

	updatedAt, err := repo.UpdateStatus(ctx, "E001", lifecycle.StatusInProgress)
	require.NoError(t, err)
	assert.NotEmpty(t, updatedAt)

	e, err := repo.Get(ctx, "E001")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusInProgress, e.Status)

	_, err = repo.UpdateStatus(ctx, "E999", lifecycle.StatusInProgress)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
