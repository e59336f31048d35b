package repositoryimpl

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questdesk/questdesk/internal/agent"
	epicrepo "github.com/questdesk/questdesk/internal/epic/repositoryimpl"
	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/seed"
	"github.com/questdesk/questdesk/internal/sqlitedb"
	"github.com/questdesk/questdesk/internal/task"
	"github.com/questdesk/questdesk/pkg/cerr"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()
	db, err := sqlitedb.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	catalog, err := seed.LoadCatalog()
	require.NoError(t, err)
	_, _, err = epicrepo.NewSQLiteRepository(db).PopulateCatalog(context.Background(), catalog, false)
	require.NoError(t, err)

	return NewSQLiteRepository(db, agent.NewDirectory()), db
}

func TestClaimNextPrefersHighPriority(t *testing.T) {
	repo, _ := newTestRepo(t)

	// T001 is the oldest high-priority not_started task; its content routes
	// to the backend specialist.
	claimed, err := repo.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T001", claimed.ID)
	assert.Equal(t, lifecycle.StatusInProgress, claimed.Status)
	assert.Equal(t, agent.IDBackend, claimed.AssignedAgent)
}

func TestClaimNextOpensAssignment(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	claimed, err := repo.ClaimNext(ctx)
	require.NoError(t, err)

	var agentID string
	var completedAt sql.NullString
	err = db.QueryRowContext(ctx,
		"SELECT agent_id, completed_at FROM task_assignments WHERE task_id = ?", claimed.ID).
		Scan(&agentID, &completedAt)
	require.NoError(t, err)
	assert.Equal(t, claimed.AssignedAgent, agentID)
	assert.False(t, completedAt.Valid, "fresh assignment must be open")
}

func TestClaimNextExhausted(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "UPDATE project_tasks SET status = ?", string(lifecycle.StatusCompleted))
	require.NoError(t, err)

	_, err = repo.ClaimNext(ctx)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestClaimNextSkipsBlocked(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	// Leave only a blocked task behind; it must not be claimable.
	_, err := db.ExecContext(ctx,
		"UPDATE project_tasks SET status = ? WHERE task_id != 'T010'", string(lifecycle.StatusCompleted))
	require.NoError(t, err)

	_, err = repo.ClaimNext(ctx)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestCheckoutPrefersMatchingTask(t *testing.T) {
	repo, _ := newTestRepo(t)

	// T002 (React registration form) is the first task in queue order that
	// the scorer routes to the frontend agent; T001 ahead of it routes to
	// the backend agent.
	claimed, err := repo.Checkout(context.Background(), agent.IDFrontend)
	require.NoError(t, err)
	assert.Equal(t, "T002", claimed.ID)
	assert.Equal(t, agent.IDFrontend, claimed.AssignedAgent)
	assert.Equal(t, lifecycle.StatusInProgress, claimed.Status)
}

func TestCheckoutFallsBackToQueueHead(t *testing.T) {
	repo, _ := newTestRepo(t)

	// No task scores for an unknown agent, so checkout hands over the
	// highest-priority oldest task anyway.
	claimed, err := repo.Checkout(context.Background(), "mystery-agent")
	require.NoError(t, err)
	assert.Equal(t, "T001", claimed.ID)
	assert.Equal(t, "mystery-agent", claimed.AssignedAgent)
}

func TestCheckoutExhausted(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "UPDATE project_tasks SET status = ?", string(lifecycle.StatusCompleted))
	require.NoError(t, err)

	_, err = repo.Checkout(ctx, agent.IDFrontend)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestComplete(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	claimed, err := repo.ClaimNext(ctx)
	require.NoError(t, err)

	result, err := repo.Complete(ctx, claimed.ID, claimed.AssignedAgent, "https://github.com/questdesk/worktree/pull/7")
	require.NoError(t, err)
	assert.Equal(t, claimed.ID, result.TaskID)
	assert.Equal(t, lifecycle.StatusCompleted, result.Status)
	assert.Equal(t, "https://github.com/questdesk/worktree/pull/7", result.PRURL)

	got, err := repo.Get(ctx, claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCompleted, got.Status)
	assert.Equal(t, "https://github.com/questdesk/worktree/pull/7", got.PRURL)

	var completedAt sql.NullString
	err = db.QueryRowContext(ctx,
		"SELECT completed_at FROM task_assignments WHERE task_id = ?", claimed.ID).Scan(&completedAt)
	require.NoError(t, err)
	assert.True(t, completedAt.Valid, "completion closes the open assignment")
}

func TestCompleteRequiresInProgress(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Complete(ctx, "T001", agent.IDBackend, "https://example.test/pr/1")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	_, err = repo.Complete(ctx, "T999", agent.IDBackend, "https://example.test/pr/1")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestFindActive(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindActive(ctx, agent.IDBackend)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	claimed, err := repo.ClaimNext(ctx)
	require.NoError(t, err)

	active, err := repo.FindActive(ctx, claimed.AssignedAgent)
	require.NoError(t, err)
	assert.Equal(t, claimed.ID, active.ID)
}

func TestUpdateStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	change, err := repo.UpdateStatus(ctx, "T001", lifecycle.StatusNeedsReview, "")
	require.NoError(t, err)
	assert.Equal(t, "T001", change.TaskID)
	assert.Equal(t, lifecycle.StatusNeedsReview, change.Status)

	_, err = repo.UpdateStatus(ctx, "T999", lifecycle.StatusNeedsReview, "")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestListFilters(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	claimed, err := repo.ClaimNext(ctx)
	require.NoError(t, err)

	byStatus, err := repo.List(ctx, task.ListFilter{Status: lifecycle.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, claimed.ID, byStatus[0].ID)

	byPriority, err := repo.List(ctx, task.ListFilter{Priority: lifecycle.PriorityHigh})
	require.NoError(t, err)
	assert.NotEmpty(t, byPriority)
	for _, s := range byPriority {
		assert.Equal(t, lifecycle.PriorityHigh, s.Priority)
	}

	byAgent, err := repo.List(ctx, task.ListFilter{Agent: claimed.AssignedAgent})
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	assert.Equal(t, claimed.ID, byAgent[0].ID)
}

func TestAssignedTo(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	claimed, err := repo.Checkout(ctx, agent.IDFrontend)
	require.NoError(t, err)

	tasks, err := repo.AssignedTo(ctx, agent.IDFrontend)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, claimed.ID, tasks[0].ID)

	none, err := repo.AssignedTo(ctx, "mystery-agent")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestActiveByAgent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	second, err := repo.Checkout(ctx, agent.IDFrontend)
	require.NoError(t, err)

	active, err := repo.ActiveByAgent(ctx)
	require.NoError(t, err)
	require.Len(t, active[first.AssignedAgent], 1)
	assert.Equal(t, first.ID, active[first.AssignedAgent][0].TaskID)
	require.Len(t, active[agent.IDFrontend], 1)
	assert.Equal(t, second.ID, active[agent.IDFrontend][0].TaskID)

	_, err = repo.Complete(ctx, first.ID, first.AssignedAgent, "https://example.test/pr/2")
	require.NoError(t, err)

	active, err = repo.ActiveByAgent(ctx)
	require.NoError(t, err)
	assert.NotContains(t, active, first.AssignedAgent)
}
