package repositoryimpl

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/question"
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

func seedQuestions(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	_, err := repo.Populate(context.Background(), []seed.Question{
		{ID: "C01Q01", Text: "How are workers routed?", ResponseFilepath: "responses/c01q01.md"},
		{ID: "C01Q02", Text: "What caching layers exist?", ResponseFilepath: "responses/c01q02.md"},
		{ID: "C02Q01", Text: "How long are events kept?", ResponseFilepath: "responses/c02q01.md"},
	})
	require.NoError(t, err)
}

func TestPopulateIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	inserted, err := repo.Populate(ctx, []seed.Question{
		{ID: "C01Q01", Text: "first", ResponseFilepath: "a.md"},
		{ID: "C01Q02", Text: "second", ResponseFilepath: "b.md"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// A second run is a no-op even with new ids in the seed set.
	inserted, err = repo.Populate(ctx, []seed.Question{
		{ID: "C09Q09", Text: "late arrival", ResponseFilepath: "c.md"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	questions, err := repo.List(ctx, question.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestPopulateDerivesCategory(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)

	q, err := repo.Get(context.Background(), "C02Q01")
	require.NoError(t, err)
	assert.Equal(t, "C02", q.Category)
	assert.Equal(t, lifecycle.StatusNotStarted, q.Status)
}

func TestClaim(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)
	ctx := context.Background()

	claim, err := repo.Claim(ctx, "C01Q01", "codex-cli")
	require.NoError(t, err)
	assert.Equal(t, "C01Q01", claim.QuestionID)
	assert.Equal(t, "codex-cli", claim.AgentID)
	assert.Equal(t, lifecycle.StatusPending, claim.Status)

	q, err := repo.Get(ctx, "C01Q01")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, q.Status)
}

func TestClaimNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)

	_, err := repo.Claim(context.Background(), "C99Q99", "codex-cli")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestClaimAlreadyClaimed(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)
	ctx := context.Background()

	_, err := repo.Claim(ctx, "C01Q01", "codex-cli")
	require.NoError(t, err)

	// A second agent cannot claim a question that is no longer not_started.
	_, err = repo.Claim(ctx, "C01Q01", "gemini-cli")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.FailedPrecondition))
}

func TestClaimAgentAlreadyWorking(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)
	ctx := context.Background()

	_, err := repo.Claim(ctx, "C01Q01", "codex-cli")
	require.NoError(t, err)

	// The same agent cannot hold a second open claim.
	_, err = repo.Claim(ctx, "C01Q02", "codex-cli")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	q, err := repo.Get(ctx, "C01Q02")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusNotStarted, q.Status, "failed claim must not change status")
}

func TestUpdateStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)
	ctx := context.Background()

	change, err := repo.UpdateStatus(ctx, "C01Q01", lifecycle.StatusInProgress, "codex-cli", "picking this up")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusNotStarted, change.OldStatus)
	assert.Equal(t, lifecycle.StatusInProgress, change.NewStatus)
	assert.Equal(t, "codex-cli", change.UpdatedBy)

	_, err = repo.UpdateStatus(ctx, "C99Q99", lifecycle.StatusInProgress, "", "")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestCompletionReleasesOnlyPointedAtClaim(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)
	ctx := context.Background()

	_, err := repo.Claim(ctx, "C01Q01", "codex-cli")
	require.NoError(t, err)
	_, err = repo.Claim(ctx, "C01Q02", "gemini-cli")
	require.NoError(t, err)

	// codex-cli completing a question it never claimed must not release
	// either open claim.
	_, err = repo.UpdateStatus(ctx, "C02Q01", lifecycle.StatusCompleted, "codex-cli", "done")
	require.NoError(t, err)

	report, err := repo.Report(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"codex-cli", "gemini-cli"}, report.AgentsWorking)

	// Completing its own question releases exactly that claim.
	_, err = repo.UpdateStatus(ctx, "C01Q01", lifecycle.StatusCompleted, "codex-cli", "done")
	require.NoError(t, err)

	report, err = repo.Report(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gemini-cli"}, report.AgentsWorking)
}

func TestListFilters(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)
	ctx := context.Background()

	_, err := repo.Claim(ctx, "C01Q01", "codex-cli")
	require.NoError(t, err)

	byCategory, err := repo.List(ctx, question.ListFilter{Category: "C01"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	byStatus, err := repo.List(ctx, question.ListFilter{Status: lifecycle.StatusPending})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "C01Q01", byStatus[0].ID)

	byAgent, err := repo.List(ctx, question.ListFilter{Agent: "codex-cli"})
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	assert.Equal(t, "C01Q01", byAgent[0].ID)

	byAgent, err = repo.List(ctx, question.ListFilter{Agent: "gemini-cli"})
	require.NoError(t, err)
	assert.Empty(t, byAgent)
}

func TestReport(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)
	ctx := context.Background()

	_, err := repo.Claim(ctx, "C01Q01", "codex-cli")
	require.NoError(t, err)

	report, err := repo.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalQuestions)
	assert.Equal(t, 1, report.StatusBreakdown[lifecycle.StatusPending])
	assert.Equal(t, 2, report.StatusBreakdown[lifecycle.StatusNotStarted])
	assert.Equal(t, 0, report.StatusBreakdown[lifecycle.StatusBlocked], "every status is present, zero-filled")
	assert.Equal(t, 1, report.Categories["C02"][lifecycle.StatusNotStarted])
	assert.NotEmpty(t, report.Metadata["created_at"])
	assert.NotEmpty(t, report.Metadata["last_updated"])
}

func TestMutationsBumpLastUpdated(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedQuestions(t, repo)
	ctx := context.Background()

	before, err := repo.Report(ctx)
	require.NoError(t, err)

	_, err = repo.Claim(ctx, "C01Q01", "codex-cli")
	require.NoError(t, err)

	after, err := repo.Report(ctx)
	require.NoError(t, err)
	assert.Greater(t, after.Metadata["last_updated"], before.Metadata["last_updated"])
	assert.Equal(t, after.Metadata["created_at"], before.Metadata["created_at"])
}
