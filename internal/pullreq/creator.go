// Package pullreq abstracts the pull-request collaborator. Completion flows
// only need a reference string back; they never fail because of this
// package.
package pullreq

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/questdesk/questdesk/pkg/clog"
)

// Creator turns a submitted branch into a pull-request reference.
type Creator interface {
	Create(ctx context.Context, branch, title, body string) (string, error)
}

// MockCreator fabricates deterministic pull-request URLs under a repository
// slug without talking to any forge.
type MockCreator struct {
	repoSlug string
	logger   *slog.Logger
}

func NewMockCreator(repoSlug string, logger *slog.Logger) *MockCreator {
	return &MockCreator{repoSlug: repoSlug, logger: logger}
}

func (c *MockCreator) Create(ctx context.Context, branch, title, body string) (string, error) {
	url := fmt.Sprintf("https://github.com/%s/pull/%d", c.repoSlug, prNumber(branch))
	c.logger.InfoContext(ctx, "mock pull request created",
		slog.String("title", title),
		slog.String("branch", branch),
		slog.String("url", url))
	return url, nil
}

// FallbackURL is the synthetic reference used when a Creator fails; callers
// record it instead of propagating the failure.
func FallbackURL(repoSlug, branch string) string {
	return fmt.Sprintf("https://github.com/%s/pull/mock-%d", repoSlug, prNumber(branch))
}

// CreateOrFallback resolves a reference through c, swallowing any failure
// into the synthetic fallback so completion is never blocked on the
// collaborator.
func CreateOrFallback(ctx context.Context, c Creator, repoSlug, branch, title, body string) string {
	url, err := c.Create(ctx, branch, title, body)
	if err != nil {
		clog.AddError(ctx, err)
		return FallbackURL(repoSlug, branch)
	}
	return url
}

// prNumber hashes a branch name into a stable small number so repeated
// submissions of the same branch reference the same pull request.
func prNumber(branch string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(branch))
	return h.Sum32() % 1000
}
