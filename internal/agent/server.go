package agent

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questdesk/questdesk/internal/eventbus"
	"github.com/questdesk/questdesk/internal/pullreq"
	"github.com/questdesk/questdesk/internal/task"
	"github.com/questdesk/questdesk/pkg/cerr"
)

// Server exposes the agent-facing coordination surface: the static
// directory, the per-agent activity view and the checkout/submit flow.
type Server struct {
	directory *Directory
	tasks     task.Repository
	creator   pullreq.Creator
	repoSlug  string
	bus       *eventbus.Bus
}

func NewServer(directory *Directory, tasks task.Repository, creator pullreq.Creator, repoSlug string, bus *eventbus.Bus) *Server {
	return &Server{
		directory: directory,
		tasks:     tasks,
		creator:   creator,
		repoSlug:  repoSlug,
		bus:       bus,
	}
}

func (s *Server) Mount(r chi.Router) {
	r.Get("/agents", s.handleList)
	r.Get("/agents/status", s.handleStatus)
	r.Post("/agents/{agentID}/checkout", s.handleCheckout)
	r.Put("/agents/{agentID}/submit", s.handleSubmit)
}

type SubmitRequest struct {
	BranchName string `json:"branch_name"`
	PRTitle    string `json:"pr_title"`
	PRBody     string `json:"pr_body,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), s.directory.List())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	active, err := s.tasks.ActiveByAgent(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, active)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")

	t, err := s.tasks.Checkout(ctx, agentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeTaskClaimed, t.ID, map[string]string{
		"agent_id": agentID,
	})
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.BranchName) == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "branch_name is required", nil)
		return
	}

	agentID := chi.URLParam(r, "agentID")
	active, err := s.tasks.FindActive(ctx, agentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	prURL := pullreq.CreateOrFallback(ctx, s.creator, s.repoSlug, req.BranchName, req.PRTitle, req.PRBody)
	result, err := s.tasks.Complete(ctx, active.ID, agentID, prURL)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeTaskCompleted, result.TaskID, map[string]string{
		"agent_id": agentID,
		"pr_url":   result.PRURL,
	})
	cerr.SetJSONResponse(ctx, result)
}
