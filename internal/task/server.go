package task

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questdesk/questdesk/internal/eventbus"
	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/pullreq"
	"github.com/questdesk/questdesk/pkg/cerr"
)

type Server struct {
	repo     Repository
	creator  pullreq.Creator
	repoSlug string
	bus      *eventbus.Bus
}

func NewServer(repo Repository, creator pullreq.Creator, repoSlug string, bus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		creator:  creator,
		repoSlug: repoSlug,
		bus:      bus,
	}
}

func (s *Server) Mount(r chi.Router) {
	r.Get("/tasks", s.handleList)
	r.Post("/tasks/claim", s.handleClaim)
	r.Get("/tasks/{taskID}", s.handleGet)
	r.Put("/tasks/{taskID}/status", s.handleUpdateStatus)
	r.Post("/tasks/{taskID}/complete", s.handleComplete)
	r.Get("/tasks/assigned/{agentID}", s.handleAssigned)
}

type UpdateStatusRequest struct {
	Status  string `json:"status"`
	AgentID string `json:"agent_id,omitempty"`
}

type CompleteRequest struct {
	AgentID    string `json:"agent_id"`
	BranchName string `json:"branch_name"`
	PRTitle    string `json:"pr_title"`
	PRBody     string `json:"pr_body,omitempty"`
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := ListFilter{
		Agent: r.URL.Query().Get("agent"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := lifecycle.ParseStatus(raw)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
			return
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("priority"); raw != "" {
		priority, err := lifecycle.ParsePriority(raw)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
			return
		}
		filter.Priority = priority
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []*Summary{}
	}
	cerr.SetJSONResponse(ctx, tasks)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.repo.ClaimNext(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeTaskClaimed, t.ID, map[string]string{
		"agent_id": t.AssignedAgent,
	})
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateStatusRequest
	if err := decode(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	status, err := lifecycle.ParseStatus(req.Status)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
		return
	}

	change, err := s.repo.UpdateStatus(ctx, chi.URLParam(r, "taskID"), status, req.AgentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeTaskStatusChanged, change.TaskID, map[string]string{
		"new_status": change.Status.String(),
	})
	cerr.SetJSONResponse(ctx, change)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CompleteRequest
	if err := decode(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if strings.TrimSpace(req.AgentID) == "" || strings.TrimSpace(req.BranchName) == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "agent_id and branch_name are required", nil)
		return
	}

	// Validate the task is completable before involving the collaborator.
	taskID := chi.URLParam(r, "taskID")
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if t.Status != lifecycle.StatusInProgress {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found or not in progress", nil)
		return
	}

	prURL := pullreq.CreateOrFallback(ctx, s.creator, s.repoSlug, req.BranchName, req.PRTitle, req.PRBody)
	result, err := s.repo.Complete(ctx, taskID, req.AgentID, prURL)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeTaskCompleted, result.TaskID, map[string]string{
		"agent_id": req.AgentID,
		"pr_url":   result.PRURL,
	})
	cerr.SetJSONResponse(ctx, result)
}

func (s *Server) handleAssigned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.repo.AssignedTo(ctx, chi.URLParam(r, "agentID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	cerr.SetJSONResponse(ctx, tasks)
}
