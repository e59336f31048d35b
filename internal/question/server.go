package question

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questdesk/questdesk/internal/eventbus"
	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/pkg/cerr"
)

type Server struct {
	repo Repository
	bus  *eventbus.Bus
}

func NewServer(repo Repository, bus *eventbus.Bus) *Server {
	return &Server{
		repo: repo,
		bus:  bus,
	}
}

func (s *Server) Mount(r chi.Router) {
	r.Get("/questions", s.handleList)
	r.Get("/questions/{questionID}", s.handleGet)
	r.Post("/questions/{questionID}/claim", s.handleClaim)
	r.Put("/questions/{questionID}/status", s.handleUpdateStatus)
	r.Post("/questions/{questionID}/complete", s.handleComplete)
	r.Get("/status", s.handleReport)
}

type ClaimRequest struct {
	AgentID string `json:"agent_id"`
}

type UpdateStatusRequest struct {
	Status  string `json:"status"`
	AgentID string `json:"agent_id,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type CompleteRequest struct {
	AgentID  string `json:"agent_id"`
	Filepath string `json:"filepath"`
	Notes    string `json:"notes,omitempty"`
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
		Category: r.URL.Query().Get("category"),
		Agent:    r.URL.Query().Get("agent"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := lifecycle.ParseStatus(raw)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
			return
		}
		filter.Status = status
	}

	questions, err := s.repo.List(ctx, filter)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if questions == nil {
		questions = []*Question{}
	}
	cerr.SetJSONResponse(ctx, questions)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := s.repo.Get(ctx, chi.URLParam(r, "questionID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, q)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ClaimRequest
	if err := decode(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if strings.TrimSpace(req.AgentID) == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "agent_id is required", nil)
		return
	}

	claim, err := s.repo.Claim(ctx, chi.URLParam(r, "questionID"), req.AgentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeQuestionClaimed, claim.QuestionID, map[string]string{
		"agent_id": claim.AgentID,
	})
	cerr.SetJSONResponse(ctx, claim)
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

	change, err := s.repo.UpdateStatus(ctx, chi.URLParam(r, "questionID"), status, req.AgentID, req.Notes)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeQuestionStatusChanged, change.QuestionID, map[string]string{
		"old_status": change.OldStatus.String(),
		"new_status": change.NewStatus.String(),
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
	if strings.TrimSpace(req.AgentID) == "" || strings.TrimSpace(req.Filepath) == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "agent_id and filepath are required", nil)
		return
	}

	notes := fmt.Sprintf("Response saved to %s. %s", req.Filepath, req.Notes)
	change, err := s.repo.UpdateStatus(ctx, chi.URLParam(r, "questionID"), lifecycle.StatusCompleted, req.AgentID, strings.TrimSpace(notes))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeQuestionStatusChanged, change.QuestionID, map[string]string{
		"old_status": change.OldStatus.String(),
		"new_status": change.NewStatus.String(),
	})
	cerr.SetJSONResponse(ctx, change)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := s.repo.Report(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, report)
}
