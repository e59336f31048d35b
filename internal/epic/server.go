package epic

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/questdesk/questdesk/internal/eventbus"
	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/seed"
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
	r.Post("/epics/populate", s.handlePopulate)
	r.Get("/epics", s.handleList)
	r.Get("/epics/{epicID}", s.handleGet)
	r.Put("/epics/{epicID}/status", s.handleUpdateStatus)
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type detailResponse struct {
	Epic  *Epic     `json:"epic"`
	Tasks []TaskRef `json:"tasks"`
}

type statusResponse struct {
	EpicID    string           `json:"epic_id"`
	Status    lifecycle.Status `json:"status"`
	UpdatedAt string           `json:"updated_at"`
}

func (s *Server) handlePopulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reset := r.URL.Query().Get("reset") == "true"

	catalog, err := seed.LoadCatalog()
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}

	epics, tasks, err := s.repo.PopulateCatalog(ctx, catalog, reset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeCatalogPopulated, "catalog", map[string]string{
		"reset": r.URL.Query().Get("reset"),
	})
	cerr.SetJSONResponse(ctx, PopulateResult{
		Status:       "success",
		EpicsCreated: epics,
		TasksCreated: tasks,
		Reset:        reset,
		Message:      "Successfully populated epics and tasks from the catalog",
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	epics, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if epics == nil {
		epics = []*Summary{}
	}
	cerr.SetJSONResponse(ctx, epics)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "epicID")

	e, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	tasks, err := s.repo.Tasks(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, detailResponse{Epic: e, Tasks: tasks})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	status, err := lifecycle.ParseStatus(req.Status)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
		return
	}

	id := chi.URLParam(r, "epicID")
	updatedAt, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.TypeEpicStatusChanged, id, map[string]string{
		"new_status": status.String(),
	})
	cerr.SetJSONResponse(ctx, statusResponse{EpicID: id, Status: status, UpdatedAt: updatedAt})
}
