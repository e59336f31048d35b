package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/questdesk/questdesk/internal/agent"
	"github.com/questdesk/questdesk/internal/config"
	"github.com/questdesk/questdesk/internal/epic"
	"github.com/questdesk/questdesk/internal/event"
	"github.com/questdesk/questdesk/internal/question"
	"github.com/questdesk/questdesk/internal/task"
	"github.com/questdesk/questdesk/pkg/cerr"
	"github.com/questdesk/questdesk/pkg/clog"
)

// Version is the reported service version, overridable at link time.
var Version = "1.0.0"

type Server struct {
	server         *http.Server
	env            *config.Env
	questionServer *question.Server
	epicServer     *epic.Server
	taskServer     *task.Server
	agentServer    *agent.Server
	eventServer    *event.Server
}

func NewServer(
	env *config.Env,
	questionServer *question.Server,
	epicServer *epic.Server,
	taskServer *task.Server,
	agentServer *agent.Server,
	eventServer *event.Server,
) *Server {
	return &Server{
		env:            env,
		questionServer: questionServer,
		epicServer:     epicServer,
		taskServer:     taskServer,
		agentServer:    agentServer,
		eventServer:    eventServer,
	}
}

// Router assembles the full HTTP surface. Split out of ListenAndServe so
// tests can drive it through httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.Get("/", s.handleRoot)
		s.questionServer.Mount(r)
		s.epicServer.Mount(r)
		s.taskServer.Mount(r)
		s.agentServer.Mount(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	// The event stream writes directly to the connection, so it stays
	// outside the JSON response middleware.
	r.Group(func(r chi.Router) {
		r.Use(clog.SlogChiMiddleware())
		s.eventServer.Mount(r)
	})

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(r))
}

// ListenAndServe starts the HTTP server. The provided context is used as the
// base context for all incoming requests via http.Server.BaseContext, so
// cancelling it also cancels in-flight request and event-stream contexts.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"service": "questdesk",
		"version": Version,
		"endpoints": map[string]string{
			"questions": "/questions",
			"epics":     "/epics",
			"tasks":     "/tasks",
			"agents":    "/agents",
			"status":    "/status",
			"events":    "/events",
			"health":    "/health",
		},
	})
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	if s.env.APIKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health stays reachable for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.Header.Get("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}
		if apiKey != s.env.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
