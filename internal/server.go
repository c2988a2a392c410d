package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/an4xdev/SprintForge/internal/config"
	"github.com/an4xdev/SprintForge/internal/live"
	"github.com/an4xdev/SprintForge/internal/sprint"
	"github.com/an4xdev/SprintForge/internal/task"
	"github.com/an4xdev/SprintForge/internal/taskhistory"
	"github.com/an4xdev/SprintForge/pkg/cerr"
	"github.com/an4xdev/SprintForge/pkg/clog"
)

type Server struct {
	server        *http.Server
	env           *config.Env
	taskServer    *task.Server
	historyServer *taskhistory.Server
	sprintServer  *sprint.Server
	liveHub       *live.Hub
	health        *HealthChecker
}

func NewServer(
	env *config.Env,
	taskServer *task.Server,
	historyServer *taskhistory.Server,
	sprintServer *sprint.Server,
	liveHub *live.Hub,
	health *HealthChecker,
) *Server {
	return &Server{
		env:           env,
		taskServer:    taskServer,
		historyServer: historyServer,
		sprintServer:  sprintServer,
		liveHub:       liveHub,
		health:        health,
	}
}

// Handler builds the full HTTP handler tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		s.taskServer.Routes(r)
		s.historyServer.Routes(r)
		s.sprintServer.Routes(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "method not allowed", nil)
		})
	})
	r.Handle("/health", s.health)
	// the websocket handler writes to the connection itself, so it stays
	// outside the JSON middleware
	r.Handle("/ws", s.liveHub)

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}).Handler(r), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it also ends long-lived websocket sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker reports 200 when every dependency answers and 503
// otherwise, with the per-dependency state in the body.
type HealthChecker struct {
	deps    map[string]Pinger
	timeout time.Duration
}

func NewHealthChecker(deps map[string]Pinger) *HealthChecker {
	return &HealthChecker{deps: deps, timeout: 3 * time.Second}
}

type healthReport struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hc.timeout)
	defer cancel()

	report := healthReport{Status: "ok", Dependencies: make(map[string]string, len(hc.deps))}
	status := http.StatusOK
	for name, dep := range hc.deps {
		if err := dep.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			report.Dependencies[name] = "down"
			report.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		report.Dependencies[name] = "up"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
