// Package health exposes liveness and metrics endpoints for the relay.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/pushgate/internal/infra/queue"
	"github.com/vietddude/pushgate/internal/infra/storage/postgres"
)

// Status levels, worst case wins.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusCritical = "critical"
)

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	queue  *queue.Client
	db     *postgres.DB // nil when audit storage is disabled
	server *http.Server
}

// NewServer creates a new health server.
func NewServer(port int, q *queue.Client, db *postgres.DB) *Server {
	mux := http.NewServeMux()
	s := &Server{
		queue: q,
		db:    db,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type dependency struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type report struct {
	Status   string                `json:"status"`
	Checks   map[string]dependency `json:"checks"`
	QueueLen int64                 `json:"queue_depth"`
}

func (s *Server) check(ctx context.Context) report {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rep := report{Status: StatusHealthy, Checks: make(map[string]dependency)}

	// The queue is the intake; losing it is critical.
	if err := s.queue.Ping(ctx); err != nil {
		rep.Status = StatusCritical
		rep.Checks["redis"] = dependency{Status: StatusCritical, Error: err.Error()}
	} else {
		rep.Checks["redis"] = dependency{Status: StatusHealthy}
		if depth, err := s.queue.Depth(ctx); err == nil {
			rep.QueueLen = depth
		}
	}

	// The audit log is best effort; losing it only degrades.
	if s.db != nil {
		if err := s.db.Health(ctx); err != nil {
			if rep.Status == StatusHealthy {
				rep.Status = StatusDegraded
			}
			rep.Checks["postgres"] = dependency{Status: StatusDegraded, Error: err.Error()}
		} else {
			rep.Checks["postgres"] = dependency{Status: StatusHealthy}
		}
	}

	return rep
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rep := s.check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if rep.Status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": rep.Status})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	rep := s.check(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rep)
}
