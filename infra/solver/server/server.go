// Package server exposes a solver.Solver over HTTP using the remote package
// wire format.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/rotation/core/logger"
	"github.com/kilianp07/rotation/core/solver"
	infralogger "github.com/kilianp07/rotation/infra/logger"
	"github.com/kilianp07/rotation/infra/metrics"
	"github.com/kilianp07/rotation/infra/solver/remote"
)

// Config sets the listening address.
type Config struct {
	Address string `json:"address"`
	// MaxBodyMB caps the size of a posted model.
	MaxBodyMB int `json:"max_body_mb"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.MaxBodyMB <= 0 {
		c.MaxBodyMB = 64
	}
}

// Server answers solve requests with the wrapped solver.
type Server struct {
	mu       sync.RWMutex
	addr     string
	maxBody  int64
	solver   solver.Solver
	log      logger.Logger
	gatherer prometheus.Gatherer
	srv      *http.Server
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// New creates a Server using the default Prometheus registry.
func New(cfg Config, s solver.Solver) (*Server, error) {
	return NewWithRegistry(cfg, s, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates a Server registering its metrics on reg and
// serving /metrics from g.
func NewWithRegistry(cfg Config, s solver.Solver, reg prometheus.Registerer, g prometheus.Gatherer) (*Server, error) {
	cfg.SetDefaults()
	requests, err := metrics.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rotation_solve_requests_total",
		Help: "Solve requests by result status",
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}
	duration, err := metrics.Register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rotation_solve_request_seconds",
		Help:    "Time spent answering solve requests",
		Buckets: []float64{0.01, 0.1, 1, 10, 60, 300, 1500},
	}))
	if err != nil {
		return nil, err
	}
	return &Server{
		addr:     cfg.Address,
		maxBody:  int64(cfg.MaxBodyMB) << 20,
		solver:   s,
		log:      infralogger.New("solve-server"),
		gatherer: g,
		requests: requests,
		duration: duration,
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.accessLog)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			s.log.Errorf("write health: %v", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Post(remote.SolvePath, s.handleSolve)
	return r
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { s.duration.Observe(time.Since(start).Seconds()) }()

	var req remote.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&req); err != nil {
		s.requests.WithLabelValues("bad_request").Inc()
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == nil {
		s.requests.WithLabelValues("bad_request").Inc()
		http.Error(w, "bad request: model missing", http.StatusBadRequest)
		return
	}
	if err := req.Model.Validate(); err != nil {
		s.requests.WithLabelValues("bad_request").Inc()
		http.Error(w, "invalid model: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.log.Infof("solving %s: %d vars, %d constraints", req.Model.Name, len(req.Model.Vars), len(req.Model.Constraints))
	sol, err := s.solver.Solve(r.Context(), req.Model, req.Options.Options())
	resp := remote.Response{Status: sol.Status, Objective: sol.Objective, Values: sol.Values}
	if err != nil {
		resp = remote.Response{Status: solver.Classify(err), Message: err.Error()}
		s.log.Warnf("solve %s failed: %v", req.Model.Name, err)
	}
	s.requests.WithLabelValues(string(resp.Status)).Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Errorf("write response: %v", err)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Debugw("request served", map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   sw.status,
			"duration": time.Since(start).String(),
		})
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Errorf("panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
				http.Error(w, fmt.Sprintf("internal error: %v", rec), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Addr returns the listening address once Start has been called.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.srv = &http.Server{Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
		cancel()
	}()
	s.log.Infof("solve server listening on %s", ln.Addr())
	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
