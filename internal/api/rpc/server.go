// Package rpc implements the control RPC: a synchronous JSON-RPC-over-HTTP
// server that mutates the same PlayerControl/PlayoutStatus/ProcessControl
// blocks the Iterator drives, the way the teacher's internal/api/http
// server wraps its use cases behind a functional-options Server type.
package rpc

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"playoutd/internal/domain"
	"playoutd/internal/domain/ports"
	"playoutd/internal/services/playout/clock"
)

// Server is the control RPC: it owns no playout state of its own, only
// the shared blocks handed in at construction and a websocket hub for
// pushing Snapshot updates to live viewers.
type Server struct {
	player *domain.PlayerControl
	status *domain.PlayoutStatus
	proc   *domain.ProcessControl

	statusStore ports.StatusStore
	decoder     ports.DecoderSupervisor

	clockCfg     clock.Config
	sharedSecret string
	playMode     string

	rateLimitPerSec float64
	rateLimitBurst  int
	corsOrigins     []string

	logger  *slog.Logger
	hub     *wsHub
	handler http.Handler
}

// ServerOption configures optional Server collaborators, following the
// teacher's functional-options convention.
type ServerOption func(*Server)

func WithStatusStore(store ports.StatusStore) ServerOption {
	return func(s *Server) { s.statusStore = store }
}

func WithDecoderSupervisor(d ports.DecoderSupervisor) ServerOption {
	return func(s *Server) { s.decoder = d }
}

func WithSharedSecret(secret string) ServerOption {
	return func(s *Server) { s.sharedSecret = secret }
}

func WithPlayMode(mode string) ServerOption {
	return func(s *Server) { s.playMode = mode }
}

func WithRateLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) { s.rateLimitPerSec = perSecond; s.rateLimitBurst = burst }
}

func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) { s.corsOrigins = origins }
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer wires the RPC server's mux and middleware chain over the
// shared scheduler state. player, status and proc must be the same
// instances passed to the Iterator.
func NewServer(player *domain.PlayerControl, status *domain.PlayoutStatus, proc *domain.ProcessControl, clockCfg clock.Config, opts ...ServerOption) *Server {
	s := &Server{
		player:          player,
		status:          status,
		proc:            proc,
		clockCfg:        clockCfg,
		playMode:        "playlist",
		rateLimitPerSec: 5,
		rateLimitBurst:  10,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.hub = newWSHub(s.logger)
	go s.hub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePlayer)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "playoutd-rpc",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" }),
	)
	s.handler = recoveryMiddleware(s.logger,
		rateLimitMiddleware(s.rateLimitPerSec, s.rateLimitBurst,
			metricsMiddleware(corsMiddleware(s.corsOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops the websocket hub, disconnecting every live-status viewer.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
}

// PublishSnapshot pushes a scheduler snapshot to every connected
// websocket client. Iterator wires this in via WithSnapshotHook.
func (s *Server) PublishSnapshot(snap domain.Snapshot) {
	if s.hub != nil {
		s.hub.Broadcast(snap)
	}
}

func (s *Server) checkAuth(r *http.Request) bool {
	if s.sharedSecret == "" {
		return true
	}
	return strings.TrimSpace(r.Header.Get("authorization")) == s.sharedSecret
}

func (s *Server) killDecoder(ctx context.Context) {
	if s.decoder == nil {
		return
	}
	killCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.decoder.Kill(killCtx); err != nil {
		s.logger.Warn("rpc: decoder kill failed", "error", err)
	}
}

func (s *Server) persistStatus() {
	if s.statusStore == nil {
		return
	}
	if err := s.statusStore.Write(s.status.TimeShift(), s.status.Date()); err != nil {
		s.logger.Warn("rpc: status persist failed", "error", err)
	}
}
