package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/accessory"
	"github.com/muurk/mhacwifi/internal/logging"
	"github.com/muurk/mhacwifi/internal/metrics"
)

const (
	// DefaultPort is the default bridge listen port
	DefaultPort = 8581

	// DefaultPollInterval is the default interval between data point polls
	DefaultPollInterval = 10 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Accessory is the heater/cooler view served by the bridge
type Accessory interface {
	Information() accessory.Information
	Get(ctx context.Context, name string) (float64, error)
	Set(ctx context.Context, name string, value float64) error
	Snapshot(ctx context.Context) (*accessory.State, error)
	Identify(ctx context.Context) error
}

// Config holds the bridge configuration
type Config struct {
	Host         string
	Port         int
	PollInterval time.Duration
}

// Server exposes one accessory over HTTP and streams value changes to
// websocket subscribers
type Server struct {
	config    Config
	accessory Accessory
	registry  *metrics.Registry
	hub       *hub

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a bridge server. registry may be nil to disable /metrics.
func New(acc Accessory, registry *metrics.Registry, config Config) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	var m *metrics.Metrics
	if registry != nil {
		m = registry.Metrics
	}

	return &Server{
		config:    config,
		accessory: acc,
		registry:  registry,
		hub:       newHub(m),
	}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Handler returns the HTTP handler with every route registered
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/accessory", s.handleAccessory)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/characteristics/{name}", s.handleGetCharacteristic)
	mux.HandleFunc("PUT /api/characteristics/{name}", s.handleSetCharacteristic)
	mux.HandleFunc("POST /api/identify", s.handleIdentify)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	if s.registry != nil {
		mux.Handle("GET /metrics", s.registry.Handler())
	}
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	logging.Info("Bridge listening",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("poll_interval", s.config.PollInterval),
	)

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	go s.pollLoop(pollCtx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bridge server failed: %w", err)
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping bridge...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops accepting requests and disconnects all subscribers
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Bridge shutdown timeout, forcing close", zap.Error(err))
		return srv.Close()
	}
	logging.Info("Bridge stopped")
	return nil
}

// Subscribers returns the number of connected websocket subscribers
func (s *Server) Subscribers() int {
	return s.hub.count()
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack hands the connection to the websocket upgrader
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
		if s.registry != nil {
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			s.registry.Metrics.HTTPRequest(route, rec.status)
		}
	})
}
