package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/g6audio/g6ctl/internal/device"
	"github.com/g6audio/g6ctl/internal/logging"
)

// Config holds the bridge configuration
type Config struct {
	Host     string
	Port     int
	LogLevel string
}

// Source is the device-facing surface the bridge consumes. *device.Manager
// satisfies it.
type Source interface {
	State() device.Settings
	Subscribe() (<-chan device.Event, func())
}

// Server exposes device state and the event stream to local clients over
// HTTP and WebSocket. It is the surface a GUI frontend would attach to.
type Server struct {
	config      *Config
	source      Source
	listener    net.Listener
	httpServer  *http.Server
	upgrader    websocket.Upgrader
	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn
}

// New creates a new Server instance
func New(config *Config, source Source) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	s := &Server{
		config: config,
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local bridge: browser frontends connect from file:// or
			// localhost origins, so origin checking is disabled.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		activeConns: make(map[string]*websocket.Conn),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start starts the bridge and blocks until shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	logging.Info("Bridge listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("log_level", s.config.LogLevel),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping bridge...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the bridge
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Error("Error shutting down HTTP server", zap.Error(err))
	}

	// Close all active WebSocket connections
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GetActiveConnections returns the number of active WebSocket connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.source.State()); err != nil {
		logging.Error("Failed to encode state response",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{
		"connected": s.source.State().Connected,
		"clients":   s.GetActiveConnections(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error("Failed to encode health response", zap.Error(err))
	}
}

func (s *Server) trackConn(remoteAddr string, conn *websocket.Conn) {
	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()
}

func (s *Server) untrackConn(remoteAddr string) {
	s.mu.Lock()
	delete(s.activeConns, remoteAddr)
	s.mu.Unlock()
}
