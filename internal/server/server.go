package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/integra-bridge/internal/accessory"
	"github.com/muurk/integra-bridge/internal/integra"
	"github.com/muurk/integra-bridge/internal/logging"
	"github.com/muurk/integra-bridge/internal/protocol"
)

// Source is the part of *integra.Client the server reads from.
type Source interface {
	ReadInfo(ctx context.Context) (protocol.SystemInfo, error)
	Info() (protocol.SystemInfo, bool)
	Latest() (protocol.ZoneStates, bool)
	Subscribe() (<-chan protocol.ZoneStates, func())
	Stats() integra.Stats
	Addr() string
}

// Config holds the server configuration
type Config struct {
	Listen string // host:port, e.g. ":8094"
}

// Server exposes controller state over HTTP and WebSocket
type Server struct {
	config   *Config
	source   Source
	zones    *accessory.Set
	router   *gin.Engine
	upgrader websocket.Upgrader

	listener   net.Listener
	httpServer *http.Server

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn
}

// New creates a new Server instance
func New(config *Config, source Source, zones *accessory.Set) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:      config,
		source:      source,
		zones:       zones,
		activeConns: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	s.registerRoutes(router)
	s.router = router

	return s
}

// Handler returns the HTTP handler, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the listen address. Start serves on it.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener
	return nil
}

// Port returns the bound TCP port, or 0 before Listen
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Start serves HTTP until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logging.Info("HTTP server listening",
		zap.String("addr", s.listener.Addr().String()),
		zap.String("controller", s.source.Addr()),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP server...")

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	// Hijacked WebSocket connections are not tracked by http.Server
	s.mu.Lock()
	for id, conn := range s.activeConns {
		logging.Debug("Closing WebSocket client", zap.String("client_id", id))
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

	return err
}

// GetActiveConnections returns the number of connected WebSocket clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) track(id string, conn *websocket.Conn) {
	s.mu.Lock()
	s.activeConns[id] = conn
	s.mu.Unlock()
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.activeConns, id)
	s.mu.Unlock()
}

// requestLogger logs each request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_addr", c.ClientIP()),
		)
	}
}
