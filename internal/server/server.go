// Package server hosts the chat widget: a page shell, a JSON render API and a
// WebSocket endpoint that walks a session through the question flow.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conneroisu/bleak/internal/di"
	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/logging"
	"github.com/conneroisu/bleak/internal/middleware"
	"github.com/conneroisu/bleak/internal/validation"
)

const shutdownTimeout = 5 * time.Second

// ChatServer serves the chat widget over HTTP and WebSocket
type ChatServer struct {
	container    *di.ServiceContainer
	logger       logging.Logger
	errors       *errors.ErrorHandler
	httpServer   *http.Server
	serverMutex  sync.RWMutex
	clients      map[*websocket.Conn]*chatClient
	clientsMutex sync.RWMutex
	shutdownOnce sync.Once
	isShutdown   bool
}

// New creates a chat server over an initialized container
func New(container *di.ServiceContainer) (*ChatServer, error) {
	if _, err := container.GetRenderer(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, errors.ErrCodeConfigInvalid, "chat server needs an initialized container")
	}

	logger := container.GetLogger().WithComponent("server")
	return &ChatServer{
		container: container,
		logger:    logger,
		errors:    errors.NewErrorHandler(logger),
		clients:   make(map[*websocket.Conn]*chatClient),
	}, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *ChatServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/types", s.handleTypes)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.container.Gatherer(), promhttp.HandlerOpts{}))

	chain := middleware.NewMiddlewareChain(s.container.GetLogger(), s.container.GetConfig().Server.AllowedOrigins)
	return chain.Apply(mux)
}

// Start serves until ctx is cancelled or the listener fails.
func (s *ChatServer) Start(ctx context.Context) error {
	cfg := s.container.GetConfig().Server
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	if cfg.Open {
		go s.openBrowser(ctx, "http://"+addr)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Chat server listening", "addr", "http://"+addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.WrapIO(err, errors.ErrCodeServerFailed, "listening on "+addr)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

func (s *ChatServer) openBrowser(ctx context.Context, url string) {
	time.Sleep(100 * time.Millisecond)

	if err := validation.ValidateURL(url); err != nil {
		s.logger.Warn(ctx, err, "Browser open failed due to invalid URL")
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	if err != nil {
		s.logger.Warn(ctx, err, "Failed to open browser")
	}
}

// Shutdown closes every chat connection and stops the HTTP server
func (s *ChatServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down chat server")

		s.clientsMutex.Lock()
		s.isShutdown = true
		conns := make([]*websocket.Conn, 0, len(s.clients))
		for conn := range s.clients {
			conns = append(conns, conn)
		}
		s.clients = make(map[*websocket.Conn]*chatClient)
		s.clientsMutex.Unlock()

		for _, conn := range conns {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// SessionCount returns the number of open chat sessions
func (s *ChatServer) SessionCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

func (s *ChatServer) register(client *chatClient) bool {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	if s.isShutdown {
		return false
	}
	s.clients[client.conn] = client
	return true
}

func (s *ChatServer) unregister(conn *websocket.Conn) {
	s.clientsMutex.Lock()
	delete(s.clients, conn)
	s.clientsMutex.Unlock()
}
