package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pegboard-io/pegboard/internal/tenant"
)

// Server wraps the HTTP server, the tenant router, and the live-update
// machinery (WebSocket hub plus store watcher).
type Server struct {
	httpServer *http.Server
	watcher    *StoreWatcher
	wsHub      *WebSocketHub
	admin      *AdminHandler
}

// NewServer creates a server for the given handler and admin surface.
// Board-scoped requests (/board/{uid}/...) are routed to that tenant's
// store; everything else under /api/ runs against the default store.
func NewServer(handler *Handler, admin *AdminHandler, registry *tenant.Registry, port int) *Server {
	wsHub := NewWebSocketHub()
	handler.SetHub(wsHub)

	// Inner mux carries the board API; the tenant router strips the
	// /board/{uid} prefix before requests reach it.
	apiMux := http.NewServeMux()
	handler.RegisterRoutes(apiMux)
	apiMux.HandleFunc("GET /api/v1/ws", wsHub.ServeWS)

	routed := TenantRouter(registry, apiMux)

	// Admin routes sit outside the tenant router so /admin is never
	// interpreted as a board path.
	outer := http.NewServeMux()
	admin.RegisterRoutes(outer)
	outer.Handle("/", routed)

	var watcher *StoreWatcher
	w, err := NewStoreWatcher(registry.DataDir())
	if err != nil {
		slog.Warn("failed to create store watcher", "error", err)
	} else {
		w.Subscribe(wsHub)
		watcher = w
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      Logging(Cors(outer)),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		watcher: watcher,
		wsHub:   wsHub,
		admin:   admin,
	}
}

// Start begins listening for HTTP requests. Blocks until shutdown.
func (s *Server) Start() error {
	if !s.admin.Enabled() {
		slog.Warn("admin API disabled: no admin token configured")
	}

	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			slog.Warn("failed to start store watcher", "error", err)
		}
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
