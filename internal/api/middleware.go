package api

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pegboard-io/pegboard/internal/id"
	"github.com/pegboard-io/pegboard/internal/tenant"
)

// Cors wraps a handler with CORS headers.
func Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Logging wraps a handler with structured request logging. Each request gets
// a correlation id carried on the response header.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := id.Generate()
		w.Header().Set("X-Request-Id", reqID)

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		// The path is logged unstripped, so the board prefix stays visible.
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
			"request_id", reqID)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack implements http.Hijacker to support WebSocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

// TenantRouter routes /board/{uid}/... requests to the tenant's store by
// putting the uid on the request context and stripping the prefix before
// delegating. Requests without the prefix pass through untouched and run
// against the default store.
//
// A malformed uid is logged and treated as "no tenant" — the request falls
// back to the default store rather than failing here. A well-formed uid
// whose store does not exist is rejected with 401 before any query runs.
func TenantRouter(reg *tenant.Registry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, tenant.BoardPathPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		uid, rest, ok := tenant.IDFromPath(r.URL.Path)

		r2 := r.Clone(r.Context())
		r2.URL.Path = rest

		if !ok {
			slog.Warn("malformed board uid in path, using default store", "path", r.URL.Path)
			next.ServeHTTP(w, r2)
			return
		}

		if !reg.Exists(uid) {
			Unauthorized(w, "board not found: "+uid)
			return
		}

		next.ServeHTTP(w, r2.WithContext(tenant.WithID(r2.Context(), uid)))
	})
}
