package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"mcpdiag/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// shutdownTimeout is how long in-flight requests get to finish on shutdown
	shutdownTimeout = 5 * time.Second
)

// HTTPTransport serves the MCP streamable HTTP protocol with a chi router
type HTTPTransport struct {
	addr  string
	path  string
	token string
	log   *logger.Logger
}

// NewHTTPTransport creates an HTTP transport listening on addr and
// mounting the MCP endpoint at path. A non-empty token enables bearer auth.
func NewHTTPTransport(addr, path, token string, log *logger.Logger) *HTTPTransport {
	if log == nil {
		log = logger.Discard()
	}
	if path == "" {
		path = "/mcp"
	}
	return &HTTPTransport{
		addr:  addr,
		path:  path,
		token: token,
		log:   log,
	}
}

func (t *HTTPTransport) Name() string {
	return "http"
}

// Handler returns the router serving server.
// No request timeout middleware: a tool call may legitimately run for as long as the caller asked.
func (t *HTTPTransport) Handler(server *mcp.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	r.Group(func(r chi.Router) {
		r.Use(t.auth)
		r.Use(t.logRequests)
		r.Handle(t.path, streamable)
	})

	return r
}

// Serve listens on the configured address until ctx is cancelled
func (t *HTTPTransport) Serve(ctx context.Context, server *mcp.Server) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.addr, err)
	}
	return t.ServeListener(ctx, ln, server)
}

// ServeListener serves on an existing listener, which it takes ownership of
func (t *HTTPTransport) ServeListener(ctx context.Context, ln net.Listener, server *mcp.Server) error {
	srv := &http.Server{
		Handler:           t.Handler(server),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ln)
	}()
	t.log.Info("Listening on http://%s%s", ln.Addr(), t.path)

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// Long tool calls may still be running; cut them off
			_ = srv.Close()
		}
		<-done
		return nil
	}
}

func (t *HTTPTransport) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+t.token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *HTTPTransport) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		t.log.Debug("%s %s %d (%s) request_id=%s", r.Method, r.URL.Path, ww.Status(),
			time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
