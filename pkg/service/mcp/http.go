package mcp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/euonia/pkg/auth"
	"github.com/m-mizutani/euonia/pkg/model"
	goaltool "github.com/m-mizutani/euonia/pkg/tool/goal"
	"github.com/m-mizutani/euonia/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const sessionIDHeader = "Mcp-Session-Id"

type ctxUserKey struct{}

// HTTPHandler serves the goal tools over streamable HTTP. Every request needs a
// bearer session token. An MCP session is created for the token's user and
// only that user may use it afterwards.
type HTTPHandler struct {
	verifier *auth.Verifier
	handler  http.Handler

	mu     sync.Mutex
	owners map[string]model.UserID
}

// NewHTTPHandler creates the streamable HTTP endpoint
func NewHTTPHandler(goals *goaltool.Tool, verifier *auth.Verifier, version string) *HTTPHandler {
	h := &HTTPHandler{
		verifier: verifier,
		owners:   make(map[string]model.UserID),
	}

	h.handler = mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		uid, _ := r.Context().Value(ctxUserKey{}).(model.UserID)
		server, err := newServer(goals, uid, version, &mcp.ServerOptions{
			GetSessionID: func() string {
				sid := uuid.NewString()
				h.bind(sid, uid)
				return sid
			},
		})
		if err != nil {
			logging.From(r.Context()).Warn("failed to create MCP server", "error", err)
			return nil
		}
		return server
	}, nil)

	return h
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid, err := h.verifier.Verify(auth.TokenFromRequest(r, ""))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if sid := r.Header.Get(sessionIDHeader); sid != "" {
		if owner, ok := h.owner(sid); ok && owner != uid {
			logging.From(r.Context()).Warn("MCP session used by another user", "uid", uid)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if r.Method == http.MethodDelete {
			defer h.unbind(sid)
		}
	}

	h.handler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, uid)))
}

func (h *HTTPHandler) bind(sid string, uid model.UserID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.owners[sid] = uid
}

func (h *HTTPHandler) owner(sid string) (model.UserID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	uid, ok := h.owners[sid]
	return uid, ok
}

func (h *HTTPHandler) unbind(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.owners, sid)
}

// ListenAndServe listens on addr until ctx is canceled, then shuts down gracefully
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("starting MCP HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- goerr.Wrap(err, "MCP HTTP server failed", goerr.V("addr", addr))
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shut down MCP HTTP server")
	}
	return nil
}
