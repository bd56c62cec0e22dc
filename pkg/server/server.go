package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/euonia/pkg/auth"
	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/usecase/chat"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
	"github.com/m-mizutani/euonia/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// SessionCookie carries the session token set by the web frontend
	SessionCookie = "__session"

	maxBodyBytes = 1 << 20

	msgInternalError = "internal server error"
)

// Server is the HTTP boundary of the assistant
type Server struct {
	chat     *chat.UseCase
	goals    *goaluc.UseCase
	verifier *auth.Verifier
	handler  http.Handler
}

// New creates a server and registers its routes
func New(chatUC *chat.UseCase, goals *goaluc.UseCase, verifier *auth.Verifier) *Server {
	s := &Server{
		chat:     chatUC,
		goals:    goals,
		verifier: verifier,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handleTurn)
	mux.HandleFunc("POST /chats", s.handleCreateChat)
	mux.HandleFunc("GET /chats/{chatId}", s.handleGetChat)
	mux.HandleFunc("GET /goals", s.handleListGoals)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = Chain(mux,
		WithRequestLogger,
		RequestLogging,
		Recover,
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- goerr.Wrap(err, "HTTP server failed", goerr.V("addr", addr))
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shut down HTTP server")
	}
	return nil
}

// authenticate resolves the caller from the session cookie or a bearer token
func (s *Server) authenticate(r *http.Request) (model.UserID, error) {
	return s.verifier.Verify(auth.TokenFromRequest(r, SessionCookie))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Debug("failed to write JSON response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// decodeBody reads a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid JSON body")
	}
	return nil
}
