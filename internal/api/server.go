// Package api is the thin HTTP transport over the conversation engine.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/propline/coldcall/internal/audit"
)

// Conversationalist is the engine surface the transport maps onto.
type Conversationalist interface {
	Chat(ctx context.Context, identity, message string) (string, error)
	Reset(ctx context.Context, identity string) error
}

// AuditReader lists a caller's audit trail.
type AuditReader interface {
	ListAudit(ctx context.Context, identity string, limit int) ([]audit.Entry, error)
}

type Server struct {
	router *chi.Mux
	port   int
	engine Conversationalist
	audits AuditReader
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func NewServer(port int, apiToken string, engine Conversationalist, audits AuditReader) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		engine: engine,
		audits: audits,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/coldcall/status", s.status)
	router.Post("/api/v1/chat", s.chat)
	router.Post("/api/v1/reset", s.reset)

	router.Route("/api/v1/conversations", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/{identity}/audit", s.listAudit)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// BearerAuthMiddleware rejects requests without the configured bearer token.
// An empty configured token disables the endpoints it guards.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, `{"error":"endpoint disabled: no API token configured"}`, http.StatusForbidden)
				return
			}
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != token {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "coldcall",
		"status":  "ok",
	})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return
	}

	reply, err := s.engine.Chat(r.Context(), req.UserID, req.Message)
	if err != nil {
		slog.Error("chat turn failed", "user_id", req.UserID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}

	if err := s.engine.Reset(r.Context(), req.UserID); err != nil {
		slog.Error("reset failed", "user_id", req.UserID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.audits.ListAudit(r.Context(), identity, limit)
	if err != nil {
		slog.Error("audit list failed", "identity", identity, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"identity": identity,
		"entries":  entries,
		"count":    len(entries),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
