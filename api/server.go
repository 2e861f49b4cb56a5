// Package api provides the HTTP surface over the dashboard aggregator:
// the content endpoint, feedback submission, and health. Identity stays
// behind the session.Resolver contract; there is no auth logic here.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itayco2/cryptoadvisor/internal/config"
	"github.com/itayco2/cryptoadvisor/internal/dashboard"
	"github.com/itayco2/cryptoadvisor/internal/feedback"
	"github.com/itayco2/cryptoadvisor/internal/session"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	agg      *dashboard.Aggregator
	sessions session.Resolver
	prefs    session.PreferenceStore
	fb       feedback.Store
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, agg *dashboard.Aggregator, sessions session.Resolver, prefs session.PreferenceStore, fb feedback.Store) *Server {
	srv := &Server{
		cfg:      cfg,
		agg:      agg,
		sessions: sessions,
		prefs:    prefs,
		fb:       fb,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-done
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Printf("api: shutdown: %v", err)
		}
	}()

	log.Printf("api: listening on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.API.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/content", s.handleContent)
		r.Post("/feedback", s.handleFeedback)
	})

	return r
}

// --- Middleware ---

type contextKey string

const userIDKey contextKey = "userID"

// requireSession resolves the bearer token to a user id, rejecting the
// request when the token is missing or invalid.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		userID, ok := s.sessions.Resolve(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleContent assembles the dashboard for the authenticated user.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	prefs, _ := s.prefs.Get(userID)

	records, err := s.fb.ForUser(userID)
	if err != nil {
		log.Printf("api: load feedback for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp, err := s.agg.Aggregate(r.Context(), userID, prefs, feedback.NewSet(records))
	if err != nil {
		log.Printf("api: aggregate for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// feedbackRequest is the POST /api/dashboard/feedback payload.
type feedbackRequest struct {
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId"`
	IsPositive  bool   `json:"isPositive"`
}

// handleFeedback records one thumbs up/down. Re-submitting the recorded
// sign toggles it off; the opposite sign updates in place.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, ok := contentType(req.ContentType)
	if !ok || req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "Invalid content type or id")
		return
	}

	if err := s.fb.Submit(userID, kind, req.ContentID, req.IsPositive); err != nil {
		log.Printf("api: submit feedback for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback submitted successfully"})
}

func contentType(s string) (models.ContentType, bool) {
	switch models.ContentType(s) {
	case models.ContentNews, models.ContentPrice, models.ContentInsight, models.ContentMeme:
		return models.ContentType(s), true
	}
	return "", false
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
