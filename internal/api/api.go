// Package api exposes the intake conversation, the profile record and
// the weekly plan over an authenticated JSON HTTP surface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mealweek/internal/auth"
	"mealweek/internal/intake"
	"mealweek/internal/planner"
	"mealweek/internal/profile"
)

// sessionTTL is how long an idle intake conversation survives before it
// is treated as abandoned.
const sessionTTL = 24 * time.Hour

// Server wires the HTTP handlers to the application services.
type Server struct {
	verifier *auth.Verifier
	sessions *intake.SessionRepository
	profiles *profile.Repository
	planner  *planner.Planner

	now func() time.Time
}

// NewServer creates a Server. The clock is injectable for tests.
func NewServer(verifier *auth.Verifier, sessions *intake.SessionRepository, profiles *profile.Repository, pl *planner.Planner) *Server {
	return &Server{
		verifier: verifier,
		sessions: sessions,
		profiles: profiles,
		planner:  pl,
		now:      time.Now,
	}
}

// Handler returns the routed HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /intake/session", s.startIntakeHandler)
	mux.HandleFunc("POST /intake/answer", s.answerHandler)
	mux.HandleFunc("POST /intake/back", s.backHandler)
	mux.HandleFunc("GET /profile", s.getProfileHandler)
	mux.HandleFunc("PUT /profile", s.putProfileHandler)
	mux.HandleFunc("GET /plan", s.planHandler)
	mux.HandleFunc("POST /plan/regenerate", s.regenerateHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

// Run starts the HTTP server on addr and blocks.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// userID resolves the authenticated user or writes a 401 and reports
// false.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.verifier.UserFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}

// activeSession loads the caller's live session or writes a 409.
func (s *Server) activeSession(ctx context.Context, w http.ResponseWriter, userID string) (*intake.Session, bool) {
	sess, err := s.sessions.GetActive(ctx, userID, s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load intake session")
		return nil, false
	}
	if sess == nil {
		writeError(w, http.StatusConflict, "no active intake session: start one first")
		return nil, false
	}
	return sess, true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func mapPlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrProfileMissing):
		writeError(w, http.StatusConflict, "no meal profile yet: complete the intake first")
	default:
		var genErr *planner.GenerationError
		if errors.As(err, &genErr) {
			writeError(w, http.StatusBadGateway, "plan generation failed, please try again")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to produce plan")
	}
}
