package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionhub/internal/auth"
	"github.com/wolfeidau/sessionhub/internal/models"
)

// Server exposes the session service over HTTP.
type Server struct {
	sessions *SessionService
	now      func() time.Time
}

// NewServer creates a new server for the given service
func NewServer(sessions *SessionService) *Server {
	return &Server{
		sessions: sessions,
		now:      time.Now,
	}
}

// Handler returns the HTTP handler for the server. Routes are mounted under /api
// and also answer on the bare path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", s.health},
		{http.MethodGet, "/sessions", s.listPublic},
		{http.MethodGet, "/my-sessions", s.listMine},
		{http.MethodGet, "/my-sessions/{id}", s.getMine},
		{http.MethodPost, "/my-sessions/save-draft", s.saveDraft},
		{http.MethodPost, "/my-sessions/publish", s.publish},
	}
	for _, route := range routes {
		mux.HandleFunc(route.method+" /api"+route.path, route.handler)
		mux.HandleFunc(route.method+" "+route.path, route.handler)
	}

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "API route not found")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Page not found")
	})

	return recoverer(mux)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Message:   "Backend is working!",
	})
}

func (s *Server) listPublic(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListPublic(r.Context())
	if err != nil {
		writeServiceError(w, r, opListPublic, err)
		return
	}

	// anonymous data, short lived so clients can cache it
	w.Header().Set("Cache-Control", "public, max-age=5")
	writeJSON(w, http.StatusOK, nonNil(sessions))
}

func (s *Server) listMine(w http.ResponseWriter, r *http.Request) {
	caller := auth.PrincipalFromContext(r.Context())

	sessions, err := s.sessions.ListMine(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, opListMine, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(sessions))
}

func (s *Server) getMine(w http.ResponseWriter, r *http.Request) {
	caller := auth.PrincipalFromContext(r.Context())

	session, err := s.sessions.GetMine(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, opGetMine, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request) {
	caller := auth.PrincipalFromContext(r.Context())
	if caller == nil {
		writeServiceError(w, r, opSaveDraft, ErrUnauthenticated)
		return
	}

	var req SaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Invalid save draft body")
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.sessions.SaveDraft(r.Context(), caller, req)
	if err != nil {
		writeServiceError(w, r, opSaveDraft, err)
		return
	}

	writeJSON(w, http.StatusOK, SaveResponse{Message: "Draft saved successfully", Session: session})
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	caller := auth.PrincipalFromContext(r.Context())
	if caller == nil {
		writeServiceError(w, r, opPublish, ErrUnauthenticated)
		return
	}

	var req SaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Invalid publish body")
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.sessions.Publish(r.Context(), caller, req)
	if err != nil {
		writeServiceError(w, r, opPublish, err)
		return
	}

	writeJSON(w, http.StatusOK, SaveResponse{Message: "Session published successfully", Session: session})
}

func nonNil(sessions []*models.Session) []*models.Session {
	if sessions == nil {
		return []*models.Session{}
	}
	return sessions
}

// recoverer turns a handler panic into a generic 500 reply.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				zerolog.Ctx(r.Context()).Error().Interface("panic", rec).Msg("Handler panicked")
				writeMessage(w, http.StatusInternalServerError, "Something went wrong!")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
