package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionhub/internal/auth"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/store"
	"github.com/wolfeidau/sessionhub/internal/telemetry"
)

// ErrUnauthenticated is returned when an operation needs a caller identity and none was supplied.
var ErrUnauthenticated = errors.New("user not authenticated")

// SessionService implements the session operations. The caller identity is always
// passed in explicitly; a nil caller means the request carried no valid identity.
type SessionService struct {
	store   store.SessionStore
	metrics *telemetry.Metrics
}

// NewSessionService creates a new session service backed by sessionStore.
func NewSessionService(sessionStore store.SessionStore) *SessionService {
	return &SessionService{
		store:   sessionStore,
		metrics: telemetry.GetMetrics(),
	}
}

// ListPublic returns every published session. No identity is required.
func (s *SessionService) ListPublic(ctx context.Context) ([]*models.Session, error) {
	defer s.observe(ctx, "list_public", time.Now())

	sessions, err := s.store.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	s.metrics.SessionsListedTotal.Add(ctx, int64(len(sessions)))
	return sessions, nil
}

// ListMine returns all sessions owned by caller.
func (s *SessionService) ListMine(ctx context.Context, caller *auth.Principal) ([]*models.Session, error) {
	if !authenticated(caller) {
		return nil, ErrUnauthenticated
	}
	defer s.observe(ctx, "list_mine", time.Now())

	sessions, err := s.store.ListByOwner(ctx, caller.PrincipalID)
	if err != nil {
		return nil, err
	}

	s.metrics.SessionsListedTotal.Add(ctx, int64(len(sessions)))
	return sessions, nil
}

// GetMine returns one of caller's sessions. A malformed id is reported as not found.
func (s *SessionService) GetMine(ctx context.Context, caller *auth.Principal, id string) (*models.Session, error) {
	if !authenticated(caller) {
		return nil, ErrUnauthenticated
	}
	defer s.observe(ctx, "get_mine", time.Now())

	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrSessionNotFound
	}

	return s.store.GetByIDForOwner(ctx, sessionID, caller.PrincipalID)
}

// SaveDraft creates or replaces one of caller's sessions and leaves it as a draft.
// Saving an already published session moves it back to draft.
func (s *SessionService) SaveDraft(ctx context.Context, caller *auth.Principal, req SaveRequest) (*models.Session, error) {
	session, err := s.save(ctx, caller, req, models.StatusDraft)
	if err != nil {
		return nil, err
	}

	s.metrics.DraftsSavedTotal.Add(ctx, 1)
	return session, nil
}

// Publish creates or replaces one of caller's sessions and makes it visible to everyone.
func (s *SessionService) Publish(ctx context.Context, caller *auth.Principal, req SaveRequest) (*models.Session, error) {
	session, err := s.save(ctx, caller, req, models.StatusPublished)
	if err != nil {
		return nil, err
	}

	s.metrics.SessionsPublishedTotal.Add(ctx, 1)
	return session, nil
}

// authenticated reports whether caller names a principal that can own sessions.
// The nil UUID never matches an owner, so it is treated as no identity.
func authenticated(caller *auth.Principal) bool {
	return caller != nil && caller.PrincipalID != uuid.Nil
}

func (s *SessionService) save(ctx context.Context, caller *auth.Principal, req SaveRequest, status models.Status) (*models.Session, error) {
	if !authenticated(caller) {
		return nil, ErrUnauthenticated
	}
	defer s.observe(ctx, "save_"+string(status), time.Now())

	if strings.TrimSpace(req.Title) == "" {
		s.metrics.ValidationErrorsTotal.Add(ctx, 1)
		return nil, &models.ValidationError{Fields: map[string]string{"title": "Title is required"}}
	}

	var id *uuid.UUID
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, store.ErrSessionNotFound
		}
		id = &parsed
	}

	session, err := s.store.Upsert(ctx, caller.PrincipalID, id, req.Fields(), status)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			s.metrics.ValidationErrorsTotal.Add(ctx, 1)
		}
		return nil, err
	}

	if id == nil {
		s.metrics.SessionsCreatedTotal.Add(ctx, 1)
		zerolog.Ctx(ctx).Info().
			Str("session_id", session.ID.String()).
			Str("status", string(session.Status)).
			Msg("Session created")
	}

	return session, nil
}

func (s *SessionService) observe(ctx context.Context, operation string, started time.Time) {
	s.metrics.RecordOperation(ctx, operation, float64(time.Since(started).Milliseconds()))
}
