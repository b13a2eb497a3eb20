package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/store"
)

// SessionStore implements store.SessionStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type SessionStore struct {
	mu sync.RWMutex

	sessions        map[uuid.UUID]*models.Session // session_id -> Session
	sessionsByOwner map[uuid.UUID][]uuid.UUID     // owner_id -> []session_id

	principals store.PrincipalStore
	now        func() time.Time
}

// NewSessionStore creates a new in-memory session store.
// principals is used to resolve owner emails for published listings and may be nil.
func NewSessionStore(principals store.PrincipalStore) *SessionStore {
	return &SessionStore{
		sessions:        make(map[uuid.UUID]*models.Session),
		sessionsByOwner: make(map[uuid.UUID][]uuid.UUID),
		principals:      principals,
		now:             time.Now,
	}
}

// ListPublished returns published sessions, newest created first.
func (s *SessionStore) ListPublished(ctx context.Context) ([]*models.Session, error) {
	s.mu.RLock()
	result := make([]*models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if models.CanAccess(session, uuid.Nil) {
			result = append(result, session.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(result, func(a, b *models.Session) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})

	for _, session := range result {
		session.OwnerEmail = s.ownerEmail(ctx, session.OwnerID)
	}

	return result, nil
}

// ListByOwner returns the owner's sessions, most recently updated first.
func (s *SessionStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Session, 0, len(s.sessionsByOwner[ownerID]))
	for _, id := range s.sessionsByOwner[ownerID] {
		session := s.sessions[id]
		if models.CanModify(session, ownerID) {
			result = append(result, session.Clone())
		}
	}

	slices.SortFunc(result, func(a, b *models.Session) int {
		return newestFirst(a.UpdatedAt, b.UpdatedAt, a.ID, b.ID)
	})

	return result, nil
}

// GetByIDForOwner retrieves a session owned by ownerID.
func (s *SessionStore) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists || !models.CanModify(session, ownerID) {
		return nil, store.ErrSessionNotFound
	}

	return session.Clone(), nil
}

// Upsert creates or replaces a session owned by ownerID.
func (s *SessionStore) Upsert(ctx context.Context, ownerID uuid.UUID, id *uuid.UUID, fields models.SessionFields, status models.Status) (*models.Session, error) {
	fields, err := store.PrepareFields(fields, status)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if id == nil {
		sessionID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session id: %w", err)
		}

		session := &models.Session{
			ID:         sessionID,
			OwnerID:    ownerID,
			Title:      fields.Title,
			Tags:       fields.Tags,
			ContentURL: fields.ContentURL,
			Status:     status,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		s.sessions[sessionID] = session
		s.sessionsByOwner[ownerID] = append(s.sessionsByOwner[ownerID], sessionID)

		return session.Clone(), nil
	}

	session, exists := s.sessions[*id]
	if !exists || !models.CanModify(session, ownerID) {
		return nil, store.ErrSessionNotFound
	}

	// Full replace of the editable fields, owner and creation time are kept
	session.Title = fields.Title
	session.Tags = fields.Tags
	session.ContentURL = fields.ContentURL
	session.Status = status
	session.UpdatedAt = now

	return session.Clone(), nil
}

func (s *SessionStore) ownerEmail(ctx context.Context, ownerID uuid.UUID) string {
	if s.principals == nil {
		return ""
	}

	principal, err := s.principals.Get(ctx, ownerID)
	if err != nil {
		return ""
	}
	return principal.Email
}

// newestFirst orders by timestamp descending, falling back to the time ordered UUIDv7.
func newestFirst(a, b time.Time, aID, bID uuid.UUID) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return cmp.Compare(bID.String(), aID.String())
}
