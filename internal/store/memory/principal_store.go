package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/store"
)

// PrincipalStore implements store.PrincipalStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type PrincipalStore struct {
	mu sync.RWMutex

	principals map[uuid.UUID]*models.Principal // principal_id -> Principal
}

// NewPrincipalStore creates a new in-memory principal store.
func NewPrincipalStore() *PrincipalStore {
	return &PrincipalStore{
		principals: make(map[uuid.UUID]*models.Principal),
	}
}

// Get retrieves a principal by ID.
func (s *PrincipalStore) Get(ctx context.Context, principalID uuid.UUID) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	principal, exists := s.principals[principalID]
	if !exists {
		return nil, store.ErrPrincipalNotFound
	}

	// Clone to avoid external modifications
	clone := *principal
	return &clone, nil
}

// Upsert records a principal, keeping the original CreatedAt.
func (s *PrincipalStore) Upsert(ctx context.Context, principal *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	clone := *principal
	clone.LastSeenAt = now

	if existing, exists := s.principals[principal.PrincipalID]; exists {
		clone.CreatedAt = existing.CreatedAt
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}

	s.principals[principal.PrincipalID] = &clone
	return nil
}
