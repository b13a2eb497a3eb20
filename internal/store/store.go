package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionhub/internal/models"
)

// Sentinel errors for common error conditions
var (
	// ErrSessionNotFound is returned both when a session does not exist and when it
	// belongs to someone else, so callers cannot tell the two apart.
	ErrSessionNotFound = errors.New("session not found or unauthorized")
)

// SessionStore defines the interface for session storage operations.
// Every method that reads or writes owner data takes the caller's identity explicitly.
type SessionStore interface {
	// ListPublished returns all published sessions, newest created first,
	// with OwnerEmail populated for display.
	ListPublished(ctx context.Context) ([]*models.Session, error)

	// ListByOwner returns all sessions owned by ownerID, most recently updated first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Session, error)

	// GetByIDForOwner returns the session if it exists and is owned by ownerID.
	// Returns ErrSessionNotFound otherwise.
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Session, error)

	// Upsert creates a session when id is nil, otherwise replaces the fields and status
	// of the existing session owned by ownerID. Fields are normalized and validated
	// before any write; a *models.ValidationError is returned on failure.
	// Returns ErrSessionNotFound when id does not match a session owned by ownerID.
	Upsert(ctx context.Context, ownerID uuid.UUID, id *uuid.UUID, fields models.SessionFields, status models.Status) (*models.Session, error)
}

// UpsertDraft saves fields as a draft.
func UpsertDraft(ctx context.Context, s SessionStore, ownerID uuid.UUID, id *uuid.UUID, fields models.SessionFields) (*models.Session, error) {
	return s.Upsert(ctx, ownerID, id, fields, models.StatusDraft)
}

// UpsertPublished saves fields and publishes the session.
func UpsertPublished(ctx context.Context, s SessionStore, ownerID uuid.UUID, id *uuid.UUID, fields models.SessionFields) (*models.Session, error) {
	return s.Upsert(ctx, ownerID, id, fields, models.StatusPublished)
}

// PrepareFields normalizes and validates fields ahead of a write.
// Every SessionStore implementation calls it before touching storage.
func PrepareFields(fields models.SessionFields, status models.Status) (models.SessionFields, error) {
	if !status.Valid() {
		return models.SessionFields{}, &models.ValidationError{Fields: map[string]string{"status": "Invalid status"}}
	}

	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return models.SessionFields{}, err
	}
	return fields, nil
}
