package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionhub/internal/models"
)

// Errors
var (
	ErrPrincipalNotFound = errors.New("principal not found")
)

// PrincipalStore keeps the principals seen by the auth gate so sessions can be attributed.
type PrincipalStore interface {
	// Get retrieves a principal by ID.
	// Returns ErrPrincipalNotFound if the principal is unknown.
	Get(ctx context.Context, principalID uuid.UUID) (*models.Principal, error)

	// Upsert records a principal, refreshing its email and last seen time.
	Upsert(ctx context.Context, principal *models.Principal) error
}
