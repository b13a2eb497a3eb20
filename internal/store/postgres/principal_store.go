package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/store"
)

// PrincipalStore implements store.PrincipalStore using PostgreSQL.
type PrincipalStore struct {
	pool *pgxpool.Pool
}

// NewPrincipalStore creates a new PostgreSQL-backed principal store.
// It shares the connection pool with other stores.
func NewPrincipalStore(pool *pgxpool.Pool) *PrincipalStore {
	return &PrincipalStore{
		pool: pool,
	}
}

// Get retrieves a principal by ID.
func (s *PrincipalStore) Get(ctx context.Context, principalID uuid.UUID) (*models.Principal, error) {
	query := `
		SELECT principal_id, email, created_at, last_seen_at
		FROM principals
		WHERE principal_id = $1
	`

	var principal models.Principal
	err := s.pool.QueryRow(ctx, query, principalID).Scan(
		&principal.PrincipalID,
		&principal.Email,
		&principal.CreatedAt,
		&principal.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", mapPostgresError(err))
	}

	return &principal, nil
}

// Upsert records a principal, refreshing email and last_seen_at on conflict.
func (s *PrincipalStore) Upsert(ctx context.Context, principal *models.Principal) error {
	query := `
		INSERT INTO principals (principal_id, email, created_at, last_seen_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (principal_id) DO UPDATE
		SET email = EXCLUDED.email, last_seen_at = EXCLUDED.last_seen_at
	`

	_, err := s.pool.Exec(ctx, query, principal.PrincipalID, principal.Email, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert principal: %w", mapPostgresError(err))
	}

	return nil
}
