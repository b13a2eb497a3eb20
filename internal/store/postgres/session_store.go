package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/store"
)

const sessionColumns = `session_id, owner_id, title, tags, content_url, status, created_at, updated_at`

// SessionStore implements store.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new PostgreSQL-backed session store.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{
		pool: pool,
	}
}

// ListPublished returns published sessions, newest created first, joined with the owner's email.
func (s *SessionStore) ListPublished(ctx context.Context) ([]*models.Session, error) {
	query := `
		SELECT
			s.session_id, s.owner_id, s.title, s.tags, s.content_url, s.status,
			s.created_at, s.updated_at, COALESCE(p.email, '')
		FROM sessions s
		LEFT JOIN principals p ON p.principal_id = s.owner_id
		WHERE s.status = $1
		ORDER BY s.created_at DESC, s.session_id DESC
	`

	rows, err := s.pool.Query(ctx, query, models.StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to list published sessions: %w", mapPostgresError(err))
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		var ownerEmail string
		session, err := scanSession(rows, &ownerEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		session.OwnerEmail = ownerEmail
		if !models.CanAccess(session, uuid.Nil) {
			continue
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", mapPostgresError(err))
	}

	return sessions, nil
}

// ListByOwner returns the owner's sessions, most recently updated first.
func (s *SessionStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE owner_id = $1
		ORDER BY updated_at DESC, session_id DESC
	`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", mapPostgresError(err))
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if !models.CanModify(session, ownerID) {
			continue
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", mapPostgresError(err))
	}

	return sessions, nil
}

// GetByIDForOwner retrieves a session owned by ownerID.
func (s *SessionStore) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE session_id = $1 AND owner_id = $2
	`

	session, err := scanSession(s.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", mapPostgresError(err))
	}

	if !models.CanModify(session, ownerID) {
		return nil, store.ErrSessionNotFound
	}

	return session, nil
}

// Upsert creates or replaces a session owned by ownerID.
func (s *SessionStore) Upsert(ctx context.Context, ownerID uuid.UUID, id *uuid.UUID, fields models.SessionFields, status models.Status) (*models.Session, error) {
	fields, err := store.PrepareFields(fields, status)
	if err != nil {
		return nil, err
	}

	// TIMESTAMPTZ keeps microseconds, truncate so returned values match what is stored
	now := time.Now().UTC().Truncate(time.Microsecond)

	if id == nil {
		return s.create(ctx, ownerID, fields, status, now)
	}

	query := `
		UPDATE sessions
		SET title = $3, tags = $4, content_url = $5, status = $6, updated_at = $7
		WHERE session_id = $1 AND owner_id = $2
		RETURNING ` + sessionColumns

	session, err := scanSession(s.pool.QueryRow(ctx, query,
		*id,
		ownerID,
		fields.Title,
		fields.Tags,
		fields.ContentURL,
		status,
		now,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to update session: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("session_id", session.ID.String()).
		Str("owner_id", ownerID.String()).
		Str("status", string(status)).
		Msg("Updated session")

	return session, nil
}

func (s *SessionStore) create(ctx context.Context, ownerID uuid.UUID, fields models.SessionFields, status models.Status, now time.Time) (*models.Session, error) {
	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + sessionColumns

	session, err := scanSession(s.pool.QueryRow(ctx, query,
		sessionID,
		ownerID,
		fields.Title,
		fields.Tags,
		fields.ContentURL,
		status,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("session_id", session.ID.String()).
		Str("owner_id", ownerID.String()).
		Str("status", string(status)).
		Msg("Created session")

	return session, nil
}

// scanSession reads the sessionColumns of a row, followed by any extra selected columns.
func scanSession(row pgx.Row, extra ...any) (*models.Session, error) {
	var session models.Session
	dest := append([]any{
		&session.ID,
		&session.OwnerID,
		&session.Title,
		&session.Tags,
		&session.ContentURL,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if session.Tags == nil {
		session.Tags = []string{}
	}
	return &session, nil
}
