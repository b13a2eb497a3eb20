package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the publication state of a session.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid returns true if the status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Session is a wellness session record owned by a single principal.
// The exercises or meditations themselves live in externally hosted JSON referenced by ContentURL.
type Session struct {
	ID         uuid.UUID `json:"id"`       // UUIDv7
	OwnerID    uuid.UUID `json:"owner_id"` // Immutable after creation
	OwnerEmail string    `json:"owner_email,omitempty"`

	Title      string   `json:"title"`
	Tags       []string `json:"tags"`
	ContentURL string   `json:"content_url"`
	Status     Status   `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Tags = append([]string{}, s.Tags...)
	return &clone
}

// IsPublished returns true if the session is visible to everyone.
func (s *Session) IsPublished() bool {
	return s.Status == StatusPublished
}

// CanAccess reports whether callerID may read the session: the owner always can,
// anyone else (including anonymous callers passing uuid.Nil) only once it is published.
func CanAccess(s *Session, callerID uuid.UUID) bool {
	return CanModify(s, callerID) || s.IsPublished()
}

// CanModify reports whether callerID owns the session.
func CanModify(s *Session, callerID uuid.UUID) bool {
	return callerID != uuid.Nil && s.OwnerID == callerID
}
