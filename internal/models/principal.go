package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal is an authenticated user as seen by this service.
// Identity is issued elsewhere; we only keep what is needed to attribute published sessions.
type Principal struct {
	PrincipalID uuid.UUID
	Email       string // Public identifier shown next to published sessions

	CreatedAt  time.Time
	LastSeenAt time.Time
}
