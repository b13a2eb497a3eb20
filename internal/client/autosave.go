package client

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/server"
)

// DefaultAutoSaveInterval is how often an editor saves a changed draft.
const DefaultAutoSaveInterval = 30 * time.Second

// DraftSaver saves a draft. *Client satisfies it.
type DraftSaver interface {
	SaveDraft(ctx context.Context, req server.SaveRequest) (*models.Session, error)
}

// AutoSaver periodically saves the draft being edited when it changed since the last save.
// Saves are ordinary save-draft calls; the first one creates the session and its id is
// reused for every save after that.
type AutoSaver struct {
	saver    DraftSaver
	interval time.Duration

	mu        sync.Mutex
	draft     server.SaveRequest
	lastSaved *server.SaveRequest
}

// NewAutoSaver creates an auto saver. A zero interval uses DefaultAutoSaveInterval.
func NewAutoSaver(saver DraftSaver, interval time.Duration) *AutoSaver {
	if interval <= 0 {
		interval = DefaultAutoSaveInterval
	}
	return &AutoSaver{saver: saver, interval: interval}
}

// Update replaces the draft being edited. An empty ID keeps the id adopted from an earlier save.
func (a *AutoSaver) Update(draft server.SaveRequest) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if draft.ID == "" {
		draft.ID = a.draft.ID
	}
	draft.Tags = slices.Clone(draft.Tags)
	a.draft = draft
}

// ID returns the id of the saved session, empty until the first save succeeds.
func (a *AutoSaver) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft.ID
}

// Flush saves the draft now if it changed. It returns nil, nil when there was nothing to save.
// A draft without a title is never sent since the server would reject it.
func (a *AutoSaver) Flush(ctx context.Context) (*models.Session, error) {
	a.mu.Lock()
	if strings.TrimSpace(a.draft.Title) == "" || (a.lastSaved != nil && sameDraft(*a.lastSaved, a.draft)) {
		a.mu.Unlock()
		return nil, nil
	}
	pending := a.draft
	pending.Tags = slices.Clone(a.draft.Tags)
	a.mu.Unlock()

	session, err := a.saver.SaveDraft(ctx, pending)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pending.ID = session.ID.String()
	if a.draft.ID == "" {
		a.draft.ID = pending.ID
	}
	a.lastSaved = &pending

	return session, nil
}

// Run saves on every tick until ctx is cancelled, then makes a final save.
// Failed saves are logged and retried on the next tick.
func (a *AutoSaver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if _, err := a.Flush(finalCtx); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("Final auto save failed")
				return err
			}
			return nil
		case <-ticker.C:
			session, err := a.Flush(ctx)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("Auto save failed")
				continue
			}
			if session != nil {
				zerolog.Ctx(ctx).Debug().Str("session_id", session.ID.String()).Msg("Draft auto saved")
			}
		}
	}
}

func sameDraft(a, b server.SaveRequest) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.ContentURL == b.ContentURL &&
		slices.Equal(a.Tags, b.Tags)
}
