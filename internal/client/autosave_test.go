package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/server"
)

type recordingSaver struct {
	mu    sync.Mutex
	id    uuid.UUID
	saves []server.SaveRequest
	err   error
}

func (r *recordingSaver) SaveDraft(ctx context.Context, req server.SaveRequest) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves = append(r.saves, req)
	if r.err != nil {
		return nil, r.err
	}
	return &models.Session{ID: r.id, Title: req.Title, Status: models.StatusDraft}, nil
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func TestAutoSaver_Flush(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{id: uuid.Must(uuid.NewV7())}
	a := NewAutoSaver(saver, 0)
	require.Equal(t, DefaultAutoSaveInterval, a.interval)

	// no title, nothing to send
	session, err := a.Flush(ctx)
	require.NoError(t, err)
	require.Nil(t, session)

	a.Update(server.SaveRequest{Title: "Morning Yoga", Tags: server.TagList{"yoga"}})

	session, err = a.Flush(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, saver.id.String(), a.ID())
	require.Empty(t, saver.saves[0].ID)

	// unchanged
	session, err = a.Flush(ctx)
	require.NoError(t, err)
	require.Nil(t, session)
	require.Equal(t, 1, saver.count())

	// edits keep the adopted id
	a.Update(server.SaveRequest{Title: "Morning Yoga", Tags: server.TagList{"yoga", "morning"}})
	_, err = a.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, saver.count())
	require.Equal(t, saver.id.String(), saver.saves[1].ID)
}

func TestAutoSaver_FlushError(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{err: errors.New("offline")}
	a := NewAutoSaver(saver, time.Second)
	a.Update(server.SaveRequest{Title: "Morning Yoga"})

	_, err := a.Flush(ctx)
	require.Error(t, err)
	require.Empty(t, a.ID())

	// still dirty, so the next attempt sends again
	saver.err = nil
	session, err := a.Flush(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, 2, saver.count())
}

func TestAutoSaver_Run(t *testing.T) {
	saver := &recordingSaver{id: uuid.Must(uuid.NewV7())}
	a := NewAutoSaver(saver, 10*time.Millisecond)
	a.Update(server.SaveRequest{Title: "Body Scan"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return saver.count() == 1 }, time.Second, 5*time.Millisecond)

	a.Update(server.SaveRequest{Title: "Body Scan", ContentURL: "https://x.io/b.json"})
	cancel()

	require.NoError(t, <-done)
	require.GreaterOrEqual(t, saver.count(), 2)
	require.Equal(t, "https://x.io/b.json", saver.saves[saver.count()-1].ContentURL)
}
