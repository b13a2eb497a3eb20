//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString, MinConns: 1})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestIntegration_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	sessions := NewSessionStore(pool)
	principals := NewPrincipalStore(pool)

	u1 := uuid.Must(uuid.NewV7())
	u2 := uuid.Must(uuid.NewV7())
	require.NoError(t, principals.Upsert(ctx, &models.Principal{PrincipalID: u1, Email: "u1@example.com"}))

	var draft *models.Session

	t.Run("create draft", func(t *testing.T) {
		var err error
		draft, err = store.UpsertDraft(ctx, sessions, u1, nil, models.SessionFields{
			Title: "Morning Yoga",
			Tags:  models.ParseTags("yoga, morning"),
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusDraft, draft.Status)
		require.Equal(t, []string{"yoga", "morning"}, draft.Tags)
		require.Equal(t, u1, draft.OwnerID)
		require.Empty(t, draft.ContentURL)
	})

	t.Run("draft hidden from public list", func(t *testing.T) {
		list, err := sessions.ListPublished(ctx)
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("publish as owner", func(t *testing.T) {
		published, err := store.UpsertPublished(ctx, sessions, u1, &draft.ID, models.SessionFields{
			Title:      "Morning Yoga",
			Tags:       models.ParseTags("yoga, morning"),
			ContentURL: "https://host/m.json",
		})
		require.NoError(t, err)
		require.Equal(t, draft.ID, published.ID)
		require.Equal(t, models.StatusPublished, published.Status)
		require.Equal(t, "https://host/m.json", published.ContentURL)
		require.True(t, draft.CreatedAt.Equal(published.CreatedAt))
		require.True(t, published.UpdatedAt.After(draft.UpdatedAt))
	})

	t.Run("publish as other owner", func(t *testing.T) {
		_, err := store.UpsertPublished(ctx, sessions, u2, &draft.ID, models.SessionFields{Title: "Stolen"})
		require.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("get as other owner matches missing id", func(t *testing.T) {
		_, errOther := sessions.GetByIDForOwner(ctx, draft.ID, u2)
		_, errMissing := sessions.GetByIDForOwner(ctx, uuid.Must(uuid.NewV7()), u1)
		require.ErrorIs(t, errOther, store.ErrSessionNotFound)
		require.Equal(t, errOther, errMissing)
	})

	t.Run("public list has owner email", func(t *testing.T) {
		list, err := sessions.ListPublished(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "u1@example.com", list[0].OwnerEmail)
	})

	t.Run("list by owner newest updated first", func(t *testing.T) {
		second, err := store.UpsertDraft(ctx, sessions, u1, nil, models.SessionFields{Title: "Evening"})
		require.NoError(t, err)

		list, err := sessions.ListByOwner(ctx, u1)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, second.ID, list[0].ID)

		other, err := sessions.ListByOwner(ctx, u2)
		require.NoError(t, err)
		require.Empty(t, other)
	})

	t.Run("validation before write", func(t *testing.T) {
		_, err := store.UpsertDraft(ctx, sessions, u1, nil, models.SessionFields{Title: "t", ContentURL: "ftp://x"})
		require.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestIntegration_MigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	require.NoError(t, RunMigrations(ctx, pool))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, 1, count)
}
