package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionhub/cmd/cli/internal/credentials"
	"github.com/wolfeidau/sessionhub/internal/auth"
	"github.com/wolfeidau/sessionhub/internal/server"
	memorystore "github.com/wolfeidau/sessionhub/internal/store/memory"
)

type tokenVerifier map[string]*auth.Principal

func (v tokenVerifier) Verify(tokenStr string) (*auth.Principal, error) {
	if p, ok := v[tokenStr]; ok {
		return p, nil
	}
	return nil, errors.New("unknown token")
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	principals := memorystore.NewPrincipalStore()
	srv := server.NewServer(server.NewSessionService(memorystore.NewSessionStore(principals)))
	verifier := tokenVerifier{"t1": {PrincipalID: uuid.Must(uuid.NewV7()), Email: "u1@example.com"}}

	ts := httptest.NewServer(auth.Middleware(verifier, principals)(srv.Handler()))
	t.Cleanup(ts.Close)
	return ts
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadSessionFile(t *testing.T) {
	t.Run("list tags", func(t *testing.T) {
		path := writeFile(t, "s.yaml", "title: Morning Yoga\ntags:\n  - yoga\n  - morning\ncontent_url: https://x.io/a.json\n")

		req, err := loadSessionFile(path)
		require.NoError(t, err)
		assert.Equal(t, "Morning Yoga", req.Title)
		assert.Equal(t, server.TagList{"yoga", "morning"}, req.Tags)
		assert.Equal(t, "https://x.io/a.json", req.ContentURL)
	})

	t.Run("comma string tags", func(t *testing.T) {
		path := writeFile(t, "s.yaml", "id: abc\ntitle: Morning Yoga\ntags: yoga, morning\n")

		req, err := loadSessionFile(path)
		require.NoError(t, err)
		assert.Equal(t, "abc", req.ID)
		assert.Equal(t, server.TagList{"yoga", "morning"}, req.Tags)
	})

	t.Run("mapping tags are rejected", func(t *testing.T) {
		path := writeFile(t, "s.yaml", "title: x\ntags:\n  a: b\n")

		_, err := loadSessionFile(path)
		require.Error(t, err)
	})
}

func TestSessionInput_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "s.yaml", "title: From File\ntags: [a]\ncontent_url: https://x.io/a.json\n")

	in := SessionInput{File: path, Title: "From Flag", Tags: "b, c"}
	req, err := in.request()
	require.NoError(t, err)
	assert.Equal(t, "From Flag", req.Title)
	assert.Equal(t, server.TagList{"b", "c"}, req.Tags)
	assert.Equal(t, "https://x.io/a.json", req.ContentURL)
}

func TestCommands_EndToEnd(t *testing.T) {
	ctx := context.Background()
	ts := newTestAPI(t)
	configDir := t.TempDir()
	out := captureStdout(t)

	// bad token is not saved
	err := (&LoginCmd{Server: ts.URL, Token: "nope", Name: "default", Default: true, ConfigDir: configDir, Timeout: time.Second}).Run(ctx)
	require.Error(t, err)

	require.NoError(t, (&LoginCmd{Server: ts.URL, Token: "t1", Name: "default", Default: true, ConfigDir: configDir, Timeout: time.Second}).Run(ctx))

	store, err := credentials.NewStore(configDir)
	require.NoError(t, err)
	profile, err := store.GetDefault()
	require.NoError(t, err)
	assert.Equal(t, "t1", profile.Token)

	flags := ClientFlags{ConfigDir: configDir, Timeout: time.Second, NoDiskCache: true}

	err = (&SaveDraftCmd{ClientFlags: flags, SessionInput: SessionInput{Title: "Morning Yoga", Tags: "yoga, morning"}}).Run(ctx, &Globals{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Draft saved successfully")

	out.Reset()
	err = (&PublishCmd{ClientFlags: flags, SessionInput: SessionInput{Title: "Morning Yoga", ContentURL: "ftp://x"}}).Run(ctx, &Globals{})
	require.Error(t, err)
	assert.Contains(t, out.String(), "content_url: Must be a valid HTTP/HTTPS URL")

	out.Reset()
	require.NoError(t, (&MineCmd{ClientFlags: flags}).Run(ctx, &Globals{}))
	assert.Contains(t, out.String(), "Your sessions (1)")
	assert.Contains(t, out.String(), "Morning Yoga")

	out.Reset()
	require.NoError(t, (&ListCmd{ClientFlags: flags}).Run(ctx, &Globals{}))
	assert.Contains(t, out.String(), "No sessions found.")
}

func TestLoginCmd_ServerNotReachable(t *testing.T) {
	ctx := context.Background()
	configDir := t.TempDir()
	captureStdout(t)

	notSessionhub := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(notSessionhub.Close)

	err := (&LoginCmd{Server: notSessionhub.URL, Token: "t1", Name: "default", Default: true, ConfigDir: configDir, Timeout: time.Second}).Run(ctx)
	require.ErrorContains(t, err, "is not reachable")

	store, err := credentials.NewStore(configDir)
	require.NoError(t, err)
	_, err = store.GetDefault()
	require.ErrorIs(t, err, credentials.ErrNoDefaultProfile)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Morning...", truncate("Morning Yoga Flow", 10))
}
