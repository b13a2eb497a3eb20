package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	httpmiddleware "github.com/wolfeidau/sessionhub/internal/http"
)

func TestHTTPRequests(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "ok", status: http.StatusOK, wantLevel: "info"},
		{name: "client error", status: http.StatusNotFound, wantLevel: "warn"},
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHTTPRequests(zerolog.New(&buf))

			var sawLogger bool
			handler := httpmiddleware.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sawLogger = zerolog.Ctx(r.Context()).GetLevel() != zerolog.Disabled
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}), httpmiddleware.ClientIPMiddleware(), h.Handler)

			r := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
			r.Header.Set("X-Real-IP", "10.0.0.1")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			require.True(t, sawLogger)
			require.Equal(t, tt.status, w.Code)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			require.Equal(t, tt.wantLevel, line["level"])
			require.Equal(t, "GET", line["method"])
			require.Equal(t, "/api/sessions", line["path"])
			require.Equal(t, "10.0.0.1", line["addr"])
			require.EqualValues(t, tt.status, line["status"])
			require.EqualValues(t, 4, line["bytes"])
		})
	}
}

func TestHTTPRequests_implicitOK(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHTTPRequests(zerolog.New(&buf)).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.EqualValues(t, http.StatusOK, line["status"])
}

func TestHTTPRequests_addrFromClientIPMiddleware(t *testing.T) {
	t.Run("forwarded client", func(t *testing.T) {
		var buf bytes.Buffer
		handler := httpmiddleware.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
			httpmiddleware.ClientIPMiddleware(), NewHTTPRequests(zerolog.New(&buf)).Handler)

		r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		handler.ServeHTTP(httptest.NewRecorder(), r)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "203.0.113.7", line["addr"])
	})

	t.Run("no client ip in context", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewHTTPRequests(zerolog.New(&buf)).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		r.Header.Set("X-Real-IP", "10.0.0.1")
		handler.ServeHTTP(httptest.NewRecorder(), r)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.NotContains(t, line, "addr")
	})
}
