package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	httpmiddleware "github.com/wolfeidau/sessionhub/internal/http"
)

func Setup(dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// HTTPRequests attaches a request scoped logger to each request context and
// logs one line per completed request.
type HTTPRequests struct {
	logger zerolog.Logger
}

func NewHTTPRequests(logger zerolog.Logger) *HTTPRequests {
	return &HTTPRequests{logger: logger}
}

func (h *HTTPRequests) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		fields := h.logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path)

		// set by httpmiddleware.ClientIPMiddleware, which runs ahead of this handler
		if ip := httpmiddleware.ClientIPFromContext(r.Context()); ip != "" {
			fields = fields.Str("addr", ip)
		}

		ctx := fields.Logger().WithContext(r.Context())

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		var evt *zerolog.Event
		switch {
		case rec.status >= http.StatusInternalServerError:
			evt = zerolog.Ctx(ctx).Error()
		case rec.status >= http.StatusBadRequest:
			evt = zerolog.Ctx(ctx).Warn()
		default:
			evt = zerolog.Ctx(ctx).Info()
		}

		evt.Int("status", rec.status).
			Int64("bytes", rec.bytes).
			Dur("duration", time.Since(started)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }
