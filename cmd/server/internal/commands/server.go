package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionhub/internal/auth"
	httpmiddleware "github.com/wolfeidau/sessionhub/internal/http"
	"github.com/wolfeidau/sessionhub/internal/logger"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/server"
	"github.com/wolfeidau/sessionhub/internal/store"
	memorystore "github.com/wolfeidau/sessionhub/internal/store/memory"
	postgresstore "github.com/wolfeidau/sessionhub/internal/store/postgres"
	"github.com/wolfeidau/sessionhub/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// devPrincipalID is the fixed identity used when authentication is disabled.
var devPrincipalID = uuid.MustParse("00000000-0000-7000-8000-000000000001")

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"SESSIONHUB_LISTEN"`
	Cert   string `help:"path to TLS cert file, plain HTTP when empty" default:"" env:"SESSIONHUB_TLS_CERT"`
	Key    string `help:"path to TLS key file, plain HTTP when empty" default:"" env:"SESSIONHUB_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"SESSIONHUB_CORS_ORIGINS"`

	// Auth configuration
	JWTPublicKey string `help:"PEM encoded ES256 public key, or a path to one" default:"" env:"SESSIONHUB_JWT_PUBLIC_KEY"`
	JWTIssuer    string `help:"required token issuer, empty disables the check" default:"sessionhub" env:"SESSIONHUB_JWT_ISSUER"`

	// Development and operational modes
	NoAuth           bool          `help:"disable authentication, every request acts as a fixed dev principal (development only)" default:"false" env:"SESSIONHUB_NO_AUTH"`
	Tracing          bool          `help:"enable tracing" default:"false" env:"SESSIONHUB_TRACING"`
	TraceSampleRatio float64       `help:"fraction of new traces sampled when tracing" default:"1" env:"SESSIONHUB_TRACE_SAMPLE_RATIO"`
	MetricsInterval  time.Duration `help:"how often session metrics are exported when tracing" default:"10s" env:"SESSIONHUB_METRICS_INTERVAL"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"SESSIONHUB_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`
	StartupTimeout  time.Duration `help:"how long to keep retrying the database at startup" default:"30s" env:"SESSIONHUB_POSTGRES_STARTUP_TIMEOUT"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"SESSIONHUB_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	if s.MinConns > s.MaxConns {
		return errors.New("postgres min conns must not exceed max conns")
	}
	return nil
}

// Validate is called by kong after parsing.
func (c *ServerCmd) Validate() error {
	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS needs both --cert and --key, or neither")
	}
	if !c.NoAuth && c.JWTPublicKey == "" {
		return errors.New("JWT public key is required (--jwt-public-key or SESSIONHUB_JWT_PUBLIC_KEY) unless --no-auth is set")
	}
	if c.StoreType == "postgres" {
		return c.PostgresStore.Validate()
	}
	return nil
}

func (c *ServerCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName:    "sessionhub-server",
			Version:        globals.Version,
			StoreType:      c.StoreType,
			SampleRatio:    c.TraceSampleRatio,
			ExportInterval: c.MetricsInterval,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	sessionStore, principalStore, closeStores, err := c.openStores(ctx, log)
	if err != nil {
		return err
	}
	defer closeStores()

	authMiddleware, err := c.authMiddleware(ctx, log, principalStore)
	if err != nil {
		return err
	}

	compress, err := httpmiddleware.Compress()
	if err != nil {
		return err
	}

	srv := server.NewServer(server.NewSessionService(sessionStore))

	middlewares := []httpmiddleware.Middleware{
		httpmiddleware.CORS(c.CORSOrigins),
		httpmiddleware.ClientIPMiddleware(),
		logger.NewHTTPRequests(log).Handler,
		compress,
		authMiddleware,
	}
	handler := httpmiddleware.Chain(srv.Handler(), middlewares...)

	if c.Tracing {
		handler = otelhttp.NewHandler(handler, "sessionhub",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}))
	}

	httpServer := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" {
			if _, err := os.Stat(c.Cert); err != nil {
				errCh <- fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
				return
			}
			log.Info().Str("addr", c.Listen).Bool("auth", !c.NoAuth).Msg("Starting HTTPS server")
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Bool("auth", !c.NoAuth).Msg("Starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (c *ServerCmd) openStores(ctx context.Context, log zerolog.Logger) (store.SessionStore, store.PrincipalStore, func(), error) {
	switch c.StoreType {
	case "postgres":
		poolCfg := &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
			StartupTimeout:  c.PostgresStore.StartupTimeout,
		}
		pool, err := postgresstore.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")
		return postgresstore.NewSessionStore(pool), postgresstore.NewPrincipalStore(pool), pool.Close, nil

	default:
		principals := memorystore.NewPrincipalStore()
		log.Info().Msg("Using in-memory stores")
		return memorystore.NewSessionStore(principals), principals, func() {}, nil
	}
}

func (c *ServerCmd) authMiddleware(ctx context.Context, log zerolog.Logger, principals store.PrincipalStore) (httpmiddleware.Middleware, error) {
	if c.NoAuth {
		log.Warn().Msg("Authentication is disabled (--no-auth). This should only be used in development!")

		dev := &models.Principal{PrincipalID: devPrincipalID, Email: "dev@localhost"}
		if err := principals.Upsert(ctx, dev); err != nil {
			return nil, fmt.Errorf("failed to record dev principal: %w", err)
		}
		return auth.StaticPrincipal(&auth.Principal{PrincipalID: dev.PrincipalID, Email: dev.Email}), nil
	}

	publicKeyPEM, err := loadPEM(c.JWTPublicKey)
	if err != nil {
		return nil, err
	}

	verifier, err := auth.NewVerifier(publicKeyPEM, c.JWTIssuer)
	if err != nil {
		return nil, err
	}

	return auth.Middleware(verifier, principals), nil
}

// loadPEM accepts inline PEM or a path to a PEM file.
func loadPEM(value string) (string, error) {
	if strings.Contains(value, "-----BEGIN") {
		return value, nil
	}

	data, err := os.ReadFile(value)
	if err != nil {
		return "", fmt.Errorf("failed to read JWT public key: %w", err)
	}
	return string(data), nil
}
