package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/store"
)

// Principal represents the authenticated caller attached to a request.
type Principal struct {
	PrincipalID uuid.UUID
	Email       string
}

type contextKey int

const (
	principalContextKey contextKey = iota
)

// PrincipalFromContext extracts the authenticated principal from the request context.
// Returns nil if no principal is present (unauthenticated request).
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey).(*Principal)
	return principal
}

// WithPrincipal returns a context carrying principal.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(tokenStr string) (*Principal, error)
}

// Middleware attaches the principal named by a valid bearer token to the request context.
// It never rejects a request: a missing, malformed or expired token simply leaves the
// request anonymous, and handlers decide whether an identity is required.
//
// When principals is non-nil, each principal is recorded the first time it is seen
// (and again whenever its email changes) so published sessions can show the owner's email.
func Middleware(verifier TokenVerifier, principals store.PrincipalStore) func(http.Handler) http.Handler {
	var seen sync.Map // principal_id -> email

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractBearerToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			principal, err := verifier.Verify(tokenStr)
			if err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Msg("Bearer token rejected, continuing anonymously")
				next.ServeHTTP(w, r)
				return
			}

			if principals != nil {
				if email, ok := seen.Load(principal.PrincipalID); !ok || email != principal.Email {
					err := principals.Upsert(ctx, &models.Principal{
						PrincipalID: principal.PrincipalID,
						Email:       principal.Email,
					})
					if err != nil {
						zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to record principal")
					} else {
						seen.Store(principal.PrincipalID, principal.Email)
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// StaticPrincipal attaches the same principal to every request.
// Only for local development with authentication disabled.
func StaticPrincipal(principal *Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// extractBearerToken extracts the JWT from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
