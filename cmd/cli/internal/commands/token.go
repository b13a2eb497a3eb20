package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionhub/internal/auth"
)

// TokenCmd mints a development token. Production tokens come from the identity provider.
type TokenCmd struct {
	Subject    string        `help:"Principal UUID, a new one is generated when empty"`
	Email      string        `help:"Email claim shown as the owner of published sessions"`
	TTL        time.Duration `help:"Token lifetime" default:"1h"`
	SigningKey string        `help:"PEM encoded ES256 signing key, or a path to one" required:"" env:"JWT_SIGNING_KEY"`
}

func (t *TokenCmd) Run(ctx context.Context) error {
	subject := t.Subject
	if subject == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate principal ID: %w", err)
		}
		subject = id.String()
	}
	if _, err := uuid.Parse(subject); err != nil {
		return fmt.Errorf("subject must be a UUID: %w", err)
	}

	signingKey := t.SigningKey
	if !strings.Contains(signingKey, "-----BEGIN") {
		data, err := os.ReadFile(signingKey)
		if err != nil {
			return fmt.Errorf("failed to read signing key: %w", err)
		}
		signingKey = string(data)
	}

	token, err := auth.IssueToken(signingKey, subject, t.Email, t.TTL)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, token)
	return nil
}
