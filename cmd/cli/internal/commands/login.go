package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfeidau/sessionhub/cmd/cli/internal/credentials"
	"github.com/wolfeidau/sessionhub/internal/client"
)

// LoginCmd checks a token against the server and saves it as a profile.
type LoginCmd struct {
	Server    string        `help:"Server URL" default:"http://localhost:8080" env:"SESSIONHUB_SERVER"`
	Token     string        `help:"Bearer token issued by the identity provider" required:"" env:"SESSIONHUB_TOKEN"`
	Email     string        `help:"Email to remember alongside the token"`
	Name      string        `help:"Profile name" default:"default"`
	Default   bool          `help:"Make this the default profile" default:"true" negatable:""`
	ConfigDir string        `help:"Directory holding credentials.json" default:"" env:"SESSIONHUB_CONFIG_DIR"`
	Timeout   time.Duration `help:"Request timeout" default:"30s"`
}

func (l *LoginCmd) Run(ctx context.Context) error {
	store, err := credentials.NewStore(l.ConfigDir)
	if err != nil {
		return err
	}

	c := client.New(client.Config{ServerURL: l.Server, Token: l.Token, Timeout: l.Timeout})

	health, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("login failed: server %s is not reachable: %w", l.Server, err)
	}
	if health.Status != "OK" {
		return fmt.Errorf("login failed: server %s reported status %q", l.Server, health.Status)
	}

	// my-sessions needs a valid identity, so it doubles as a token check
	sessions, err := c.ListMine(ctx)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			return errors.New("login failed: the server did not accept the token")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if err := store.Save(credentials.Profile{
		Name:      l.Name,
		ServerURL: l.Server,
		Token:     l.Token,
		Email:     l.Email,
	}); err != nil {
		return err
	}

	if l.Default {
		if err := store.SetDefault(l.Name); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Logged in to %s as profile %q (%d sessions)\n", l.Server, l.Name, len(sessions))
	return nil
}

// LogoutCmd removes a saved profile.
type LogoutCmd struct {
	Name      string `help:"Profile name" default:"default"`
	ConfigDir string `help:"Directory holding credentials.json" default:"" env:"SESSIONHUB_CONFIG_DIR"`
}

func (l *LogoutCmd) Run(ctx context.Context) error {
	store, err := credentials.NewStore(l.ConfigDir)
	if err != nil {
		return err
	}

	if err := store.Delete(l.Name); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Removed profile %q\n", l.Name)
	return nil
}
