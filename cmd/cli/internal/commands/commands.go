package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wolfeidau/sessionhub/cmd/cli/internal/credentials"
	"github.com/wolfeidau/sessionhub/internal/client"
	"github.com/wolfeidau/sessionhub/internal/models"
)

type Globals struct {
	Debug   bool
	Version string
}

// ClientFlags selects the server and token. Explicit flags win over the saved profile.
type ClientFlags struct {
	Server      string        `help:"Server URL, defaults to the saved profile" env:"SESSIONHUB_SERVER"`
	Token       string        `help:"Bearer token, defaults to the saved profile" env:"SESSIONHUB_TOKEN"`
	Profile     string        `help:"Saved profile to use, defaults to the default profile" env:"SESSIONHUB_PROFILE"`
	ConfigDir   string        `help:"Directory holding credentials.json" default:"" env:"SESSIONHUB_CONFIG_DIR"`
	Timeout     time.Duration `help:"Request timeout" default:"30s"`
	NoDiskCache bool          `help:"Keep the listing cache in memory only"`
}

func (f *ClientFlags) newClient() (*client.Client, error) {
	cfg := client.DefaultConfig()
	cfg.Timeout = f.Timeout

	store, err := credentials.NewStore(f.ConfigDir)
	if err != nil {
		return nil, err
	}

	var profile *credentials.Profile
	if f.Profile != "" {
		profile, err = store.Get(f.Profile)
	} else {
		profile, err = store.GetDefault()
	}
	switch {
	case err == nil:
		cfg.ServerURL = profile.ServerURL
		cfg.Token = profile.Token
	case errors.Is(err, credentials.ErrNoDefaultProfile) && f.Profile == "":
		// anonymous use against the default server
	default:
		return nil, err
	}

	if f.Server != "" {
		cfg.ServerURL = f.Server
	}
	if f.Token != "" {
		cfg.Token = f.Token
	}
	if !f.NoDiskCache {
		cfg.CacheDir = filepath.Join(store.Dir(), "cache")
	}

	return client.New(cfg), nil
}

func printSessions(w io.Writer, sessions []*models.Session, showOwner bool) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}

	if showOwner {
		fmt.Fprintf(w, "%-36s %-30s %-25s %-20s\n", "ID", "Title", "Owner", "Created At")
	} else {
		fmt.Fprintf(w, "%-36s %-30s %-10s %-20s\n", "ID", "Title", "Status", "Updated At")
	}
	fmt.Fprintln(w, strings.Repeat("─", 114))

	for _, s := range sessions {
		if showOwner {
			fmt.Fprintf(w, "%-36s %-30s %-25s %-20s\n",
				s.ID, truncate(s.Title, 30), truncate(s.OwnerEmail, 25), s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			continue
		}
		fmt.Fprintf(w, "%-36s %-30s %-10s %-20s\n",
			s.ID, truncate(s.Title, 30), s.Status, s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func printSession(w io.Writer, s *models.Session) {
	fmt.Fprintf(w, "ID:          %s\n", s.ID)
	fmt.Fprintf(w, "Title:       %s\n", s.Title)
	fmt.Fprintf(w, "Status:      %s\n", s.Status)
	fmt.Fprintf(w, "Tags:        %s\n", strings.Join(s.Tags, ", "))
	fmt.Fprintf(w, "Content URL: %s\n", s.ContentURL)
	fmt.Fprintf(w, "Created:     %s\n", s.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:     %s\n", s.UpdatedAt.Local().Format(time.RFC3339))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

var stdout io.Writer = os.Stdout
