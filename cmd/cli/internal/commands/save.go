package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionhub/internal/client"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/server"
	"gopkg.in/yaml.v3"
)

// sessionFile is the YAML form of a session accepted by --file.
type sessionFile struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Tags       yamlTags `yaml:"tags"`
	ContentURL string   `yaml:"content_url"`
}

// yamlTags accepts either "yoga, morning" or a YAML list.
type yamlTags []string

func (t *yamlTags) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*t = models.ParseTags(value.Value)
		return nil
	case yaml.SequenceNode:
		var tags []string
		if err := value.Decode(&tags); err != nil {
			return err
		}
		*t = tags
		return nil
	default:
		return fmt.Errorf("line %d: tags must be a string or a list", value.Line)
	}
}

func loadSessionFile(path string) (server.SaveRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return server.SaveRequest{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return server.SaveRequest{}, fmt.Errorf("failed to parse session file: %w", err)
	}

	return server.SaveRequest{
		ID:         f.ID,
		Title:      f.Title,
		Tags:       server.TagList(f.Tags),
		ContentURL: f.ContentURL,
	}, nil
}

// SessionInput is shared by save-draft and publish. Flags override values from --file.
type SessionInput struct {
	File       string `help:"YAML file describing the session" type:"existingfile" short:"f"`
	ID         string `help:"ID of the session to update, empty creates a new one"`
	Title      string `help:"Session title"`
	Tags       string `help:"Comma separated tags"`
	ContentURL string `help:"HTTP(S) URL of the session content JSON" name:"content-url"`
}

func (in *SessionInput) request() (server.SaveRequest, error) {
	var req server.SaveRequest
	if in.File != "" {
		var err error
		if req, err = loadSessionFile(in.File); err != nil {
			return req, err
		}
	}

	if in.ID != "" {
		req.ID = in.ID
	}
	if in.Title != "" {
		req.Title = in.Title
	}
	if in.Tags != "" {
		req.Tags = server.TagList(models.ParseTags(in.Tags))
	}
	if in.ContentURL != "" {
		req.ContentURL = in.ContentURL
	}
	return req, nil
}

type SaveDraftCmd struct {
	ClientFlags  `embed:""`
	SessionInput `embed:""`
}

func (s *SaveDraftCmd) Run(ctx context.Context, globals *Globals) error {
	req, err := s.request()
	if err != nil {
		return err
	}

	c, err := s.newClient()
	if err != nil {
		return err
	}

	session, err := c.SaveDraft(ctx, req)
	if err != nil {
		return describeSaveError("save draft", err)
	}

	fmt.Fprintln(stdout, "Draft saved successfully")
	printSession(stdout, session)
	return nil
}

type PublishCmd struct {
	ClientFlags  `embed:""`
	SessionInput `embed:""`
}

func (p *PublishCmd) Run(ctx context.Context, globals *Globals) error {
	req, err := p.request()
	if err != nil {
		return err
	}

	c, err := p.newClient()
	if err != nil {
		return err
	}

	session, err := c.Publish(ctx, req)
	if err != nil {
		return describeSaveError("publish session", err)
	}

	fmt.Fprintln(stdout, "Session published successfully")
	printSession(stdout, session)
	return nil
}

// EditCmd keeps a YAML file saved as a draft while it is being edited.
type EditCmd struct {
	ClientFlags `embed:""`
	File        string        `arg:"" help:"YAML file describing the session" type:"existingfile"`
	Interval    time.Duration `help:"Auto save interval" default:"30s"`
}

func (e *EditCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := e.newClient()
	if err != nil {
		return err
	}

	if e.Interval <= 0 {
		e.Interval = client.DefaultAutoSaveInterval
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	saver := client.NewAutoSaver(c, e.Interval)

	reload := func() {
		req, err := loadSessionFile(e.File)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping unreadable session file")
			return
		}
		saver.Update(req)
	}
	reload()

	fmt.Fprintf(stdout, "Auto saving %s every %s (press Ctrl+C to stop)...\n", e.File, e.Interval)

	done := make(chan error, 1)
	go func() { done <- saver.Run(log.Logger.WithContext(ctx)) }()

	// reload the file just ahead of each save so edits are picked up
	ticker := time.NewTicker(e.Interval / 2)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if id := saver.ID(); id != "" {
				fmt.Fprintf(stdout, "Draft %s saved\n", id)
			}
			return err
		case <-ticker.C:
			reload()
		}
	}
}

func describeSaveError(action string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.IsValidation() {
		for field, msg := range apiErr.Errors {
			fmt.Fprintf(stdout, "  %s: %s\n", field, msg)
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
