package commands

import (
	"context"
	"fmt"
	"time"
)

type ListCmd struct {
	ClientFlags `embed:""`
	Watch       bool `help:"Watch for changes (refresh every 5 seconds)" default:"false"`
}

func (l *ListCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := l.newClient()
	if err != nil {
		return err
	}

	list := func() error {
		sessions, err := c.ListPublic(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		fmt.Fprintf(stdout, "Published sessions (%d):\n", len(sessions))
		printSessions(stdout, sessions, true)
		return nil
	}

	if !l.Watch {
		return list()
	}

	fmt.Fprintln(stdout, "Watching sessions (press Ctrl+C to stop)...")
	if err := list(); err != nil {
		return err
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprint(stdout, "\033[2J\033[H") // Clear screen and move cursor to top
			fmt.Fprintf(stdout, "Updated at %s\n", time.Now().Format("15:04:05"))
			if err := list(); err != nil {
				fmt.Fprintf(stdout, "Error updating session list: %v\n", err)
			}
		}
	}
}

type MineCmd struct {
	ClientFlags `embed:""`
}

func (m *MineCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := m.newClient()
	if err != nil {
		return err
	}

	sessions, err := c.ListMine(ctx)
	if err != nil {
		return fmt.Errorf("failed to list your sessions: %w", err)
	}

	fmt.Fprintf(stdout, "Your sessions (%d):\n", len(sessions))
	printSessions(stdout, sessions, false)
	return nil
}

type ShowCmd struct {
	ClientFlags `embed:""`
	ID          string `arg:"" help:"Session ID"`
}

func (s *ShowCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := s.newClient()
	if err != nil {
		return err
	}

	session, err := c.Get(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	printSession(stdout, session)
	return nil
}
