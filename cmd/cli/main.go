package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionhub/cmd/cli/internal/commands"
	"github.com/wolfeidau/sessionhub/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		List      commands.ListCmd      `cmd:"" help:"List published sessions"`
		Mine      commands.MineCmd      `cmd:"" help:"List your sessions"`
		Show      commands.ShowCmd      `cmd:"" help:"Show one of your sessions"`
		SaveDraft commands.SaveDraftCmd `cmd:"" help:"Create or update a draft"`
		Publish   commands.PublishCmd   `cmd:"" help:"Create or update a session and publish it"`
		Edit      commands.EditCmd      `cmd:"" help:"Auto save a session file as a draft while you edit it"`
		Login     commands.LoginCmd     `cmd:"" help:"Save a server URL and token"`
		Logout    commands.LogoutCmd    `cmd:"" help:"Remove a saved profile"`
		Token     commands.TokenCmd     `cmd:"" help:"Generate a development JWT token"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
