package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sessionhub/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode." env:"SESSIONHUB_DEBUG"`
		Version kong.VersionFlag
		Server  commands.ServerCmd `cmd:"" default:"withargs" help:"Start the session API server"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
