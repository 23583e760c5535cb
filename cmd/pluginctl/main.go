package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/formulary/cmd/pluginctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Keygen    commands.KeygenCmd    `cmd:"" help:"Generate a P-256 signing key"`
		Pack      commands.PackCmd      `cmd:"" help:"Build and sign a plugin package"`
		Install   commands.InstallCmd   `cmd:"" help:"Upload a plugin package"`
		List      commands.ListCmd      `cmd:"" help:"List installed plugins"`
		Variables commands.VariablesCmd `cmd:"" help:"List the variables an organization's formulas may reference"`
		Token     commands.TokenCmd     `cmd:"" help:"Generate an admin API token"`
		Keyserver commands.KeyserverCmd `cmd:"" help:"Serve plugin signing public keys as a JWKS"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("pluginctl"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
