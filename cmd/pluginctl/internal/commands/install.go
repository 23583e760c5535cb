package commands

import (
	"context"
	"fmt"
	"os"
)

// InstallCmd uploads a plugin package to the admin API.
type InstallCmd struct {
	Package string `arg:"" help:"plugin package file" type:"existingfile"`
	Name    string `help:"install under this name instead of the declared one" default:""`

	ServerFlags `embed:""`
}

func (c *InstallCmd) Run(ctx context.Context, globals *Globals) error {
	api, orgID, err := c.client()
	if err != nil {
		return err
	}

	f, err := os.Open(c.Package)
	if err != nil {
		return fmt.Errorf("failed to open package: %w", err)
	}
	defer f.Close()

	plugin, err := api.InstallPlugin(ctx, orgID, c.Name, f)
	if err != nil {
		return fmt.Errorf("failed to install plugin: %w", err)
	}

	printf("Installed %s (%s)\n", plugin.Name, plugin.PluginID)
	return nil
}
