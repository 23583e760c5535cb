package commands

import (
	"context"
	"fmt"
	"strings"
)

// ListCmd lists installed plugins.
type ListCmd struct {
	ServerFlags `embed:""`
}

func (c *ListCmd) Run(ctx context.Context, globals *Globals) error {
	api, orgID, err := c.client()
	if err != nil {
		return err
	}

	plugins, err := api.ListPlugins(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to list plugins: %w", err)
	}

	if len(plugins) == 0 {
		printf("No plugins installed\n")
		return nil
	}

	printf("%-36s  %-30s  %s\n", "PLUGIN ID", "NAME", "INSTALLED")
	printf("%s\n", strings.Repeat("-", 90))
	for _, p := range plugins {
		printf("%-36s  %-30s  %s\n", p.PluginID, p.Name, p.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// VariablesCmd lists every variable an organization's formulas may use.
type VariablesCmd struct {
	ServerFlags `embed:""`
}

func (c *VariablesCmd) Run(ctx context.Context, globals *Globals) error {
	api, orgID, err := c.client()
	if err != nil {
		return err
	}

	vars, err := api.Variables(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to list variables: %w", err)
	}

	for _, v := range vars {
		printf("%s\n", v)
	}
	return nil
}
