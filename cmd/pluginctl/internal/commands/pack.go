package commands

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/pki"
	"github.com/wolfeidau/formulary/internal/trust"
)

// PackCmd builds a signed plugin package from a compiled module.
type PackCmd struct {
	Module         string `arg:"" help:"compiled plugin module (.so)" type:"existingfile"`
	Name           string `help:"plugin name" required:""`
	PluginVersion  string `help:"plugin version" name:"plugin-version" default:""`
	Description    string `help:"plugin description" default:""`
	RuntimeVersion string `help:"toolchain the module was built with, defaults to this binary's" default:""`
	Output         string `help:"package file to write" short:"o" required:"" type:"path"`

	KeyFlags `embed:""`
	KMSKeyID string `help:"sign with an AWS KMS key instead of a local key" name:"kms-key-id" env:"PLUGINCTL_KMS_KEY_ID"`
}

func (c *PackCmd) Run(ctx context.Context, globals *Globals) error {
	signer, err := c.signer(ctx)
	if err != nil {
		return err
	}

	module, err := os.ReadFile(c.Module)
	if err != nil {
		return fmt.Errorf("failed to read module: %w", err)
	}

	out, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	props, err := trust.Pack(out, module, models.PluginProperties{
		Name:                c.Name,
		Version:             c.PluginVersion,
		Description:         c.Description,
		BuildRuntimeVersion: c.RuntimeVersion,
	}, signer)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(c.Output)
		return err
	}

	if pub, ok := signer.Public().(*ecdsa.PublicKey); ok {
		if kid, err := pki.Fingerprint(pub); err == nil {
			printf("Signed with key %s\n", kid)
		}
	}
	printf("Packed %s (%s, checksum %s) to %s\n", props.Name, props.BuildRuntimeVersion, props.Checksum, c.Output)
	return nil
}

func (c *PackCmd) signer(ctx context.Context) (crypto.Signer, error) {
	if c.KMSKeyID != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return pki.NewKMSSigner(ctx, cfg, c.KMSKeyID)
	}
	return c.privateKey(ctx)
}
