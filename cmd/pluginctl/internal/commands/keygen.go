package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wolfeidau/formulary/internal/pki"
)

// KeygenCmd generates a signing keypair.
type KeygenCmd struct {
	OutputDir string `help:"directory for private.pem and public.pem" default:"." type:"path"`
	Force     bool   `help:"overwrite existing key files" default:"false"`
}

func (c *KeygenCmd) Run(ctx context.Context, globals *Globals) error {
	key, err := pki.GenerateKey()
	if err != nil {
		return err
	}

	kid, err := pki.Fingerprint(&key.PublicKey)
	if err != nil {
		return err
	}

	privPEM, err := pki.EncodePrivateKeyPEM(key)
	if err != nil {
		return err
	}
	pubPEM, err := pki.EncodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.OutputDir, 0o700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !c.Force {
		flags |= os.O_EXCL
	}

	privPath := filepath.Join(c.OutputDir, "private.pem")
	if err := writeFile(privPath, privPEM, flags, 0o600); err != nil {
		return err
	}
	pubPath := filepath.Join(c.OutputDir, "public.pem")
	if err := writeFile(pubPath, pubPEM, flags, 0o644); err != nil {
		return err
	}

	printf("Generated key %s\n", kid)
	printf("Private key: %s\n", privPath)
	printf("Public key:  %s\n", pubPath)
	return nil
}

func writeFile(path string, data []byte, flags int, perm os.FileMode) error {
	f, err := os.OpenFile(path, flags, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
