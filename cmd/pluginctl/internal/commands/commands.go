package commands

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/client"
	"github.com/wolfeidau/formulary/internal/keyloader"
)

type Globals struct {
	Debug   bool
	Version string
}

// stdout is replaced in tests.
var stdout io.Writer = os.Stdout

// KeyFlags locates a PEM key on disk or in SSM Parameter Store.
type KeyFlags struct {
	Key             string `help:"path to PEM key file" type:"path" env:"PLUGINCTL_KEY"`
	KeySSMParameter string `help:"SSM parameter holding the PEM key" env:"PLUGINCTL_KEY_SSM_PARAMETER"`
}

func (k KeyFlags) privateKey(ctx context.Context) (*ecdsa.PrivateKey, error) {
	src := keyloader.Source{Path: k.Key, SSMParameter: k.KeySSMParameter}
	if src.IsZero() {
		return nil, errors.New("a signing key is required (--key or --key-ssm-parameter)")
	}
	return keyloader.New(nil).PrivateKey(ctx, src)
}

// ServerFlags configures admin API access.
type ServerFlags struct {
	Server  string        `help:"Server URL" default:"https://localhost:8443" env:"FORMULARY_SERVER"`
	Token   string        `help:"Admin API token" env:"FORMULARY_TOKEN"`
	Org     string        `help:"Organization ID" required:"" env:"FORMULARY_ORG"`
	Timeout time.Duration `help:"Request timeout" default:"5m"`
}

func (s ServerFlags) client() (*client.Client, uuid.UUID, error) {
	orgID, err := uuid.Parse(s.Org)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid organization ID %q: %w", s.Org, err)
	}
	return client.New(client.Config{
		ServerURL: s.Server,
		Token:     s.Token,
		Timeout:   s.Timeout,
	}, nil), orgID, nil
}

func printf(format string, args ...any) {
	_, _ = fmt.Fprintf(stdout, format, args...)
}
