package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/auth"
	"github.com/wolfeidau/formulary/internal/pki"
)

// TokenCmd mints an admin API token.
type TokenCmd struct {
	Subject string        `help:"Subject identifier" required:""`
	Org     string        `help:"Organization ID" required:"" env:"FORMULARY_ORG"`
	Role    string        `help:"Role granted by the token" default:"admin" enum:"admin,author,viewer"`
	TTL     time.Duration `help:"Token lifetime" default:"1h"`

	KeyFlags `embed:""`
}

func (t *TokenCmd) Run(ctx context.Context, globals *Globals) error {
	orgID, err := uuid.Parse(t.Org)
	if err != nil {
		return fmt.Errorf("invalid organization ID %q: %w", t.Org, err)
	}

	key, err := t.privateKey(ctx)
	if err != nil {
		return err
	}

	kid, err := pki.Fingerprint(&key.PublicKey)
	if err != nil {
		return err
	}

	token, err := auth.IssueToken(key, kid, t.Subject, orgID, auth.Role(t.Role), t.TTL)
	if err != nil {
		return err
	}

	printf("%s\n", token)
	return nil
}
