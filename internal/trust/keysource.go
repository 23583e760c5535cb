package trust

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/formulary/internal/pki"
)

// KeySource supplies the trusted public key for signature verification.
// Implementations must not cache keys across calls.
type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*ecdsa.PublicKey, error)
}

// HTTPKeySource fetches a JWKS document on every lookup.
type HTTPKeySource struct {
	jwksURL    string
	httpClient *http.Client
}

var _ KeySource = (*HTTPKeySource)(nil)

// NewHTTPKeySource creates a key source for the JWKS at jwksURL.
func NewHTTPKeySource(jwksURL string, httpClient *http.Client) *HTTPKeySource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPKeySource{jwksURL: jwksURL, httpClient: httpClient}
}

func (s *HTTPKeySource) PublicKey(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	log.Ctx(ctx).Debug().Str("jwks_url", s.jwksURL).Str("kid", kid).Msg("Fetching JWKS")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed: %s", resp.Status)
	}

	var jwks pki.JWKS
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	return jwks.Find(kid)
}

// StaticKeySource serves fixed keys. It is intended for tests and
// single-tenant deployments that pin a key.
type StaticKeySource map[string]*ecdsa.PublicKey

func (s StaticKeySource) PublicKey(_ context.Context, kid string) (*ecdsa.PublicKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, fmt.Errorf("kid not found: %s", kid)
	}
	return key, nil
}
