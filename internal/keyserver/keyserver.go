// Package keyserver publishes trusted plugin signing keys as a JWKS document.
package keyserver

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/formulary/internal/pki"
)

// JWKSPath is where the key set is served.
const JWKSPath = "/.well-known/jwks.json"

// Handler serves a fixed set of public keys.
type Handler struct {
	jwks   pki.JWKS
	maxAge int
}

// New creates a handler for keys. Each key is published under its
// fingerprint. maxAgeSeconds sets the Cache-Control max-age; zero disables
// caching.
func New(maxAgeSeconds int, keys ...*ecdsa.PublicKey) (*Handler, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one key is required")
	}

	h := &Handler{maxAge: maxAgeSeconds}
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		kid, err := pki.Fingerprint(key)
		if err != nil {
			return nil, err
		}
		if seen[kid] {
			continue
		}
		seen[kid] = true
		h.jwks.Keys = append(h.jwks.Keys, pki.JWK(key, kid))
	}
	return h, nil
}

// KeyIDs returns the published key identifiers in order.
func (h *Handler) KeyIDs() []string {
	ids := make([]string, 0, len(h.jwks.Keys))
	for _, k := range h.jwks.Keys {
		ids = append(ids, k["kid"].(string))
	}
	return ids
}

// Routes registers the JWKS endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.Handle("GET "+JWKSPath, h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Debug().Int("keys", len(h.jwks.Keys)).Msg("JWKS request")

	w.Header().Set("Content-Type", "application/json")
	if h.maxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.maxAge))
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	if err := json.NewEncoder(w).Encode(h.jwks); err != nil {
		log.Error().Err(err).Msg("Failed to encode JWKS response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
