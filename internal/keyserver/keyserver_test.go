package keyserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/formulary/internal/pki"
	"github.com/wolfeidau/formulary/internal/trust"
)

func TestHandler(t *testing.T) {
	first, err := pki.GenerateKey()
	require.NoError(t, err)
	second, err := pki.GenerateKey()
	require.NoError(t, err)

	h, err := New(300, &first.PublicKey, &second.PublicKey, &first.PublicKey)
	require.NoError(t, err)
	require.Len(t, h.KeyIDs(), 2)

	mux := http.NewServeMux()
	h.Routes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + JWKSPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "public, max-age=300", resp.Header.Get("Cache-Control"))

	// the trust pipeline key source must resolve every published key
	keys := trust.NewHTTPKeySource(srv.URL+JWKSPath, srv.Client())
	kid, err := pki.Fingerprint(&second.PublicKey)
	require.NoError(t, err)
	pub, err := keys.PublicKey(context.Background(), kid)
	require.NoError(t, err)
	require.True(t, pub.Equal(&second.PublicKey))

	_, err = keys.PublicKey(context.Background(), "unknown")
	require.Error(t, err)
}

func TestHandler_NoCache(t *testing.T) {
	key, err := pki.GenerateKey()
	require.NoError(t, err)

	h, err := New(0, &key.PublicKey)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, JWKSPath, nil))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestNew_NoKeys(t *testing.T) {
	_, err := New(60)
	require.Error(t, err)
}
