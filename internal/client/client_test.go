package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestClient_InstallPlugin(t *testing.T) {
	orgID := uuid.Must(uuid.NewV7())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orgs/"+orgID.String()+"/plugins", r.URL.Path)
		require.Equal(t, "Rent Subsidy", r.URL.Query().Get("name"))
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"plugin_id":"` + orgID.String() + `","name":"__RENT_SUBSIDY__","properties":{}}`))
	}))
	defer srv.Close()

	c := New(Config{ServerURL: srv.URL + "/", Token: "secret"}, srv.Client())
	plugin, err := c.InstallPlugin(context.Background(), orgID, "Rent Subsidy", http.NoBody)
	require.NoError(t, err)
	require.Equal(t, "__RENT_SUBSIDY__", plugin.Name)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"checksum mismatch","stage":"CHECKSUM_VERIFIED"}`))
	}))
	defer srv.Close()

	c := New(Config{ServerURL: srv.URL}, srv.Client())
	_, err := c.InstallPlugin(context.Background(), uuid.Must(uuid.NewV7()), "", http.NoBody)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Equal(t, "CHECKSUM_VERIFIED", apiErr.Stage)
	require.Contains(t, err.Error(), "checksum mismatch")
}

func TestClient_PlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(Config{ServerURL: srv.URL}, srv.Client()).Variables(context.Background(), uuid.Must(uuid.NewV7()))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Unauthorized", apiErr.Message)
}

func TestClient_ListPlugins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plugins":[{"name":"__A__"},{"name":"__B__"}]}`))
	}))
	defer srv.Close()

	plugins, err := New(Config{ServerURL: srv.URL}, srv.Client()).ListPlugins(context.Background(), uuid.Must(uuid.NewV7()))
	require.NoError(t, err)
	require.Len(t, plugins, 2)
}
