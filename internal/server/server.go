// Package server exposes the variable catalogue and the plugin trust
// pipeline over a JSON HTTP API.
package server

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/formulary/internal/auth"
	"github.com/wolfeidau/formulary/internal/catalogue"
	httpmw "github.com/wolfeidau/formulary/internal/http"
	"github.com/wolfeidau/formulary/internal/logger"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/store"
	"github.com/wolfeidau/formulary/internal/trust"
)

// Installer admits plugin packages.
type Installer interface {
	Install(ctx context.Context, pkg io.Reader, orgID uuid.UUID, name string) (*models.Plugin, error)
}

var _ Installer = (*trust.Pipeline)(nil)

// Stores groups the persistence collaborators.
type Stores struct {
	Organizations store.OrganizationStore
	Headings      store.HeadingStore
	Packages      store.PackageStore
	Plugins       store.PluginStore
}

// Config controls the HTTP surface.
type Config struct {
	CORSOrigins []string
	// MaxPackageBytes bounds plugin upload bodies.
	MaxPackageBytes int64
	// NoAuth disables bearer token checks; every request acts as an admin
	// of the organization in its path.
	NoAuth bool
}

// Server serves the admin API.
type Server struct {
	cfg       Config
	stores    Stores
	catalogue *catalogue.Builder
	installer Installer
	verifier  *auth.JWTVerifier
}

// NewServer creates the API server. verifier may be nil only when
// cfg.NoAuth is set.
func NewServer(cfg Config, stores Stores, builder *catalogue.Builder, installer Installer, verifier *auth.JWTVerifier) *Server {
	if cfg.MaxPackageBytes == 0 {
		cfg.MaxPackageBytes = trust.DefaultMaxPackageBytes
	}
	return &Server{
		cfg:       cfg,
		stores:    stores,
		catalogue: builder,
		installer: installer,
		verifier:  verifier,
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /v1/orgs/{org}/variables", s.listVariables)
	mux.HandleFunc("GET /v1/orgs/{org}/headings/{heading}/variables", s.headingVariables)
	mux.HandleFunc("GET /v1/orgs/{org}/packages/{package}/items/{item}/variables", s.packageItemVariables)
	mux.HandleFunc("POST /v1/orgs/{org}/functions/{function}/validate", s.validateFunction)
	mux.HandleFunc("GET /v1/orgs/{org}/plugins", s.listPlugins)
	mux.Handle("POST /v1/orgs/{org}/plugins",
		httpmw.MaxBytes(s.cfg.MaxPackageBytes)(http.HandlerFunc(s.installPlugin)))

	authn := httpmw.Middleware(func(next http.Handler) http.Handler { return next })
	if !s.cfg.NoAuth {
		authn = s.verifier.Middleware()
	} else {
		log.Warn().Msg("Authentication is disabled. This should only be used in development!")
	}

	return httpmw.Chain(mux,
		logger.HTTPRequests(log),
		httpmw.ClientIPMiddleware(),
		withCORS(s.cfg.CORSOrigins),
		authn,
	)
}

// withCORS allows browser clients on the configured origins to call the API
// with bearer tokens.
func withCORS(allowedOrigins []string) httpmw.Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         3600,
	})
	return c.Handler
}
