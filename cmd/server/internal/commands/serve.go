package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/formulary/internal/attribute"
	"github.com/wolfeidau/formulary/internal/auth"
	"github.com/wolfeidau/formulary/internal/bootstrap"
	"github.com/wolfeidau/formulary/internal/catalogue"
	"github.com/wolfeidau/formulary/internal/extension/builtin"
	"github.com/wolfeidau/formulary/internal/keyloader"
	"github.com/wolfeidau/formulary/internal/logger"
	"github.com/wolfeidau/formulary/internal/server"
	memorystore "github.com/wolfeidau/formulary/internal/store/memory"
	postgresstore "github.com/wolfeidau/formulary/internal/store/postgres"
	"github.com/wolfeidau/formulary/internal/telemetry"
	"github.com/wolfeidau/formulary/internal/trust"
)

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8443" env:"FORMULARY_LISTEN"`
	Cert   string `help:"path to TLS cert file, plain HTTP when empty" default:"" env:"FORMULARY_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"FORMULARY_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"https://localhost" env:"FORMULARY_CORS_ORIGINS"`

	// Admin token verification
	AdminKeyPath         string `help:"PEM public key verifying admin tokens" default:"" env:"FORMULARY_ADMIN_KEY_PATH"`
	AdminKeySSMParameter string `help:"SSM parameter holding the PEM public key verifying admin tokens" default:"" env:"FORMULARY_ADMIN_KEY_SSM_PARAMETER"`

	// Plugin trust configuration
	Plugins PluginFlags `embed:"" prefix:"plugin-"`

	// Catalogue configuration
	AttributeFile string `help:"YAML file listing employee attribute labels" default:"" env:"FORMULARY_ATTRIBUTE_FILE"`
	FixtureFile   string `help:"YAML file of organizations and headings created at startup" default:"" env:"FORMULARY_FIXTURE_FILE"`

	// Development and operational modes
	NoAuth           bool    `help:"disable authentication for API endpoints (development only)" default:"false" env:"FORMULARY_NO_AUTH"`
	Tracing          bool    `help:"enable tracing" default:"false" env:"FORMULARY_TRACING"`
	TraceSampleRatio float64 `help:"fraction of traces sampled" default:"1" env:"FORMULARY_TRACE_SAMPLE_RATIO"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"FORMULARY_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

// PluginFlags configures the plugin trust pipeline.
type PluginFlags struct {
	JWKSURL         string        `help:"URL of the key server publishing plugin signing keys" env:"FORMULARY_PLUGIN_JWKS_URL"`
	KeyID           string        `help:"key id used when the organization does not override it" env:"FORMULARY_PLUGIN_KEY_ID"`
	KeyFetchTimeout time.Duration `help:"timeout for fetching the signing key" default:"10s" env:"FORMULARY_PLUGIN_KEY_FETCH_TIMEOUT"`
	ScratchDir      string        `help:"directory for unpacking plugin packages" default:"" env:"FORMULARY_PLUGIN_SCRATCH_DIR"`
	MaxPackageBytes int64         `help:"maximum plugin package size" default:"67108864" env:"FORMULARY_PLUGIN_MAX_PACKAGE_BYTES"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName:      "formulary-server",
			Version:          globals.Version,
			TraceSampleRatio: c.TraceSampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	stores, closeStores, err := c.openStores(ctx, log)
	if err != nil {
		return err
	}
	defer closeStores()

	if c.FixtureFile != "" {
		fixture, err := bootstrap.LoadFile(c.FixtureFile)
		if err != nil {
			return err
		}
		res, err := bootstrap.Bootstrap(ctx, bootstrap.Stores{
			Organizations: stores.Organizations,
			Headings:      stores.Headings,
			Packages:      stores.Packages,
		}, fixture)
		if err != nil {
			return fmt.Errorf("failed to apply fixture: %w", err)
		}
		log.Info().
			Int("organizations", res.Organizations).
			Int("headings", res.Headings).
			Int("package_items", res.PackageItems).
			Msg("Fixture applied")
	}

	attrs, err := c.attributes()
	if err != nil {
		return err
	}

	extensions, err := builtin.Registry()
	if err != nil {
		return fmt.Errorf("failed to register extensions: %w", err)
	}

	builder := catalogue.NewBuilder(stores.Headings, stores.Packages, stores.Plugins, attrs, extensions)

	pipeline, err := c.pipeline(stores, builder)
	if err != nil {
		return err
	}

	verifier, err := c.verifier(ctx)
	if err != nil {
		return err
	}

	srv := server.NewServer(server.Config{
		CORSOrigins:     c.CORSOrigins,
		MaxPackageBytes: c.Plugins.MaxPackageBytes,
		NoAuth:          c.NoAuth,
	}, stores, builder, pipeline, verifier)

	httpServer := configureHTTPServer(c.Listen, srv.Handler(log))

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" || c.Key != "" {
			log.Info().Str("addr", c.Listen).Bool("auth", !c.NoAuth).Msg("Starting HTTPS server")
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Bool("auth", !c.NoAuth).Msg("Starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (c *ServeCmd) openStores(ctx context.Context, log zerolog.Logger) (server.Stores, func(), error) {
	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return server.Stores{}, nil, err
		}

		// shared connection pool for all PostgreSQL stores
		pool, err := postgresstore.NewPool(ctx, c.PostgresStore.poolConfig())
		if err != nil {
			return server.Stores{}, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return server.Stores{}, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		headings := postgresstore.NewHeadingStore(pool)
		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

		return server.Stores{
			Organizations: postgresstore.NewOrganizationStore(pool),
			Headings:      headings,
			Packages:      headings,
			Plugins:       postgresstore.NewPluginStore(pool),
		}, pool.Close, nil

	default:
		log.Info().Msg("Using in-memory stores")
		return server.Stores{
			Organizations: memorystore.NewOrganizationStore(),
			Headings:      memorystore.NewHeadingStore(),
			Packages:      memorystore.NewPackageStore(),
			Plugins:       memorystore.NewPluginStore(),
		}, func() {}, nil
	}
}

func (c *ServeCmd) attributes() (attribute.Source, error) {
	if c.AttributeFile == "" {
		return attribute.NewStatic(attribute.DefaultConfig())
	}
	return attribute.LoadFile(c.AttributeFile)
}

func (c *ServeCmd) pipeline(stores server.Stores, builder *catalogue.Builder) (*trust.Pipeline, error) {
	if c.Plugins.JWKSURL == "" {
		return nil, errors.New("plugin key server URL is required (--plugin-jwks-url or FORMULARY_PLUGIN_JWKS_URL)")
	}

	keys := trust.NewHTTPKeySource(c.Plugins.JWKSURL, &http.Client{Timeout: c.Plugins.KeyFetchTimeout})

	return trust.NewPipeline(trust.Config{
		ScratchDir:      c.Plugins.ScratchDir,
		KeyID:           c.Plugins.KeyID,
		KeyFetchTimeout: c.Plugins.KeyFetchTimeout,
		MaxPackageBytes: c.Plugins.MaxPackageBytes,
	}, stores.Organizations, stores.Plugins, builder, keys, trust.GoPluginLoader{})
}

func (c *ServeCmd) verifier(ctx context.Context) (*auth.JWTVerifier, error) {
	if c.NoAuth {
		return nil, nil
	}
	src := keyloader.Source{Path: c.AdminKeyPath, SSMParameter: c.AdminKeySSMParameter}
	if src.IsZero() {
		return nil, errors.New("admin public key is required (--admin-key-path or --admin-key-ssm-parameter)")
	}

	pub, err := keyloader.New(nil).PublicKey(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin public key: %w", err)
	}

	return auth.NewJWTVerifier(pub, "/health"), nil
}
