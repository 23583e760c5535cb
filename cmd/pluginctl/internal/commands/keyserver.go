package commands

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/formulary/internal/keyserver"
	"github.com/wolfeidau/formulary/internal/logger"
	"github.com/wolfeidau/formulary/internal/pki"
)

// KeyserverCmd publishes public keys for the trust pipeline to fetch.
type KeyserverCmd struct {
	PublicKeys []string `arg:"" help:"PEM public key files to publish"`
	Listen     string   `help:"listen address" default:"127.0.0.1:8081" env:"PLUGINCTL_KEYSERVER_LISTEN"`
	MaxAge     int      `help:"Cache-Control max-age in seconds, 0 disables caching" default:"0"`
}

func (c *KeyserverCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	h, err := c.handler()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	h.Routes(mux)

	srv := &http.Server{
		Addr:              c.Listen,
		Handler:           logger.HTTPRequests(log)(mux),
		ReadHeaderTimeout: time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", c.Listen).Strs("kids", h.KeyIDs()).Msg("Serving " + keyserver.JWKSPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *KeyserverCmd) handler() (*keyserver.Handler, error) {
	keys := make([]*ecdsa.PublicKey, 0, len(c.PublicKeys))
	for _, path := range c.PublicKeys {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		pub, err := pki.ParsePublicKeyPEM(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		keys = append(keys, pub)
	}
	return keyserver.New(c.MaxAge, keys...)
}
