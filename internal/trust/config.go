package trust

import (
	"errors"
	"os"
	"time"
)

const (
	DefaultKeyFetchTimeout = 10 * time.Second
	DefaultMaxPackageBytes = 64 << 20
)

// Config controls the trust pipeline.
type Config struct {
	// ScratchDir is the parent of the per-install scratch directories.
	ScratchDir string
	// KeyID selects the trusted key from the key server unless the
	// organization overrides it.
	KeyID           string
	KeyFetchTimeout time.Duration
	// MaxPackageBytes bounds the uploaded package and its extracted contents.
	MaxPackageBytes int64
}

func (c *Config) ApplyDefaults() {
	if c.ScratchDir == "" {
		c.ScratchDir = os.TempDir()
	}
	if c.KeyFetchTimeout == 0 {
		c.KeyFetchTimeout = DefaultKeyFetchTimeout
	}
	if c.MaxPackageBytes == 0 {
		c.MaxPackageBytes = DefaultMaxPackageBytes
	}
}

func (c *Config) Validate() error {
	if c.ScratchDir == "" {
		return errors.New("scratch dir is required")
	}
	if c.KeyFetchTimeout < 0 {
		return errors.New("key fetch timeout must not be negative")
	}
	if c.MaxPackageBytes < 0 {
		return errors.New("max package bytes must not be negative")
	}
	return nil
}
