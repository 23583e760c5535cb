package trust

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/pki"
)

func TestSignAndVerifyProperties(t *testing.T) {
	key, err := pki.GenerateKey()
	require.NoError(t, err)
	other, err := pki.GenerateKey()
	require.NoError(t, err)

	props := []byte(`{"name":"Housing Rate"}`)
	sig, err := SignProperties(key, props)
	require.NoError(t, err)

	require.NoError(t, VerifyProperties(props, sig, &key.PublicKey))
	require.NoError(t, VerifyProperties(props, append(sig, '\n'), &key.PublicKey))
	require.Error(t, VerifyProperties(props, sig, &other.PublicKey))
	require.Error(t, VerifyProperties([]byte(`{"name":"Housing Rates"}`), sig, &key.PublicKey))
	require.Error(t, VerifyProperties(props, []byte("%%%"), &key.PublicKey))
}

func TestChecksum(t *testing.T) {
	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Checksum(nil))

	path := filepath.Join(t.TempDir(), ModuleFile)
	require.NoError(t, os.WriteFile(path, []byte("module"), 0o600))

	sum, err := fileChecksum(path)
	require.NoError(t, err)
	require.Equal(t, Checksum([]byte("module")), sum)
}

func TestPack(t *testing.T) {
	key, err := pki.GenerateKey()
	require.NoError(t, err)

	var buf bytes.Buffer
	props, err := Pack(&buf, []byte("module"), models.PluginProperties{Name: "Housing Rate", Version: "1.0.0"}, key)
	require.NoError(t, err)
	require.Equal(t, Checksum([]byte("module")), props.Checksum)
	require.Equal(t, runtime.Version(), props.BuildRuntimeVersion)

	dir := t.TempDir()
	src := writeFile(t, dir, "pkg.tar.zst", buf.Bytes())
	require.NoError(t, extractPackage(src, dir, 1<<20))

	raw, err := os.ReadFile(filepath.Join(dir, PropertiesFile))
	require.NoError(t, err)
	sig, err := os.ReadFile(filepath.Join(dir, SignatureFile))
	require.NoError(t, err)
	require.NoError(t, VerifyProperties(raw, sig, &key.PublicKey))

	var decoded models.PluginProperties
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, *props, decoded)

	_, err = Pack(&buf, []byte("module"), models.PluginProperties{}, key)
	require.ErrorContains(t, err, "name is required")
}

func TestGoPluginLoader_RejectsNonPlugin(t *testing.T) {
	path := filepath.Join(t.TempDir(), ModuleFile)
	require.NoError(t, os.WriteFile(path, []byte("not an ELF object"), 0o600))

	require.Error(t, GoPluginLoader{}.Load(context.Background(), path))
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultKeyFetchTimeout, cfg.KeyFetchTimeout)
	require.EqualValues(t, DefaultMaxPackageBytes, cfg.MaxPackageBytes)

	cfg.KeyFetchTimeout = -1
	require.Error(t, cfg.Validate())
}
