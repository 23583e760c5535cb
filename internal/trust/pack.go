package trust

import (
	"crypto"
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/wolfeidau/formulary/internal/models"
)

// Pack builds and signs a plugin package for module. The checksum is always
// computed from module; an empty BuildRuntimeVersion defaults to the running
// toolchain.
func Pack(w io.Writer, module []byte, props models.PluginProperties, signer crypto.Signer) (*models.PluginProperties, error) {
	if props.Name == "" {
		return nil, fmt.Errorf("plugin name is required")
	}

	props.Checksum = Checksum(module)
	if props.BuildRuntimeVersion == "" {
		props.BuildRuntimeVersion = runtime.Version()
	}

	raw, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal properties: %w", err)
	}

	sig, err := SignProperties(signer, raw)
	if err != nil {
		return nil, err
	}

	err = WritePackage(w, map[string][]byte{
		ModuleFile:     module,
		PropertiesFile: raw,
		SignatureFile:  sig,
	})
	if err != nil {
		return nil, err
	}

	return &props, nil
}
