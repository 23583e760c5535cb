package models

import (
	"time"

	"github.com/google/uuid"
)

// Plugin is a trusted, organization scoped binary extension admitted through
// the trust pipeline. (OrgID, Name) is unique.
type Plugin struct {
	PluginID uuid.UUID // UUIDv7
	OrgID    uuid.UUID
	// Name is the canonical variable token the plugin contributes.
	Name string
	// Properties holds the raw signed properties document.
	Properties []byte
	// Signature is the detached signature over Properties.
	Signature []byte
	// Module is the compiled extension binary.
	Module    []byte
	CreatedAt time.Time
}

// PluginProperties is the declared metadata inside a plugin package.
type PluginProperties struct {
	Name                string `json:"name"`
	Checksum            string `json:"checksum"`
	BuildRuntimeVersion string `json:"build_runtime_version"`
	Version             string `json:"version,omitempty"`
	Description         string `json:"description,omitempty"`
}
