package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary; every heading, plugin and variable
// namespace belongs to exactly one organization.
type Organization struct {
	OrgID uuid.UUID // UUIDv7
	Name  string
	// PluginKeyID overrides the server-wide key identifier used to fetch the
	// trusted plugin signing key. Empty means use the default.
	PluginKeyID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
