package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/models"
)

// Sentinel errors for plugin store operations
var (
	ErrPluginNotFound      = errors.New("plugin not found")
	ErrPluginAlreadyExists = errors.New("plugin already exists")
)

// PluginStore persists trusted plugins.
type PluginStore interface {
	// Create writes a plugin in a single atomic operation.
	// Returns ErrPluginAlreadyExists if the organization already has a plugin
	// with the same name; an existing row is never overwritten.
	Create(ctx context.Context, plugin *models.Plugin) error

	// GetByName retrieves a plugin by canonical name within an organization.
	// Returns ErrPluginNotFound if the plugin doesn't exist.
	GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Plugin, error)

	// ListByOrganization returns all plugins of an organization ordered by name.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Plugin, error)
}
