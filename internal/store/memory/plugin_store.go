package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/store"
)

type pluginKey struct {
	orgID uuid.UUID
	name  string
}

// PluginStore implements store.PluginStore using in-memory storage.
type PluginStore struct {
	mu sync.RWMutex

	plugins map[pluginKey]*models.Plugin // (org_id, name) -> Plugin
}

// NewPluginStore creates a new in-memory plugin store.
func NewPluginStore() *PluginStore {
	return &PluginStore{
		plugins: make(map[pluginKey]*models.Plugin),
	}
}

// Create stores a plugin. The uniqueness check and insert happen under one
// lock so concurrent installers of the same name cannot both succeed.
func (s *PluginStore) Create(ctx context.Context, plugin *models.Plugin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pluginKey{orgID: plugin.OrgID, name: plugin.Name}
	if _, exists := s.plugins[key]; exists {
		return store.ErrPluginAlreadyExists
	}

	s.plugins[key] = clonePlugin(plugin)

	return nil
}

// GetByName retrieves a plugin by canonical name within an organization.
func (s *PluginStore) GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Plugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.plugins[pluginKey{orgID: orgID, name: name}]
	if !exists {
		return nil, store.ErrPluginNotFound
	}

	return clonePlugin(p), nil
}

// ListByOrganization returns all plugins of an organization ordered by name.
func (s *PluginStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Plugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Plugin
	for key, p := range s.plugins {
		if key.orgID == orgID {
			result = append(result, clonePlugin(p))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func clonePlugin(p *models.Plugin) *models.Plugin {
	clone := *p
	clone.Properties = bytes.Clone(p.Properties)
	clone.Signature = bytes.Clone(p.Signature)
	clone.Module = bytes.Clone(p.Module)
	return &clone
}
