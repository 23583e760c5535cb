package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/store"
)

// PackageStore implements store.PackageStore using in-memory storage.
type PackageStore struct {
	mu sync.RWMutex

	items map[uuid.UUID]*models.PackageItem // item_id -> PackageItem
}

// NewPackageStore creates a new in-memory package store.
func NewPackageStore() *PackageStore {
	return &PackageStore{
		items: make(map[uuid.UUID]*models.PackageItem),
	}
}

// CreateItem creates a new package item. Names are unique per package.
func (s *PackageStore) CreateItem(ctx context.Context, item *models.PackageItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ItemID]; exists {
		return store.ErrPackageItemAlreadyExists
	}
	for _, it := range s.items {
		if it.PackageID == item.PackageID && strings.EqualFold(it.Name, item.Name) {
			return store.ErrPackageItemAlreadyExists
		}
	}

	clone := *item
	s.items[item.ItemID] = &clone

	return nil
}

// GetItem retrieves a package item by ID within an organization.
func (s *PackageStore) GetItem(ctx context.Context, orgID, itemID uuid.UUID) (*models.PackageItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, exists := s.items[itemID]
	if !exists || it.OrgID != orgID {
		return nil, store.ErrPackageItemNotFound
	}

	clone := *it
	return &clone, nil
}

// ListItems returns all items of a package ordered by order.
func (s *PackageStore) ListItems(ctx context.Context, orgID, packageID uuid.UUID) ([]*models.PackageItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.PackageItem
	for _, it := range s.items {
		if it.OrgID == orgID && it.PackageID == packageID {
			clone := *it
			result = append(result, &clone)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}
