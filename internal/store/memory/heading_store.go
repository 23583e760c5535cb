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

// HeadingStore implements store.HeadingStore using in-memory storage.
type HeadingStore struct {
	mu sync.RWMutex

	headings map[uuid.UUID]*models.Heading // heading_id -> Heading
}

// NewHeadingStore creates a new in-memory heading store.
func NewHeadingStore() *HeadingStore {
	return &HeadingStore{
		headings: make(map[uuid.UUID]*models.Heading),
	}
}

// Create creates a new heading. Names are unique per organization.
func (s *HeadingStore) Create(ctx context.Context, heading *models.Heading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.headings[heading.HeadingID]; exists {
		return store.ErrHeadingAlreadyExists
	}
	for _, h := range s.headings {
		if h.OrgID == heading.OrgID && strings.EqualFold(h.Name, heading.Name) {
			return store.ErrHeadingAlreadyExists
		}
	}

	clone := *heading
	s.headings[heading.HeadingID] = &clone

	return nil
}

// Get retrieves a heading by ID within an organization.
func (s *HeadingStore) Get(ctx context.Context, orgID, headingID uuid.UUID) (*models.Heading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.headings[headingID]
	if !exists || h.OrgID != orgID {
		return nil, store.ErrHeadingNotFound
	}

	clone := *h
	return &clone, nil
}

// ListByOrganization returns all headings of an organization ordered by order.
func (s *HeadingStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Heading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Heading
	for _, h := range s.headings {
		if h.OrgID == orgID {
			clone := *h
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
