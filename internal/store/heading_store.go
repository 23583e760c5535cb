package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/models"
)

// Sentinel errors for heading and package item store operations
var (
	ErrHeadingNotFound          = errors.New("heading not found")
	ErrHeadingAlreadyExists     = errors.New("heading already exists")
	ErrPackageItemNotFound      = errors.New("package item not found")
	ErrPackageItemAlreadyExists = errors.New("package item already exists")
)

// HeadingStore provides access to organization scoped headings.
type HeadingStore interface {
	// Create creates a new heading.
	// Returns ErrHeadingAlreadyExists if a heading with the same ID or name exists in the organization.
	Create(ctx context.Context, heading *models.Heading) error

	// Get retrieves a heading by ID within an organization.
	// Returns ErrHeadingNotFound if the heading doesn't exist in that organization.
	Get(ctx context.Context, orgID, headingID uuid.UUID) (*models.Heading, error)

	// ListByOrganization returns all headings of an organization ordered by order.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Heading, error)
}

// PackageStore provides access to headings bound into compensation packages.
type PackageStore interface {
	// CreateItem creates a new package item.
	// Returns ErrPackageItemAlreadyExists if an item with the same ID or name exists in the package.
	CreateItem(ctx context.Context, item *models.PackageItem) error

	// GetItem retrieves a package item by ID within an organization.
	// Returns ErrPackageItemNotFound if the item doesn't exist in that organization.
	GetItem(ctx context.Context, orgID, itemID uuid.UUID) (*models.PackageItem, error)

	// ListItems returns all items of a package ordered by order.
	ListItems(ctx context.Context, orgID, packageID uuid.UUID) ([]*models.PackageItem, error)
}
