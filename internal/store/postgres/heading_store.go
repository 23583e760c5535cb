package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/store"
)

// HeadingStore implements store.HeadingStore and store.PackageStore using
// PostgreSQL.
type HeadingStore struct {
	pool *pgxpool.Pool
}

// NewHeadingStore creates a new PostgreSQL-backed heading store.
func NewHeadingStore(pool *pgxpool.Pool) *HeadingStore {
	return &HeadingStore{
		pool: pool,
	}
}

// Create creates a new heading.
func (s *HeadingStore) Create(ctx context.Context, h *models.Heading) error {
	query := `
		INSERT INTO headings (
			heading_id, org_id, name, "order", type, duration_unit, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := s.pool.Exec(ctx, query,
		h.HeadingID,
		h.OrgID,
		h.Name,
		h.Order,
		string(h.Type),
		nullableText(string(h.DurationUnit)),
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("org_id", h.OrgID.String()).
		Str("heading_id", h.HeadingID.String()).
		Int("order", h.Order).
		Msg("Created heading")

	return nil
}

// Get retrieves a heading by ID within an organization.
func (s *HeadingStore) Get(ctx context.Context, orgID, headingID uuid.UUID) (*models.Heading, error) {
	query := `
		SELECT heading_id, org_id, name, "order", type, COALESCE(duration_unit, ''), created_at, updated_at
		FROM headings
		WHERE org_id = $1 AND heading_id = $2
	`

	h, err := scanHeading(s.pool.QueryRow(ctx, query, orgID, headingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrHeadingNotFound
		}
		return nil, fmt.Errorf("failed to get heading: %w", mapPostgresError(err))
	}

	return h, nil
}

// ListByOrganization returns all headings of an organization ordered by order.
func (s *HeadingStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Heading, error) {
	query := `
		SELECT heading_id, org_id, name, "order", type, COALESCE(duration_unit, ''), created_at, updated_at
		FROM headings
		WHERE org_id = $1
		ORDER BY "order", name
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list headings: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var headings []*models.Heading
	for rows.Next() {
		h, err := scanHeading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan heading: %w", err)
		}
		headings = append(headings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating headings: %w", err)
	}

	return headings, nil
}

// CreateItem creates a new package item.
func (s *HeadingStore) CreateItem(ctx context.Context, item *models.PackageItem) error {
	query := `
		INSERT INTO package_items (
			item_id, package_id, org_id, heading_id, name, "order", type, duration_unit, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := s.pool.Exec(ctx, query,
		item.ItemID,
		item.PackageID,
		item.OrgID,
		item.HeadingID,
		item.Name,
		item.Order,
		string(item.Type),
		nullableText(string(item.DurationUnit)),
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	return nil
}

// GetItem retrieves a package item by ID within an organization.
func (s *HeadingStore) GetItem(ctx context.Context, orgID, itemID uuid.UUID) (*models.PackageItem, error) {
	query := `
		SELECT item_id, package_id, org_id, heading_id, name, "order", type, COALESCE(duration_unit, ''), created_at, updated_at
		FROM package_items
		WHERE org_id = $1 AND item_id = $2
	`

	item, err := scanPackageItem(s.pool.QueryRow(ctx, query, orgID, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPackageItemNotFound
		}
		return nil, fmt.Errorf("failed to get package item: %w", mapPostgresError(err))
	}

	return item, nil
}

// ListItems returns all items of a package ordered by order.
func (s *HeadingStore) ListItems(ctx context.Context, orgID, packageID uuid.UUID) ([]*models.PackageItem, error) {
	query := `
		SELECT item_id, package_id, org_id, heading_id, name, "order", type, COALESCE(duration_unit, ''), created_at, updated_at
		FROM package_items
		WHERE org_id = $1 AND package_id = $2
		ORDER BY "order", name
	`

	rows, err := s.pool.Query(ctx, query, orgID, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list package items: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var items []*models.PackageItem
	for rows.Next() {
		item, err := scanPackageItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package items: %w", err)
	}

	return items, nil
}

func scanHeading(row pgx.Row) (*models.Heading, error) {
	var (
		h            models.Heading
		headingType  string
		durationUnit string
	)
	err := row.Scan(
		&h.HeadingID,
		&h.OrgID,
		&h.Name,
		&h.Order,
		&headingType,
		&durationUnit,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Type = models.HeadingType(headingType)
	h.DurationUnit = models.DurationUnit(durationUnit)
	return &h, nil
}

func scanPackageItem(row pgx.Row) (*models.PackageItem, error) {
	var (
		item         models.PackageItem
		headingType  string
		durationUnit string
	)
	err := row.Scan(
		&item.ItemID,
		&item.PackageID,
		&item.OrgID,
		&item.HeadingID,
		&item.Name,
		&item.Order,
		&headingType,
		&durationUnit,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Type = models.HeadingType(headingType)
	item.DurationUnit = models.DurationUnit(durationUnit)
	return &item, nil
}
