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

// PluginStore implements store.PluginStore using PostgreSQL.
type PluginStore struct {
	pool *pgxpool.Pool
}

// NewPluginStore creates a new PostgreSQL-backed plugin store.
func NewPluginStore(pool *pgxpool.Pool) *PluginStore {
	return &PluginStore{
		pool: pool,
	}
}

// Create inserts the plugin as a single row. The plugins_org_name_key
// constraint rejects a concurrent install of the same name.
func (s *PluginStore) Create(ctx context.Context, p *models.Plugin) error {
	query := `
		INSERT INTO plugins (
			plugin_id, org_id, name, properties, signature, module, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PluginID,
		p.OrgID,
		p.Name,
		p.Properties,
		p.Signature,
		p.Module,
		p.CreatedAt,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	log.Info().
		Str("org_id", p.OrgID.String()).
		Str("plugin_id", p.PluginID.String()).
		Str("name", p.Name).
		Int("module_bytes", len(p.Module)).
		Msg("Created plugin")

	return nil
}

// GetByName retrieves a plugin by canonical name within an organization.
func (s *PluginStore) GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Plugin, error) {
	query := `
		SELECT plugin_id, org_id, name, properties, signature, module, created_at
		FROM plugins
		WHERE org_id = $1 AND name = $2
	`

	var p models.Plugin
	err := s.pool.QueryRow(ctx, query, orgID, name).Scan(
		&p.PluginID,
		&p.OrgID,
		&p.Name,
		&p.Properties,
		&p.Signature,
		&p.Module,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPluginNotFound
		}
		return nil, fmt.Errorf("failed to get plugin: %w", mapPostgresError(err))
	}

	return &p, nil
}

// ListByOrganization returns all plugins of an organization ordered by name.
// Module binaries are not loaded.
func (s *PluginStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Plugin, error) {
	query := `
		SELECT plugin_id, org_id, name, properties, signature, created_at
		FROM plugins
		WHERE org_id = $1
		ORDER BY name
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var plugins []*models.Plugin
	for rows.Next() {
		var p models.Plugin
		if err := rows.Scan(&p.PluginID, &p.OrgID, &p.Name, &p.Properties, &p.Signature, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plugin: %w", err)
		}
		plugins = append(plugins, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plugins: %w", err)
	}

	return plugins, nil
}
