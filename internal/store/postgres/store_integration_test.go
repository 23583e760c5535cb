//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString: fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
	})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, pool))
	// second run is a no-op
	require.NoError(t, RunMigrations(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestIntegration_Stores(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	orgs := NewOrganizationStore(pool)
	headings := NewHeadingStore(pool)
	plugins := NewPluginStore(pool)

	orgID, err := uuid.NewV7()
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("organization", func(t *testing.T) {
		org := &models.Organization{OrgID: orgID, Name: "Acme", PluginKeyID: "kid-1", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, orgs.Create(ctx, org))
		require.Equal(t, store.ErrOrganizationAlreadyExists, orgs.Create(ctx, org))

		got, err := orgs.Get(ctx, orgID)
		require.NoError(t, err)
		require.Equal(t, "kid-1", got.PluginKeyID)
	})

	var basic *models.Heading
	t.Run("headings", func(t *testing.T) {
		for i, name := range []string{"Basic Salary", "Allowance", "Tax"} {
			h := &models.Heading{
				HeadingID: uuid.Must(uuid.NewV7()),
				OrgID:     orgID,
				Name:      name,
				Order:     i + 1,
				Type:      models.HeadingTypeAddition,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if name == "Tax" {
				h.Type = models.HeadingTypeDeduction
				h.DurationUnit = models.DurationUnitMonthly
			}
			require.NoError(t, headings.Create(ctx, h))
			if basic == nil {
				basic = h
			}
		}

		dup := &models.Heading{HeadingID: uuid.Must(uuid.NewV7()), OrgID: orgID, Name: "basic salary", Order: 9, Type: models.HeadingTypeAddition, CreatedAt: now, UpdatedAt: now}
		require.Equal(t, store.ErrHeadingAlreadyExists, headings.Create(ctx, dup))

		list, err := headings.ListByOrganization(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		require.Equal(t, "Tax", list[2].Name)
		require.Equal(t, models.DurationUnitMonthly, list[2].DurationUnit)
		require.Equal(t, models.DurationUnitNone, list[0].DurationUnit)

		_, err = headings.Get(ctx, uuid.New(), basic.HeadingID)
		require.Equal(t, store.ErrHeadingNotFound, err)
	})

	t.Run("package items", func(t *testing.T) {
		pkgID := uuid.Must(uuid.NewV7())
		item := &models.PackageItem{
			ItemID:    uuid.Must(uuid.NewV7()),
			PackageID: pkgID,
			OrgID:     orgID,
			HeadingID: basic.HeadingID,
			Name:      basic.Name,
			Order:     1,
			Type:      basic.Type,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, headings.CreateItem(ctx, item))

		items, err := headings.ListItems(ctx, orgID, pkgID)
		require.NoError(t, err)
		require.Len(t, items, 1)

		got, err := headings.GetItem(ctx, orgID, item.ItemID)
		require.NoError(t, err)
		require.Equal(t, basic.HeadingID, got.HeadingID)
	})

	t.Run("plugins are unique per organization under concurrency", func(t *testing.T) {
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := plugins.Create(ctx, &models.Plugin{
					PluginID:   uuid.Must(uuid.NewV7()),
					OrgID:      orgID,
					Name:       "__OVERTIME__",
					Properties: []byte(`{}`),
					Signature:  []byte{1},
					Module:     []byte{2},
					CreatedAt:  now,
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
				} else if errors.Is(err, store.ErrPluginAlreadyExists) {
					conflicts++
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, succeeded)
		require.Equal(t, 7, conflicts)

		got, err := plugins.GetByName(ctx, orgID, "__OVERTIME__")
		require.NoError(t, err)
		require.Equal(t, []byte{2}, got.Module)

		list, err := plugins.ListByOrganization(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Nil(t, list[0].Module)
	})
}
