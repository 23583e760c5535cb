// Package bootstrap loads organizations, headings and package items from a
// fixture so a fresh store can serve catalogue requests.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/store"
)

// Stores receives the fixture data.
type Stores struct {
	Organizations store.OrganizationStore
	Headings      store.HeadingStore
	Packages      store.PackageStore
}

// Result counts what Bootstrap created.
type Result struct {
	Organizations int
	Headings      int
	PackageItems  int
}

// Bootstrap creates every fixture record that does not already exist. Existing
// records are left untouched so the same fixture can be applied on every
// start.
func Bootstrap(ctx context.Context, stores Stores, fixture *Fixture) (*Result, error) {
	if stores.Organizations == nil || stores.Headings == nil || stores.Packages == nil {
		return nil, fmt.Errorf("organization, heading and package stores are required")
	}

	res := &Result{}
	now := time.Now().UTC()

	for _, org := range fixture.Organizations {
		err := stores.Organizations.Create(ctx, &models.Organization{
			OrgID:       org.ID,
			Name:        org.Name,
			PluginKeyID: org.PluginKeyID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		switch {
		case err == nil:
			res.Organizations++
		case errors.Is(err, store.ErrOrganizationAlreadyExists):
		default:
			return nil, fmt.Errorf("failed to create organization %q: %w", org.Name, err)
		}

		for _, h := range org.Headings {
			err := stores.Headings.Create(ctx, &models.Heading{
				HeadingID:    fixtureID(org.ID, h.ID, h.Name),
				OrgID:        org.ID,
				Name:         h.Name,
				Order:        h.Order,
				Type:         h.Type,
				DurationUnit: h.DurationUnit,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			switch {
			case err == nil:
				res.Headings++
			case errors.Is(err, store.ErrHeadingAlreadyExists):
			default:
				return nil, fmt.Errorf("failed to create heading %q: %w", h.Name, err)
			}
		}

		for _, p := range org.Packages {
			for _, item := range p.Items {
				err := stores.Packages.CreateItem(ctx, &models.PackageItem{
					ItemID:       fixtureID(p.ID, item.ID, item.Name),
					PackageID:    p.ID,
					OrgID:        org.ID,
					HeadingID:    fixtureID(org.ID, uuid.Nil, item.Name),
					Name:         item.Name,
					Order:        item.Order,
					Type:         item.Type,
					DurationUnit: item.DurationUnit,
					CreatedAt:    now,
					UpdatedAt:    now,
				})
				switch {
				case err == nil:
					res.PackageItems++
				case errors.Is(err, store.ErrPackageItemAlreadyExists):
				default:
					return nil, fmt.Errorf("failed to create package item %q: %w", item.Name, err)
				}
			}
		}

		log.Debug().Str("org_id", org.ID.String()).Str("org", org.Name).Msg("Organization bootstrapped")
	}

	return res, nil
}

// fixtureID returns id, or a name based UUID within parent when id is unset.
func fixtureID(parent, id uuid.UUID, name string) uuid.UUID {
	if id != uuid.Nil {
		return id
	}
	return uuid.NewSHA1(parent, []byte(name))
}
