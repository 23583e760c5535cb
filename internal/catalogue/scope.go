package catalogue

import (
	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/models"
)

// Scope identifies the formula a catalogue is built for. Exactly one of
// Heading or PackageItem may be set; when neither is, Order is required and
// Type, DurationUnit and PackageID describe the item being authored.
type Scope struct {
	OrgID       uuid.UUID
	Heading     *models.Heading
	PackageItem *models.PackageItem

	Order        *int
	Type         models.HeadingType
	DurationUnit models.DurationUnit
	// PackageID resolves a bare Order against a package instead of the
	// organization's headings.
	PackageID uuid.NullUUID

	// Conditional selects the employee conditional attributes instead of the
	// employee rule attributes.
	Conditional bool
}

// ForHeading scopes a request to an existing heading.
func ForHeading(h *models.Heading, conditional bool) Scope {
	return Scope{OrgID: h.OrgID, Heading: h, Conditional: conditional}
}

// ForPackageItem scopes a request to an existing package item.
func ForPackageItem(item *models.PackageItem, conditional bool) Scope {
	return Scope{OrgID: item.OrgID, PackageItem: item, Conditional: conditional}
}

// ForOrder scopes a request to an item not yet persisted.
func ForOrder(orgID uuid.UUID, order int, headingType models.HeadingType, unit models.DurationUnit) Scope {
	return Scope{OrgID: orgID, Order: &order, Type: headingType, DurationUnit: unit}
}

// current returns the item being authored and the package it belongs to.
func (s Scope) current() (models.Item, uuid.NullUUID, error) {
	switch {
	case s.Heading != nil && s.PackageItem != nil:
		return models.Item{}, uuid.NullUUID{}, &ConfigurationError{Err: ErrAmbiguousContext}
	case s.PackageItem != nil:
		return s.PackageItem.Item(), uuid.NullUUID{UUID: s.PackageItem.PackageID, Valid: true}, nil
	case s.Heading != nil:
		return s.Heading.Item(), uuid.NullUUID{}, nil
	case s.Order != nil:
		return models.Item{
			Order:        *s.Order,
			Type:         s.Type,
			DurationUnit: s.DurationUnit,
		}, s.PackageID, nil
	default:
		return models.Item{}, uuid.NullUUID{}, &ConfigurationError{Err: ErrMissingContext}
	}
}
