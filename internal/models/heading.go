package models

import (
	"time"

	"github.com/google/uuid"
)

// HeadingType categorizes a heading.
type HeadingType string

const (
	HeadingTypeAddition      HeadingType = "Addition"
	HeadingTypeDeduction     HeadingType = "Deduction"
	HeadingTypeStatutory     HeadingType = "Statutory"
	HeadingTypeInformational HeadingType = "Informational"
	HeadingTypeTax           HeadingType = "Tax"
)

// IsAmountDurationScoped reports whether amounts of this type are
// proportionated against worked vs total days at evaluation time.
func (t HeadingType) IsAmountDurationScoped() bool {
	return t == HeadingTypeAddition || t == HeadingTypeDeduction
}

// DurationUnit is the period an amount is expressed for. Empty means unset.
type DurationUnit string

const (
	DurationUnitNone    DurationUnit = ""
	DurationUnitDaily   DurationUnit = "Daily"
	DurationUnitMonthly DurationUnit = "Monthly"
	DurationUnitYearly  DurationUnit = "Yearly"
)

// Heading is an organization scoped, ordered computable payroll quantity.
type Heading struct {
	HeadingID    uuid.UUID // UUIDv7
	OrgID        uuid.UUID
	Name         string
	Order        int
	Type         HeadingType
	DurationUnit DurationUnit
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Item returns the ordering view of the heading.
func (h *Heading) Item() Item {
	return Item{
		ID:           h.HeadingID,
		Name:         h.Name,
		Order:        h.Order,
		Type:         h.Type,
		DurationUnit: h.DurationUnit,
	}
}

// PackageItem is a heading bound into a compensation package. Ordering is
// scoped to the package rather than the organization.
type PackageItem struct {
	ItemID       uuid.UUID // UUIDv7
	PackageID    uuid.UUID
	OrgID        uuid.UUID
	HeadingID    uuid.UUID
	Name         string
	Order        int
	Type         HeadingType
	DurationUnit DurationUnit
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Item returns the ordering view of the package item.
func (p *PackageItem) Item() Item {
	return Item{
		ID:           p.ItemID,
		Name:         p.Name,
		Order:        p.Order,
		Type:         p.Type,
		DurationUnit: p.DurationUnit,
	}
}

// Item is the subset of a Heading or PackageItem used for dependency
// ordering and scope filtering.
type Item struct {
	ID           uuid.UUID
	Name         string
	Order        int
	Type         HeadingType
	DurationUnit DurationUnit
}
