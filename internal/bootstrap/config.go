package bootstrap

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/models"
	"gopkg.in/yaml.v3"
)

// Fixture describes the organizations to create at startup.
type Fixture struct {
	Organizations []Organization `yaml:"organizations"`
}

// Organization is a fixture organization with its headings and packages.
type Organization struct {
	ID          uuid.UUID `yaml:"id"`
	Name        string    `yaml:"name"`
	PluginKeyID string    `yaml:"plugin_key_id"`
	Headings    []Heading `yaml:"headings"`
	Packages    []Package `yaml:"packages"`
}

// Heading is a fixture heading. ID is derived from the organization and
// name when omitted so repeated loads are stable.
type Heading struct {
	ID           uuid.UUID           `yaml:"id"`
	Name         string              `yaml:"name"`
	Order        int                 `yaml:"order"`
	Type         models.HeadingType  `yaml:"type"`
	DurationUnit models.DurationUnit `yaml:"duration_unit"`
}

// Package is a fixture compensation package.
type Package struct {
	ID    uuid.UUID `yaml:"id"`
	Items []Heading `yaml:"items"`
}

// LoadFile reads a fixture from a YAML file.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file %s: %w", path, err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture file %s: %w", path, err)
	}

	return &f, nil
}

// Validate checks required fields and heading types.
func (f *Fixture) Validate() error {
	for _, org := range f.Organizations {
		if org.ID == uuid.Nil {
			return fmt.Errorf("organization %q: id is required", org.Name)
		}
		if org.Name == "" {
			return fmt.Errorf("organization %s: name is required", org.ID)
		}
		for _, h := range org.Headings {
			if err := h.validate(); err != nil {
				return fmt.Errorf("organization %q: %w", org.Name, err)
			}
		}
		for _, p := range org.Packages {
			if p.ID == uuid.Nil {
				return fmt.Errorf("organization %q: package id is required", org.Name)
			}
			for _, item := range p.Items {
				if err := item.validate(); err != nil {
					return fmt.Errorf("organization %q package %s: %w", org.Name, p.ID, err)
				}
			}
		}
	}
	return nil
}

func (h Heading) validate() error {
	if h.Name == "" {
		return fmt.Errorf("heading name is required")
	}
	switch h.Type {
	case models.HeadingTypeAddition, models.HeadingTypeDeduction, models.HeadingTypeStatutory,
		models.HeadingTypeInformational, models.HeadingTypeTax:
	default:
		return fmt.Errorf("heading %q: unknown type %q", h.Name, h.Type)
	}
	switch h.DurationUnit {
	case models.DurationUnitNone, models.DurationUnitDaily, models.DurationUnitMonthly, models.DurationUnitYearly:
	default:
		return fmt.Errorf("heading %q: unknown duration unit %q", h.Name, h.DurationUnit)
	}
	return nil
}
