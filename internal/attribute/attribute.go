// Package attribute supplies the employee attribute tokens formulas may
// reference. Rule attributes are available to ordinary formulas; conditional
// attributes are available to conditional formulas.
package attribute

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/variable"
	"gopkg.in/yaml.v3"
)

// Source provides the employee attribute token sets for an organization.
type Source interface {
	RuleTokens(ctx context.Context, orgID uuid.UUID) (variable.Set, error)
	ConditionalTokens(ctx context.Context, orgID uuid.UUID) (variable.Set, error)
}

// Config lists attribute labels. Labels are normalized into tokens.
type Config struct {
	Rule        []string `yaml:"rule"`
	Conditional []string `yaml:"conditional"`
}

// DefaultConfig is used when no attribute file is configured.
func DefaultConfig() Config {
	return Config{
		Rule: []string{
			"Employee Age",
			"Years Of Service",
			"Number Of Dependents",
			"Employee Grade",
		},
		Conditional: []string{
			"Employee Gender",
			"Marital Status",
			"Employment Type",
			"Employee Branch",
			"Employee Division",
		},
	}
}

// Static serves the same attribute tokens for every organization.
type Static struct {
	rule        variable.Set
	conditional variable.Set
}

var _ Source = (*Static)(nil)

// NewStatic normalizes the configured labels. Duplicate tokens within a
// list are rejected.
func NewStatic(cfg Config) (*Static, error) {
	rule, err := tokenSet(cfg.Rule)
	if err != nil {
		return nil, fmt.Errorf("rule attributes: %w", err)
	}

	conditional, err := tokenSet(cfg.Conditional)
	if err != nil {
		return nil, fmt.Errorf("conditional attributes: %w", err)
	}

	return &Static{rule: rule, conditional: conditional}, nil
}

// LoadFile reads a YAML attribute configuration.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attribute file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse attribute file: %w", err)
	}

	return NewStatic(cfg)
}

func (s *Static) RuleTokens(context.Context, uuid.UUID) (variable.Set, error) {
	return s.rule.Clone(), nil
}

func (s *Static) ConditionalTokens(context.Context, uuid.UUID) (variable.Set, error) {
	return s.conditional.Clone(), nil
}

func tokenSet(labels []string) (variable.Set, error) {
	tokens := make([]variable.Token, 0, len(labels))
	for _, label := range labels {
		tok, err := variable.Normalize(label)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", label, err)
		}
		tokens = append(tokens, tok)
	}
	return variable.NewSet(tokens...)
}
