// Package catalogue answers which variable tokens a payroll formula may
// reference. A formula may use the static tokens, employee attributes,
// items ordered before it (subject to scope exclusion), organization
// plugins and compiled-in extensions. Every source must be disjoint.
package catalogue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/formulary/internal/attribute"
	"github.com/wolfeidau/formulary/internal/extension"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/store"
	"github.com/wolfeidau/formulary/internal/telemetry"
	"github.com/wolfeidau/formulary/internal/variable"
)

// Builder builds variable catalogues. It holds no mutable state and is safe
// for concurrent use.
type Builder struct {
	headings   store.HeadingStore
	packages   store.PackageStore
	plugins    store.PluginStore
	attributes attribute.Source
	extensions *extension.Registry
}

var _ extension.ItemLookup = (*Builder)(nil)

// NewBuilder creates a catalogue builder.
func NewBuilder(
	headings store.HeadingStore,
	packages store.PackageStore,
	plugins store.PluginStore,
	attributes attribute.Source,
	extensions *extension.Registry,
) *Builder {
	return &Builder{
		headings:   headings,
		packages:   packages,
		plugins:    plugins,
		attributes: attributes,
		extensions: extensions,
	}
}

// PossibleDependents returns the items in the current item's scope with a
// strictly smaller order. The scope is the package when resolving a package
// item (or a bare order with a package), otherwise the organization's
// headings.
func (b *Builder) PossibleDependents(ctx context.Context, scope Scope) ([]models.Item, error) {
	current, packageID, err := scope.current()
	if err != nil {
		return nil, err
	}

	items, err := b.scopeItems(ctx, scope.OrgID, packageID)
	if err != nil {
		return nil, err
	}

	var dependents []models.Item
	for _, item := range items {
		if item.ID == current.ID && current.ID != uuid.Nil {
			continue
		}
		if item.Order == current.Order {
			return nil, configErr("%w: %q and %q both have order %d",
				ErrDuplicateOrder, item.Name, current.Name, current.Order)
		}
		if item.Order < current.Order {
			dependents = append(dependents, item)
		}
	}

	return dependents, nil
}

// ScopedDependents filters PossibleDependents. When the current item is
// amount-duration scoped, candidates that are themselves amount-duration
// scoped are excluded, since both are proportionated against worked days.
func (b *Builder) ScopedDependents(ctx context.Context, scope Scope) ([]models.Item, error) {
	current, _, err := scope.current()
	if err != nil {
		return nil, err
	}

	dependents, err := b.PossibleDependents(ctx, scope)
	if err != nil {
		return nil, err
	}

	if !current.Type.IsAmountDurationScoped() {
		return dependents, nil
	}

	filtered := dependents[:0]
	for _, item := range dependents {
		if !item.Type.IsAmountDurationScoped() {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Build returns every token the current item's formula may reference.
func (b *Builder) Build(ctx context.Context, scope Scope) (variable.Set, error) {
	tokens, err := b.build(ctx, scope)
	telemetry.GetMetrics().RecordCatalogueBuild(ctx, "scoped", len(tokens), err)
	return tokens, err
}

func (b *Builder) build(ctx context.Context, scope Scope) (variable.Set, error) {
	var (
		attrs variable.Set
		err   error
	)
	if scope.Conditional {
		attrs, err = b.attributes.ConditionalTokens(ctx, scope.OrgID)
	} else {
		attrs, err = b.attributes.RuleTokens(ctx, scope.OrgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee attributes: %w", err)
	}

	dependents, err := b.ScopedDependents(ctx, scope)
	if err != nil {
		return nil, err
	}

	itemTokens, err := itemTokenSet(dependents)
	if err != nil {
		return nil, err
	}

	pluginTokens, err := b.pluginTokens(ctx, scope.OrgID)
	if err != nil {
		return nil, err
	}

	tokens, err := variable.MergeAll(
		variable.StaticTokens(),
		attrs,
		itemTokens,
		pluginTokens,
		b.extensions.Tokens(),
	)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("org_id", scope.OrgID.String()).
		Bool("conditional", scope.Conditional).
		Int("dependents", len(dependents)).
		Int("tokens", len(tokens)).
		Msg("Built variable catalogue")

	return tokens, nil
}

// AllOrganizationTokens returns the union of every token source of the
// organization, using all headings and all plugins with no ordering or
// scope restriction. Both attribute sets are included. It is used to check
// a new plugin name for collisions.
func (b *Builder) AllOrganizationTokens(ctx context.Context, orgID uuid.UUID) (variable.Set, error) {
	tokens, err := b.allOrganizationTokens(ctx, orgID)
	telemetry.GetMetrics().RecordCatalogueBuild(ctx, "organization", len(tokens), err)
	return tokens, err
}

func (b *Builder) allOrganizationTokens(ctx context.Context, orgID uuid.UUID) (variable.Set, error) {
	rule, err := b.attributes.RuleTokens(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee attributes: %w", err)
	}
	conditional, err := b.attributes.ConditionalTokens(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee attributes: %w", err)
	}
	attrs := rule.Clone()
	for tok := range conditional {
		attrs.Add(tok)
	}

	headings, err := b.scopeItems(ctx, orgID, uuid.NullUUID{})
	if err != nil {
		return nil, err
	}
	headingTokens, err := itemTokenSet(headings)
	if err != nil {
		return nil, err
	}

	pluginTokens, err := b.pluginTokens(ctx, orgID)
	if err != nil {
		return nil, err
	}

	return variable.MergeAll(
		variable.StaticTokens(),
		attrs,
		headingTokens,
		pluginTokens,
		b.extensions.Tokens(),
	)
}

// LookupItem resolves a heading or package item by name in the call's scope.
func (b *Builder) LookupItem(ctx context.Context, call *extension.CallContext, name string) (models.Item, error) {
	want, err := variable.Normalize(name)
	if err != nil {
		return models.Item{}, err
	}

	items, err := b.scopeItems(ctx, call.OrgID, call.PackageID)
	if err != nil {
		return models.Item{}, err
	}

	for _, item := range items {
		tok, err := variable.Normalize(item.Name)
		if err != nil {
			continue
		}
		if tok == want {
			return item, nil
		}
	}

	return models.Item{}, ErrItemNotFound
}

func (b *Builder) scopeItems(ctx context.Context, orgID uuid.UUID, packageID uuid.NullUUID) ([]models.Item, error) {
	if packageID.Valid {
		pkgItems, err := b.packages.ListItems(ctx, orgID, packageID.UUID)
		if err != nil {
			return nil, fmt.Errorf("failed to list package items: %w", err)
		}
		items := make([]models.Item, 0, len(pkgItems))
		for _, it := range pkgItems {
			items = append(items, it.Item())
		}
		return items, nil
	}

	headings, err := b.headings.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list headings: %w", err)
	}
	items := make([]models.Item, 0, len(headings))
	for _, h := range headings {
		items = append(items, h.Item())
	}
	return items, nil
}

func (b *Builder) pluginTokens(ctx context.Context, orgID uuid.UUID) (variable.Set, error) {
	plugins, err := b.plugins.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", err)
	}

	tokens := make([]variable.Token, 0, len(plugins))
	for _, p := range plugins {
		tok, err := variable.Normalize(p.Name)
		if err != nil {
			return nil, configErr("plugin %s: %w", p.PluginID, err)
		}
		tokens = append(tokens, tok)
	}
	return variable.NewSet(tokens...)
}

func itemTokenSet(items []models.Item) (variable.Set, error) {
	tokens := make([]variable.Token, 0, len(items))
	for _, item := range items {
		tok, err := variable.Normalize(item.Name)
		if err != nil {
			return nil, configErr("item %s: %w", item.ID, err)
		}
		tokens = append(tokens, tok)
	}
	return variable.NewSet(tokens...)
}
