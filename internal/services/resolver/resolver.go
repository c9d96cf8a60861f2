// Package resolver maps abstract base assets to exchange-specific
// instrument symbols and market types.
package resolver

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// Resolver is a pure lookup over the static instrument mapping table.
// It does no I/O and is safe for concurrent use after construction.
type Resolver struct {
	byKey map[key]domain.InstrumentMapping
}

type key struct {
	exchange  string
	baseAsset string
}

// New builds a Resolver from the configured mappings. At most one mapping
// per (exchange, asset) pair is allowed.
func New(mappings []domain.InstrumentMapping) (*Resolver, error) {
	byKey := make(map[key]domain.InstrumentMapping, len(mappings))
	for _, m := range mappings {
		k := key{exchange: m.Exchange, baseAsset: m.BaseAsset}
		if _, dup := byKey[k]; dup {
			return nil, errors.Errorf("duplicate instrument mapping for %s/%s", m.Exchange, m.BaseAsset)
		}
		byKey[k] = m
	}

	return &Resolver{byKey: byKey}, nil
}

// Resolve returns the mapping for (exchange, baseAsset). A false result
// means the exchange does not quote this asset; callers skip the exchange,
// it is not an error.
func (r *Resolver) Resolve(exchange, baseAsset string) (domain.InstrumentMapping, bool) {
	m, ok := r.byKey[key{exchange: exchange, baseAsset: baseAsset}]
	return m, ok
}

// MappingsFor returns all mappings for one base asset, sorted by exchange
// name so iteration order is deterministic.
func (r *Resolver) MappingsFor(baseAsset string) []domain.InstrumentMapping {
	var mappings []domain.InstrumentMapping
	for k, m := range r.byKey {
		if k.baseAsset == baseAsset {
			mappings = append(mappings, m)
		}
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].Exchange < mappings[j].Exchange })

	return mappings
}

// Exchanges returns the distinct exchange names present in the mapping
// table, sorted.
func (r *Resolver) Exchanges() []string {
	seen := make(map[string]struct{})
	for k := range r.byKey {
		seen[k.exchange] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Assets returns the distinct base assets present in the mapping table,
// sorted.
func (r *Resolver) Assets() []string {
	seen := make(map[string]struct{})
	for k := range r.byKey {
		seen[k.baseAsset] = struct{}{}
	}

	assets := make([]string, 0, len(seen))
	for asset := range seen {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	return assets
}
