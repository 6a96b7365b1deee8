package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"coinSage/internal/model"
)

// ErrNotFound means the token matched no catalog id or symbol.
var ErrNotFound = errors.New("coin not found")

// CatalogSource provides the coin catalog and batched market-cap rows.
type CatalogSource interface {
	CoinsList(ctx context.Context) ([]model.CoinCatalogEntry, error)
	CoinMarkets(ctx context.Context, ids []string) ([]model.CoinMarket, error)
}

// Resolver maps user tokens (symbol or canonical id) to canonical CoinGecko
// ids. It owns two process-lifetime caches: the full coin catalog, loaded at
// most once, and a token-to-id map that is never evicted.
type Resolver struct {
	source CatalogSource
	logger *zap.Logger

	mu      sync.RWMutex
	catalog []model.CoinCatalogEntry
	loaded  bool
	ids     map[string]string
}

// New builds a Resolver over the given catalog source.
func New(source CatalogSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		source: source,
		logger: logger,
		ids:    make(map[string]string),
	}
}

// Resolve maps token to a canonical id. An exact id match always wins over
// symbol matching; a symbol shared by several coins is broken by the highest
// market cap, falling back to the first candidate in catalog order when the
// market-cap batch itself fails.
func (r *Resolver) Resolve(ctx context.Context, token string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(token))
	if key == "" {
		return "", ErrNotFound
	}

	if id, ok := r.cached(key); ok {
		return id, nil
	}

	catalog, err := r.ensureCatalog(ctx)
	if err != nil {
		return "", fmt.Errorf("load coin catalog: %w", err)
	}

	for _, entry := range catalog {
		if strings.ToLower(entry.ID) == key {
			r.remember(key, entry.ID)
			return entry.ID, nil
		}
	}

	var candidates []model.CoinCatalogEntry
	for _, entry := range catalog {
		if strings.ToLower(entry.Symbol) == key {
			candidates = append(candidates, entry)
		}
	}

	switch len(candidates) {
	case 0:
		return "", ErrNotFound
	case 1:
		r.remember(key, candidates[0].ID)
		return candidates[0].ID, nil
	}

	id := r.pickByMarketCap(ctx, key, candidates)
	r.remember(key, id)
	return id, nil
}

// pickByMarketCap breaks a symbol collision by fetching caps for all
// candidates in one batch. Missing caps count as zero; ties keep the first
// candidate in catalog order. A failed batch degrades to the first candidate
// rather than failing the resolution.
func (r *Resolver) pickByMarketCap(ctx context.Context, token string, candidates []model.CoinCatalogEntry) string {
	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.ID)
	}

	rows, err := r.source.CoinMarkets(ctx, ids)
	if err != nil || len(rows) == 0 {
		r.logger.Warn("market cap lookup degraded, using first catalog match",
			zap.String("token", token), zap.String("coin", candidates[0].ID), zap.Error(err))
		return candidates[0].ID
	}

	caps := make(map[string]float64, len(rows))
	for _, row := range rows {
		if row.MarketCap != nil {
			caps[row.ID] = *row.MarketCap
		}
	}

	best := candidates[0].ID
	bestCap := caps[best]
	for _, candidate := range candidates[1:] {
		if caps[candidate.ID] > bestCap {
			best = candidate.ID
			bestCap = caps[candidate.ID]
		}
	}
	return best
}

// ensureCatalog loads the full catalog on first use. Two racing resolutions
// may both fetch; the duplicate fetch is wasteful but harmless since the
// catalog is immutable once loaded.
func (r *Resolver) ensureCatalog(ctx context.Context) ([]model.CoinCatalogEntry, error) {
	r.mu.RLock()
	if r.loaded {
		catalog := r.catalog
		r.mu.RUnlock()
		return catalog, nil
	}
	r.mu.RUnlock()

	r.logger.Info("fetching coin catalog")
	catalog, err := r.source.CoinsList(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.catalog = catalog
	r.loaded = true
	r.mu.Unlock()

	return catalog, nil
}

func (r *Resolver) cached(key string) (string, bool) {
	r.mu.RLock()
	id, ok := r.ids[key]
	r.mu.RUnlock()
	return id, ok
}

func (r *Resolver) remember(key, id string) {
	r.mu.Lock()
	r.ids[key] = id
	r.mu.Unlock()
}
