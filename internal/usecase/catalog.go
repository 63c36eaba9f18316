package usecase

import (
	"context"
	"fmt"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/cache"
)

// Memo function ids.
const (
	FnCatalog = "catalog"
	FnFetch   = "fetch"
)

// CatalogService serves the memoized company catalog.
type CatalogService struct {
	source domrepo.CatalogSource
	memo   *cache.Memo
	key    string
}

// NewCatalogService memoizes source under key, usually the catalog path.
func NewCatalogService(source domrepo.CatalogSource, memo *cache.Memo, key string) *CatalogService {
	return &CatalogService{source: source, memo: memo, key: key}
}

// Entries returns the catalog, loading it on first use or after invalidation.
func (s *CatalogService) Entries(ctx context.Context) ([]models.CatalogEntry, error) {
	return cache.RememberFor(ctx, s.memo, 0, FnCatalog, []interface{}{s.key}, s.source.Load)
}

// Resolve returns the symbol of the first entry named name.
// An empty name selects the first entry.
func Resolve(entries []models.CatalogEntry, name string) (models.CatalogEntry, error) {
	if len(entries) == 0 {
		return models.CatalogEntry{}, fmt.Errorf("%w: empty catalog", models.ErrCatalog)
	}
	if name == "" {
		return entries[0], nil
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return models.CatalogEntry{}, fmt.Errorf("%w: %q", models.ErrSymbolNotFound, name)
}
