// Package catalog replicates product and category data. Sales sync is
// peer-to-peer, catalog is hub-and-spoke: every store pushes into its own
// list but pulls from the master store so prices and stock cannot fork.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"possync/internal/model"
	"possync/internal/persist"
)

// MasterStoreID is the store whose product list is authoritative.
const MasterStoreID = 1

// ErrValidation is returned for pushes missing required fields.
var ErrValidation = errors.New("validation failed")

// ChunkResult records the outcome of one durable write chunk. Failed chunks
// do not fail the push; callers needing durability can inspect the list.
type ChunkResult struct {
	Index int
	Rows  int
	Err   error
}

// PushResult summarizes a catalog batch merge.
type PushResult struct {
	TotalProducts int           `json:"totalProducts"`
	IsLastBatch   bool          `json:"isLastBatch"`
	Chunks        []ChunkResult `json:"-"`
}

// Service holds the per-store product lists and the global category map.
type Service struct {
	mu         sync.RWMutex
	products   map[int]map[string]model.Product
	categories map[int64]model.Category

	adapter   persist.Adapter
	logger    *zap.Logger
	chunkSize int
}

// NewService creates a Service. chunkSize bounds each durable write; values
// below 1 fall back to 200.
func NewService(adapter persist.Adapter, logger *zap.Logger, chunkSize int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunkSize < 1 {
		chunkSize = 200
	}
	return &Service{
		products:   map[int]map[string]model.Product{},
		categories: map[int64]model.Category{},
		adapter:    adapter,
		logger:     logger,
		chunkSize:  chunkSize,
	}
}

// Warm rebuilds the catalog caches from the durable backend.
func (s *Service) Warm(ctx context.Context) error {
	products, err := s.adapter.LoadProducts(ctx)
	if err != nil {
		return fmt.Errorf("warm products: %w", err)
	}
	categories, err := s.adapter.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("warm categories: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for storeID, rows := range products {
		byKey := map[string]model.Product{}
		for _, p := range rows {
			if key := p.IdentityKey(); key != "" {
				byKey[key] = p
			}
		}
		s.products[storeID] = byKey
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return nil
}

// PushCatalog merges a product batch into the store's list (whole-record
// upsert by identity key) and categories into the global map. The same rows
// are then written through to the durable backend in fixed-size chunks;
// chunk failures are logged and collected but never fail the push.
func (s *Service) PushCatalog(ctx context.Context, storeID int, products []model.Product, categories []model.Category, isLastBatch bool) (PushResult, error) {
	if storeID <= 0 {
		return PushResult{}, fmt.Errorf("%w: storeId is required", ErrValidation)
	}

	s.mu.Lock()
	byKey, ok := s.products[storeID]
	if !ok {
		byKey = map[string]model.Product{}
		s.products[storeID] = byKey
	}
	merged := make([]model.Product, 0, len(products))
	for _, p := range products {
		key := p.IdentityKey()
		if key == "" {
			continue
		}
		p.StoreID = storeID
		byKey[key] = p
		merged = append(merged, p)
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	total := len(byKey)
	s.mu.Unlock()

	chunks := s.writeThrough(ctx, storeID, merged, categories)

	s.logger.Info("catalog pushed",
		zap.Int("store_id", storeID),
		zap.Int("products", len(merged)),
		zap.Int("categories", len(categories)),
		zap.Int("total_products", total),
		zap.Bool("last_batch", isLastBatch),
	)
	return PushResult{TotalProducts: total, IsLastBatch: isLastBatch, Chunks: chunks}, nil
}

// writeThrough performs the best-effort secondary write outside the catalog
// lock, chunked to bound request size.
func (s *Service) writeThrough(ctx context.Context, storeID int, products []model.Product, categories []model.Category) []ChunkResult {
	var results []ChunkResult
	for i := 0; i < len(products); i += s.chunkSize {
		end := i + s.chunkSize
		if end > len(products) {
			end = len(products)
		}
		chunk := products[i:end]
		err := s.adapter.UpsertProducts(ctx, storeID, chunk)
		results = append(results, ChunkResult{Index: len(results), Rows: len(chunk), Err: err})
		if err != nil {
			s.logger.Warn("catalog chunk write failed",
				zap.Int("store_id", storeID),
				zap.Int("chunk", len(results)-1),
				zap.Int("rows", len(chunk)),
				zap.Error(err),
			)
		}
	}
	if len(categories) > 0 {
		if err := s.adapter.UpsertCategories(ctx, categories); err != nil {
			s.logger.Warn("category write failed", zap.Error(err))
			results = append(results, ChunkResult{Index: len(results), Rows: len(categories), Err: err})
		}
	}
	return results
}

// PullCatalog returns the master product list (or an explicitly requested
// store's) plus the full category map. Products sort by identity key and
// categories by id so pulls are stable.
func (s *Service) PullCatalog(storeID int) ([]model.Product, []model.Category) {
	if storeID == 0 {
		storeID = MasterStoreID
	}

	s.mu.RLock()
	byKey := s.products[storeID]
	products := make([]model.Product, 0, len(byKey))
	for _, p := range byKey {
		products = append(products, p)
	}
	categories := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	s.mu.RUnlock()

	sort.Slice(products, func(i, j int) bool {
		return products[i].IdentityKey() < products[j].IdentityKey()
	})
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return products, categories
}

// UpsertMaster puts a product into the master store's list so pulls issued
// right after an admin write already see it.
func (s *Service) UpsertMaster(p model.Product) {
	key := p.IdentityKey()
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.products[MasterStoreID]
	if !ok {
		byKey = map[string]model.Product{}
		s.products[MasterStoreID] = byKey
	}
	p.StoreID = MasterStoreID
	byKey[key] = p
}

// UpsertCategory puts a category into the global map.
func (s *Service) UpsertCategory(c model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// FindProduct locates a product in the master list by numeric id, barcode,
// or sku and returns it with its identity key.
func (s *Service) FindProduct(idOrCode string, numericID int64) (model.Product, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, p := range s.products[MasterStoreID] {
		if numericID != 0 && p.ID == numericID {
			return p, key, true
		}
		if idOrCode != "" && (p.Barcode == idOrCode || p.SKU == idOrCode) {
			return p, key, true
		}
	}
	return model.Product{}, "", false
}

// RemoveProduct deletes the key from every store's cached list, not just the
// master's. Returns how many store lists held it.
func (s *Service) RemoveProduct(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, byKey := range s.products {
		if _, ok := byKey[key]; ok {
			delete(byKey, key)
			removed++
		}
	}
	return removed
}

// RemoveCategory deletes the category from the global map. Reports whether
// it existed.
func (s *Service) RemoveCategory(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return false
	}
	delete(s.categories, id)
	return true
}

// Category looks up a category by id.
func (s *Service) Category(id int64) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok
}
