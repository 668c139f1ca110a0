// Package admin implements the owner's CRUD over products, categories and
// promotions. Writes go through the persistence adapter and invalidate the
// replicated master catalog so stores see changes on their next pull.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"possync/internal/catalog"
	"possync/internal/model"
	"possync/internal/persist"
)

// ErrNotFound is returned when the target id is unknown. No state mutated.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned for malformed entities. No state mutated.
var ErrValidation = errors.New("validation failed")

// ErrBackend is returned when the durable write fails. The in-memory catalog
// may already hold the change; the inconsistency window closes on the next
// successful write-through.
var ErrBackend = errors.New("backend write failed")

// Service owns the promotion set and drives catalog mutations.
type Service struct {
	mu         sync.Mutex
	promotions map[int64]model.Promotion
	lastID     int64

	catalog *catalog.Service
	adapter persist.Adapter
	logger  *zap.Logger
}

// NewService creates a Service bound to the master catalog and adapter.
func NewService(cat *catalog.Service, adapter persist.Adapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		promotions: map[int64]model.Promotion{},
		catalog:    cat,
		adapter:    adapter,
		logger:     logger,
	}
}

// Warm rebuilds the promotion set from the durable backend.
func (s *Service) Warm(ctx context.Context) error {
	promos, err := s.adapter.LoadPromotions(ctx)
	if err != nil {
		return fmt.Errorf("warm promotions: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range promos {
		s.promotions[p.ID] = p
		if p.ID > s.lastID {
			s.lastID = p.ID
		}
	}
	return nil
}

// nextID hands out timestamp-derived ids, bumped past the last one so two
// writes in the same millisecond stay distinct.
func (s *Service) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// SaveProduct upserts a product into the master catalog. A missing id gets a
// fresh one; created_at is set once, updated_at always.
func (s *Service) SaveProduct(ctx context.Context, p model.Product) (model.Product, error) {
	if p.Name == "" {
		return model.Product{}, fmt.Errorf("%w: product name is required", ErrValidation)
	}
	now := time.Now()
	if p.ID == 0 && p.Barcode == "" && p.SKU == "" {
		p.ID = s.nextID()
	}
	if p.CreatedAt == nil {
		p.CreatedAt = &now
	}
	p.UpdatedAt = &now
	p.StoreID = catalog.MasterStoreID

	s.catalog.UpsertMaster(p)

	if err := s.adapter.UpsertProducts(ctx, catalog.MasterStoreID, []model.Product{p}); err != nil {
		s.logger.Error("product write-through failed",
			zap.String("key", p.IdentityKey()), zap.Error(err))
		return p, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	s.logger.Info("product saved", zap.String("key", p.IdentityKey()), zap.String("name", p.Name))
	return p, nil
}

// DeleteProduct removes a product by numeric id, barcode or sku from every
// store's cached list and the durable backend.
func (s *Service) DeleteProduct(ctx context.Context, idOrCode string) error {
	var numericID int64
	if n, err := strconv.ParseInt(idOrCode, 10, 64); err == nil {
		numericID = n
	}
	_, key, ok := s.catalog.FindProduct(idOrCode, numericID)
	if !ok {
		return fmt.Errorf("%w: product %q", ErrNotFound, idOrCode)
	}

	s.catalog.RemoveProduct(key)

	if err := s.adapter.DeleteProduct(ctx, key); err != nil {
		s.logger.Error("product delete failed in backend", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	s.logger.Info("product deleted", zap.String("key", key))
	return nil
}

// SaveCategory upserts a category into the global map.
func (s *Service) SaveCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if c.Name == "" {
		return model.Category{}, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	now := time.Now()
	if c.ID == 0 {
		c.ID = s.nextID()
	}
	if c.CreatedAt == nil {
		c.CreatedAt = &now
	}
	c.UpdatedAt = &now

	s.catalog.UpsertCategory(c)

	if err := s.adapter.UpsertCategories(ctx, []model.Category{c}); err != nil {
		s.logger.Error("category write-through failed", zap.Int64("id", c.ID), zap.Error(err))
		return c, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	s.logger.Info("category saved", zap.Int64("id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// DeleteCategory removes a category by id.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if !s.catalog.RemoveCategory(id) {
		return fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	if err := s.adapter.DeleteCategory(ctx, id); err != nil {
		s.logger.Error("category delete failed in backend", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	s.logger.Info("category deleted", zap.Int64("id", id))
	return nil
}

// SavePromotion upserts a promotion. mix_match needs a product set; every
// other type needs a single product reference.
func (s *Service) SavePromotion(ctx context.Context, p model.Promotion) (model.Promotion, error) {
	if !model.ValidPromoType(p.PromoType) {
		return model.Promotion{}, fmt.Errorf("%w: unknown promo_type %q", ErrValidation, p.PromoType)
	}
	if p.PromoType == model.PromoMixMatch {
		if len(p.Products) == 0 {
			return model.Promotion{}, fmt.Errorf("%w: mix_match requires a product set", ErrValidation)
		}
	} else if p.Barcode == "" && p.ProductID == 0 {
		return model.Promotion{}, fmt.Errorf("%w: promotion requires a product reference", ErrValidation)
	}

	now := time.Now()
	if p.ID == 0 {
		p.ID = s.nextID()
	}
	if p.CreatedAt == nil {
		p.CreatedAt = &now
	}
	p.UpdatedAt = &now

	s.mu.Lock()
	s.promotions[p.ID] = p
	if p.ID > s.lastID {
		s.lastID = p.ID
	}
	s.mu.Unlock()

	if err := s.adapter.UpsertPromotion(ctx, p); err != nil {
		s.logger.Error("promotion write-through failed", zap.Int64("id", p.ID), zap.Error(err))
		return p, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	s.logger.Info("promotion saved", zap.Int64("id", p.ID), zap.String("type", p.PromoType))
	return p, nil
}

// DeletePromotion removes a promotion by id.
func (s *Service) DeletePromotion(ctx context.Context, id int64) error {
	s.mu.Lock()
	_, ok := s.promotions[id]
	if ok {
		delete(s.promotions, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: promotion %d", ErrNotFound, id)
	}
	if err := s.adapter.DeletePromotion(ctx, id); err != nil {
		s.logger.Error("promotion delete failed in backend", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	s.logger.Info("promotion deleted", zap.Int64("id", id))
	return nil
}

// Promotion looks up a promotion by id.
func (s *Service) Promotion(id int64) (model.Promotion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promotions[id]
	return p, ok
}
