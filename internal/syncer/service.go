// Package syncer is the sales replication core: per-store ledgers with
// idempotent pushes, sibling pulls since a checkpoint, and the store
// registry.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"possync/internal/model"
	"possync/internal/persist"
)

// ErrValidation is returned when a push or registration is missing required
// fields. No state is mutated.
var ErrValidation = errors.New("validation failed")

// PushResult summarizes one accepted batch.
type PushResult struct {
	Accepted      int  `json:"accepted"`
	TotalForStore int  `json:"totalSales"`
	Persisted     bool `json:"persisted"`
}

// Stats is a cheap read-only snapshot for health and ops use.
type Stats struct {
	TotalStores  int         `json:"totalStores"`
	TotalSales   int         `json:"totalSales"`
	SalesByStore map[int]int `json:"salesByStore"`
}

// Service owns the authoritative per-store sale ledgers. The ledgers are a
// warm cache over the durable adapter; pushes write through best effort.
type Service struct {
	mu     sync.RWMutex
	ledger map[int][]model.Sale
	seen   map[int]map[string]struct{}
	stores map[int]model.Store

	adapter persist.Adapter
	logger  *zap.Logger
}

// NewService creates a Service backed by the given adapter.
func NewService(adapter persist.Adapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:  map[int][]model.Sale{},
		seen:    map[int]map[string]struct{}{},
		stores:  map[int]model.Store{},
		adapter: adapter,
		logger:  logger,
	}
}

// Warm rebuilds the in-memory ledgers and store registry from the durable
// backend. A load failure leaves the caches empty; the service stays usable.
func (s *Service) Warm(ctx context.Context) error {
	sales, err := s.adapter.LoadSales(ctx)
	if err != nil {
		return fmt.Errorf("warm sales: %w", err)
	}
	stores, err := s.adapter.LoadStores(ctx)
	if err != nil {
		return fmt.Errorf("warm stores: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for storeID, rows := range sales {
		numbers := map[string]struct{}{}
		for _, sale := range rows {
			numbers[sale.SaleNumber] = struct{}{}
		}
		s.ledger[storeID] = rows
		s.seen[storeID] = numbers
	}
	for _, st := range stores {
		s.stores[st.ID] = st
	}
	return nil
}

// Push merges a batch of sales into the store's ledger. Records whose
// sale_number already exists are silently dropped, so retrying a batch is
// safe. Accepted rows are written through to the durable backend outside the
// ledger lock; a write failure is logged and reported via Persisted=false
// without failing the push.
func (s *Service) Push(ctx context.Context, storeID int, sales []model.Sale) (PushResult, error) {
	if storeID <= 0 {
		return PushResult{}, fmt.Errorf("%w: storeId is required", ErrValidation)
	}
	if len(sales) == 0 {
		return PushResult{}, fmt.Errorf("%w: sales must be a non-empty array", ErrValidation)
	}

	s.mu.Lock()
	numbers, ok := s.seen[storeID]
	if !ok {
		numbers = map[string]struct{}{}
		s.seen[storeID] = numbers
	}
	accepted := make([]model.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.SaleNumber == "" {
			continue
		}
		if _, dup := numbers[sale.SaleNumber]; dup {
			continue
		}
		sale.StoreID = storeID
		numbers[sale.SaleNumber] = struct{}{}
		s.ledger[storeID] = append(s.ledger[storeID], sale)
		accepted = append(accepted, sale)
	}
	total := len(s.ledger[storeID])
	s.mu.Unlock()

	persisted := true
	if len(accepted) > 0 {
		if err := s.adapter.UpsertSales(ctx, storeID, accepted); err != nil {
			persisted = false
			s.logger.Warn("durable sale write failed, cache-only",
				zap.Int("store_id", storeID),
				zap.Int("rows", len(accepted)),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("sales pushed",
		zap.Int("store_id", storeID),
		zap.Int("received", len(sales)),
		zap.Int("accepted", len(accepted)),
		zap.Int("total_for_store", total),
	)
	return PushResult{Accepted: len(accepted), TotalForStore: total, Persisted: persisted}, nil
}

// Pull returns sales from every store except excludeStoreID (0 means no
// exclusion), newest first. When since is non-nil only sales strictly newer
// than it are included.
func (s *Service) Pull(excludeStoreID int, since *time.Time) []model.Sale {
	s.mu.RLock()
	out := make([]model.Sale, 0)
	for storeID, rows := range s.ledger {
		if excludeStoreID != 0 && storeID == excludeStoreID {
			continue
		}
		for _, sale := range rows {
			if since != nil && !sale.EventTime().After(*since) {
				continue
			}
			out = append(out, sale)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventTime().After(out[j].EventTime())
	})
	return out
}

// Stats counts stores and sales without copying the ledgers.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStore := make(map[int]int, len(s.ledger))
	total := 0
	for storeID, rows := range s.ledger {
		byStore[storeID] = len(rows)
		total += len(rows)
	}
	known := len(s.stores)
	for storeID := range s.ledger {
		if _, ok := s.stores[storeID]; !ok {
			known++
		}
	}
	return Stats{TotalStores: known, TotalSales: total, SalesByStore: byStore}
}

// RegisterStore upserts a store record. Registration over an inferred store
// replaces its placeholder identity.
func (s *Service) RegisterStore(ctx context.Context, st model.Store) (model.Store, error) {
	if st.ID <= 0 {
		return model.Store{}, fmt.Errorf("%w: store id is required", ErrValidation)
	}
	if st.Name == "" {
		return model.Store{}, fmt.Errorf("%w: store name is required", ErrValidation)
	}
	if st.RegisteredAt.IsZero() {
		st.RegisteredAt = time.Now()
	}

	s.mu.Lock()
	s.stores[st.ID] = st
	s.mu.Unlock()

	if err := s.adapter.UpsertStore(ctx, st); err != nil {
		s.logger.Warn("durable store write failed, cache-only",
			zap.Int("store_id", st.ID), zap.Error(err))
	}
	s.logger.Info("store registered", zap.Int("store_id", st.ID), zap.String("name", st.Name))
	return st, nil
}

// ListStores returns registered stores sorted by id.
func (s *Service) ListStores() []model.Store {
	s.mu.RLock()
	out := make([]model.Store, 0, len(s.stores))
	for _, st := range s.stores {
		out = append(out, st)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SalesByStore returns a point-in-time copy of every ledger. Reports read
// through this so they never observe a partially merged push.
func (s *Service) SalesByStore() map[int][]model.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int][]model.Sale, len(s.ledger))
	for storeID, rows := range s.ledger {
		cp := make([]model.Sale, len(rows))
		copy(cp, rows)
		out[storeID] = cp
	}
	return out
}

// Stores returns a copy of the store registry keyed by id.
func (s *Service) Stores() map[int]model.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]model.Store, len(s.stores))
	for id, st := range s.stores {
		out[id] = st
	}
	return out
}
