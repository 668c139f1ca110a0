package persist

import (
	"context"
	"sync"

	"possync/internal/model"
)

// Memory is the process-local adapter. It never fails, which also makes it
// the degradation target when a durable backend is unreachable.
type Memory struct {
	mu         sync.RWMutex
	sales      map[int]map[string]model.Sale
	stores     map[int]model.Store
	products   map[int]map[string]model.Product
	categories map[int64]model.Category
	promotions map[int64]model.Promotion
}

// NewMemory instantiates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{
		sales:      map[int]map[string]model.Sale{},
		stores:     map[int]model.Store{},
		products:   map[int]map[string]model.Product{},
		categories: map[int64]model.Category{},
		promotions: map[int64]model.Promotion{},
	}
}

func (m *Memory) LoadSales(context.Context) (map[int][]model.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int][]model.Sale, len(m.sales))
	for storeID, byNumber := range m.sales {
		rows := make([]model.Sale, 0, len(byNumber))
		for _, s := range byNumber {
			rows = append(rows, s)
		}
		out[storeID] = rows
	}
	return out, nil
}

func (m *Memory) UpsertSales(_ context.Context, storeID int, rows []model.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byNumber, ok := m.sales[storeID]
	if !ok {
		byNumber = map[string]model.Sale{}
		m.sales[storeID] = byNumber
	}
	for _, s := range rows {
		byNumber[s.SaleNumber] = s
	}
	return nil
}

func (m *Memory) LoadStores(context.Context) ([]model.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Store, 0, len(m.stores))
	for _, st := range m.stores {
		out = append(out, st)
	}
	return out, nil
}

func (m *Memory) UpsertStore(_ context.Context, st model.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[st.ID] = st
	return nil
}

func (m *Memory) LoadProducts(context.Context) (map[int][]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int][]model.Product, len(m.products))
	for storeID, byKey := range m.products {
		rows := make([]model.Product, 0, len(byKey))
		for _, p := range byKey {
			rows = append(rows, p)
		}
		out[storeID] = rows
	}
	return out, nil
}

func (m *Memory) UpsertProducts(_ context.Context, storeID int, rows []model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey, ok := m.products[storeID]
	if !ok {
		byKey = map[string]model.Product{}
		m.products[storeID] = byKey
	}
	for _, p := range rows {
		if key := p.IdentityKey(); key != "" {
			byKey[key] = p
		}
	}
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, byKey := range m.products {
		delete(byKey, key)
	}
	return nil
}

func (m *Memory) LoadCategories(context.Context) ([]model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) UpsertCategories(_ context.Context, rows []model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range rows {
		m.categories[c.ID] = c
	}
	return nil
}

func (m *Memory) DeleteCategory(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
	return nil
}

func (m *Memory) LoadPromotions(context.Context) ([]model.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Promotion, 0, len(m.promotions))
	for _, p := range m.promotions {
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) UpsertPromotion(_ context.Context, p model.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promotions[p.ID] = p
	return nil
}

func (m *Memory) DeletePromotion(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.promotions, id)
	return nil
}

func (m *Memory) Close() error { return nil }
