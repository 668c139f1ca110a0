// Package persist is the durable-storage layer behind the in-memory ledgers.
// Two implementations exist: a map-backed Memory adapter and a SQLite one.
// Errors are returned plainly; the calling service decides at the call site
// whether to degrade to cache-only operation or fail the request.
package persist

import (
	"context"

	"possync/internal/model"
)

// Adapter exposes load/upsert/delete operations over the five persisted
// collections. Load* methods hydrate the warm cache at startup.
type Adapter interface {
	LoadSales(ctx context.Context) (map[int][]model.Sale, error)
	UpsertSales(ctx context.Context, storeID int, rows []model.Sale) error

	LoadStores(ctx context.Context) ([]model.Store, error)
	UpsertStore(ctx context.Context, st model.Store) error

	LoadProducts(ctx context.Context) (map[int][]model.Product, error)
	UpsertProducts(ctx context.Context, storeID int, rows []model.Product) error
	DeleteProduct(ctx context.Context, key string) error

	LoadCategories(ctx context.Context) ([]model.Category, error)
	UpsertCategories(ctx context.Context, rows []model.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	LoadPromotions(ctx context.Context) ([]model.Promotion, error)
	UpsertPromotion(ctx context.Context, p model.Promotion) error
	DeletePromotion(ctx context.Context, id int64) error

	Close() error
}
