package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"possync/internal/model"
)

// SQLite is the durable adapter. Each collection lives in its own table,
// keyed by its natural identifier; the flexible record bodies are stored as
// JSON payload columns so arbitrary line items survive a round trip.
type SQLite struct {
	db *sqlx.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sales (
        store_id INTEGER NOT NULL,
        sale_number TEXT NOT NULL,
        total REAL NOT NULL,
        payload TEXT NOT NULL,
        PRIMARY KEY (store_id, sale_number)
    );`,
	`CREATE TABLE IF NOT EXISTS stores (
        id INTEGER PRIMARY KEY,
        name TEXT NOT NULL,
        address TEXT,
        phone TEXT,
        registered_at DATETIME
    );`,
	`CREATE TABLE IF NOT EXISTS products (
        store_id INTEGER NOT NULL,
        identity_key TEXT NOT NULL,
        payload TEXT NOT NULL,
        PRIMARY KEY (store_id, identity_key)
    );`,
	`CREATE TABLE IF NOT EXISTS categories (
        id INTEGER PRIMARY KEY,
        payload TEXT NOT NULL
    );`,
	`CREATE TABLE IF NOT EXISTS promotions (
        id INTEGER PRIMARY KEY,
        payload TEXT NOT NULL
    );`,
}

// OpenSQLite connects to the database at dsn and creates the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) LoadSales(ctx context.Context) (map[int][]model.Sale, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT store_id, payload FROM sales`)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	defer rows.Close()

	out := map[int][]model.Sale{}
	for rows.Next() {
		var storeID int
		var payload []byte
		if err := rows.Scan(&storeID, &payload); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		var sale model.Sale
		if err := json.Unmarshal(payload, &sale); err != nil {
			return nil, fmt.Errorf("decode sale: %w", err)
		}
		sale.StoreID = storeID
		out[storeID] = append(out[storeID], sale)
	}
	return out, rows.Err()
}

func (s *SQLite) UpsertSales(ctx context.Context, storeID int, rows []model.Sale) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, sale := range rows {
		payload, err := json.Marshal(sale)
		if err != nil {
			return fmt.Errorf("encode sale %s: %w", sale.SaleNumber, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sales (store_id, sale_number, total, payload) VALUES (?, ?, ?, ?)
             ON CONFLICT (store_id, sale_number) DO UPDATE SET total = excluded.total, payload = excluded.payload`,
			storeID, sale.SaleNumber, sale.Total, payload)
		if err != nil {
			return fmt.Errorf("upsert sale %s: %w", sale.SaleNumber, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) LoadStores(ctx context.Context) ([]model.Store, error) {
	var out []model.Store
	rows, err := s.db.QueryxContext(ctx, `SELECT id, name, address, phone, registered_at FROM stores`)
	if err != nil {
		return nil, fmt.Errorf("load stores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st model.Store
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.Phone, &st.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLite) UpsertStore(ctx context.Context, st model.Store) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stores (id, name, address, phone, registered_at) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET name = excluded.name, address = excluded.address,
         phone = excluded.phone, registered_at = excluded.registered_at`,
		st.ID, st.Name, st.Address, st.Phone, st.RegisteredAt)
	if err != nil {
		return fmt.Errorf("upsert store %d: %w", st.ID, err)
	}
	return nil
}

func (s *SQLite) LoadProducts(ctx context.Context) (map[int][]model.Product, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT store_id, payload FROM products`)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	out := map[int][]model.Product{}
	for rows.Next() {
		var storeID int
		var payload []byte
		if err := rows.Scan(&storeID, &payload); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		var p model.Product
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		p.StoreID = storeID
		out[storeID] = append(out[storeID], p)
	}
	return out, rows.Err()
}

func (s *SQLite) UpsertProducts(ctx context.Context, storeID int, rows []model.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range rows {
		key := p.IdentityKey()
		if key == "" {
			continue
		}
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO products (store_id, identity_key, payload) VALUES (?, ?, ?)
             ON CONFLICT (store_id, identity_key) DO UPDATE SET payload = excluded.payload`,
			storeID, key, payload)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) DeleteProduct(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE identity_key = ?`, key); err != nil {
		return fmt.Errorf("delete product %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) LoadCategories(ctx context.Context) ([]model.Category, error) {
	return loadPayloads[model.Category](ctx, s.db, "categories")
}

func (s *SQLite) UpsertCategories(ctx context.Context, rows []model.Category) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, c := range rows {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode category %d: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO categories (id, payload) VALUES (?, ?)
             ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`,
			c.ID, payload)
		if err != nil {
			return fmt.Errorf("upsert category %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) LoadPromotions(ctx context.Context) ([]model.Promotion, error) {
	return loadPayloads[model.Promotion](ctx, s.db, "promotions")
}

func (s *SQLite) UpsertPromotion(ctx context.Context, p model.Promotion) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode promotion %d: %w", p.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO promotions (id, payload) VALUES (?, ?)
         ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`,
		p.ID, payload)
	if err != nil {
		return fmt.Errorf("upsert promotion %d: %w", p.ID, err)
	}
	return nil
}

func (s *SQLite) DeletePromotion(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM promotions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete promotion %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func loadPayloads[T any](ctx context.Context, db *sqlx.DB, table string) ([]T, error) {
	rows, err := db.QueryxContext(ctx, `SELECT payload FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
