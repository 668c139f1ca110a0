// Package model holds the entities shared by the sync, catalog, report and
// admin services.
package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Sale is one POS transaction as pushed by a store. SaleNumber is unique
// within a store and is the idempotency key: a re-pushed sale is dropped,
// never merged. Items carries the line-item payload untouched.
type Sale struct {
	SaleNumber string          `json:"sale_number"`
	StoreID    int             `json:"store_id,omitempty"`
	Total      float64         `json:"total"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	Timestamp  *time.Time      `json:"timestamp,omitempty"`
	Items      json.RawMessage `json:"items,omitempty"`
}

// EventTime resolves the sale's event time: created_at wins over timestamp,
// and a sale carrying neither sorts to the Unix epoch.
func (s Sale) EventTime() time.Time {
	if s.CreatedAt != nil {
		return *s.CreatedAt
	}
	if s.Timestamp != nil {
		return *s.Timestamp
	}
	return time.Unix(0, 0)
}

// Store is a registered POS terminal. Stores may push sales before
// registering; those are synthesized with a placeholder name in reports.
type Store struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Product is one catalog entry. Identity is resolved from ID, then Barcode,
// then SKU (first non-empty wins).
type Product struct {
	ID            int64      `json:"id,omitempty"`
	Barcode       string     `json:"barcode,omitempty"`
	SKU           string     `json:"sku,omitempty"`
	Name          string     `json:"name"`
	CategoryID    int64      `json:"category_id,omitempty"`
	Department    string     `json:"department,omitempty"`
	Price         float64    `json:"price"`
	Cost          float64    `json:"cost,omitempty"`
	Stock         float64    `json:"stock,omitempty"`
	Unit          string     `json:"unit,omitempty"`
	IsActive      bool       `json:"is_active"`
	RequiresScale bool       `json:"requires_scale,omitempty"`
	Barcodes      []string   `json:"barcodes,omitempty"`
	StoreID       int        `json:"store_id,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// IdentityKey resolves the product's identity with a fixed priority: id,
// then barcode, then sku. Empty when the product carries none of the three.
func (p Product) IdentityKey() string {
	if p.ID != 0 {
		return "id:" + strconv.FormatInt(p.ID, 10)
	}
	if p.Barcode != "" {
		return "barcode:" + p.Barcode
	}
	if p.SKU != "" {
		return "sku:" + p.SKU
	}
	return ""
}

// Category is flat, no hierarchy.
type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Promotion types.
const (
	PromoFixedPrice = "fixed_price"
	PromoMultiBuy   = "multi_buy"
	PromoBuyGet     = "buy_get"
	PromoPercentOff = "percent_off"
	PromoMixMatch   = "mix_match"
)

// Promotion references a single product by barcode or id, except mix_match
// which carries a set of eligible product barcodes.
type Promotion struct {
	ID        int64      `json:"id"`
	PromoType string     `json:"promo_type"`
	Barcode   string     `json:"barcode,omitempty"`
	ProductID int64      `json:"product_id,omitempty"`
	Products  []string   `json:"products,omitempty"`
	Value     float64    `json:"value,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ValidPromoType reports whether t is one of the known promotion types.
func ValidPromoType(t string) bool {
	switch t {
	case PromoFixedPrice, PromoMultiBuy, PromoBuyGet, PromoPercentOff, PromoMixMatch:
		return true
	}
	return false
}
