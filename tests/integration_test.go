package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"possync/api"
	"possync/internal/admin"
	"possync/internal/catalog"
	"possync/internal/persist"
	"possync/internal/report"
	"possync/internal/syncer"
)

const testSecret = "owner-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	logger := zaptest.NewLogger(t)
	adapter := persist.NewMemory()
	syncService := syncer.NewService(adapter, logger)
	catalogService := catalog.NewService(adapter, logger, 0)
	reportService := report.NewService(syncService, time.UTC, logger)
	adminService := admin.NewService(catalogService, adapter, logger)

	api.InitRoutes(router, api.Deps{
		Sync:    syncService,
		Catalog: catalogService,
		Reports: reportService,
		Admin:   adminService,
		Secret:  testSecret,
		Logger:  logger,
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, secret string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Owner-Secret", secret)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSalesSyncFlow(t *testing.T) {
	router := newTestRouter(t)
	now := time.Now().UTC().Format(time.RFC3339)

	t.Run("POST_PushIsIdempotent", func(t *testing.T) {
		push := map[string]any{
			"storeId": 1,
			"sales":   []map[string]any{{"sale_number": "A1", "total": 10.0, "created_at": now}},
		}
		w := doJSON(t, router, http.MethodPost, "/sync/push", push, "")
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(1), body["accepted"])
		assert.Equal(t, float64(1), body["totalSales"])

		w = doJSON(t, router, http.MethodPost, "/sync/push", push, "")
		assert.Equal(t, http.StatusOK, w.Code)
		body = decode(t, w)
		assert.Equal(t, float64(0), body["accepted"], "retried batch must be a no-op")
		assert.Equal(t, float64(1), body["totalSales"])
	})

	t.Run("POST_PushValidation", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sync/push", map[string]any{"storeId": 1, "sales": []any{}}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w), "error")
	})

	t.Run("GET_PullExcludesSelf", func(t *testing.T) {
		push := map[string]any{
			"storeId": 2,
			"sales":   []map[string]any{{"sale_number": "B1", "total": 20.0, "created_at": now}},
		}
		w := doJSON(t, router, http.MethodPost, "/sync/push", push, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/sync/pull?storeId=1", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(1), body["count"], "store 1 only sees store 2's sale")

		w = doJSON(t, router, http.MethodGet, "/sync/pull", nil, "")
		body = decode(t, w)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("GET_Stats", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/sync/stats", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(2), body["totalStores"])
		assert.Equal(t, float64(2), body["totalSales"])
	})

	t.Run("Stores", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sync/stores",
			map[string]any{"id": 1, "name": "Central", "address": "Main St", "phone": "555"}, "")
		assert.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(t, router, http.MethodGet, "/sync/stores", nil, "")
		body := decode(t, w)
		assert.Len(t, body["stores"], 1)
	})
}

func TestCatalogSyncFlow(t *testing.T) {
	router := newTestRouter(t)

	push := map[string]any{
		"storeId": 1,
		"products": []map[string]any{
			{"barcode": "123", "name": "Milk", "price": 1.50, "is_active": true},
		},
		"categories":  []map[string]any{{"id": 1, "name": "Dairy"}},
		"isLastBatch": true,
	}
	w := doJSON(t, router, http.MethodPost, "/sync/products/push", push, "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["totalProducts"])
	assert.Equal(t, true, body["isLastBatch"])

	// Same barcode, new price: replaced, not duplicated.
	push["products"] = []map[string]any{{"barcode": "123", "name": "Milk", "price": 1.75, "is_active": true}}
	w = doJSON(t, router, http.MethodPost, "/sync/products/push", push, "")
	body = decode(t, w)
	assert.Equal(t, float64(1), body["totalProducts"])

	w = doJSON(t, router, http.MethodGet, "/sync/products/pull", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	products := body["products"].([]any)
	assert.Equal(t, 1.75, products[0].(map[string]any)["price"])
	assert.Len(t, body["categories"], 1)
}

func TestOwnerEndpointsRequireSecret(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/owner/report", "/owner/stores", "/owner/store/1/sales", "/owner/compare"} {
		w := doJSON(t, router, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "path %s must reject a missing secret", path)

		w = doJSON(t, router, http.MethodGet, path, nil, "wrong")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "path %s must reject a bad secret", path)
	}

	// The query-parameter form works too.
	w := doJSON(t, router, http.MethodGet, "/owner/stores?secret="+testSecret, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerReportFlow(t *testing.T) {
	router := newTestRouter(t)
	now := time.Now().UTC()

	for storeID, totals := range map[int][]float64{1: {10, 20}, 2: {99}} {
		sales := make([]map[string]any, 0, len(totals))
		for i, total := range totals {
			sales = append(sales, map[string]any{
				"sale_number": fmt.Sprintf("S%d-%d", storeID, i),
				"total":       total,
				"created_at":  now.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			})
		}
		w := doJSON(t, router, http.MethodPost, "/sync/push", map[string]any{"storeId": storeID, "sales": sales}, "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/owner/report", nil, testSecret)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	totals := body["totals"].(map[string]any)
	assert.Equal(t, 129.0, totals["totalRevenue"])
	assert.Equal(t, float64(3), totals["totalTransactions"])
	assert.Equal(t, 43.0, totals["avgTicket"])

	stores := body["stores"].([]any)
	require.Len(t, stores, 2)
	first := stores[0].(map[string]any)
	assert.Equal(t, float64(2), first["storeId"], "stores sorted by revenue descending")
	assert.Equal(t, "Store 2", first["name"], "unregistered store gets a placeholder name")

	w = doJSON(t, router, http.MethodGet, "/owner/store/1/sales?limit=1", nil, testSecret)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, 30.0, body["totalRevenue"])
	assert.Len(t, body["sales"], 1)

	w = doJSON(t, router, http.MethodGet, "/owner/compare?period=7", nil, testSecret)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	comparison := body["comparison"].([]any)
	require.Len(t, comparison, 2)
	series := comparison[0].(map[string]any)["series"].([]any)
	assert.Len(t, series, 7)
}

func TestAdminCrudFlow(t *testing.T) {
	router := newTestRouter(t)

	t.Run("ProductLifecycle", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/admin/products",
			map[string]any{"barcode": "555", "name": "Promo soda", "price": 2.5, "is_active": true}, testSecret)
		require.Equal(t, http.StatusCreated, w.Code)

		// The master catalog sees the write without any store push.
		w = doJSON(t, router, http.MethodGet, "/sync/products/pull", nil, "")
		body := decode(t, w)
		assert.Equal(t, float64(1), body["count"])

		w = doJSON(t, router, http.MethodDelete, "/admin/products/555", nil, testSecret)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodDelete, "/admin/products/555", nil, testSecret)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("CategoryLifecycle", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/admin/categories",
			map[string]any{"name": "Beverages"}, testSecret)
		require.Equal(t, http.StatusCreated, w.Code)
		created := decode(t, w)["category"].(map[string]any)
		id := int64(created["id"].(float64))
		assert.NotZero(t, id)

		w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", id), nil, testSecret)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("PromotionValidation", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/admin/promotions",
			map[string]any{"promo_type": "flash_sale", "barcode": "1"}, testSecret)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, router, http.MethodPost, "/admin/promotions",
			map[string]any{"promo_type": "percent_off", "barcode": "555", "value": 10, "is_active": true}, testSecret)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("MutationsRejectedWithoutSecret", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/admin/products",
			map[string]any{"barcode": "1", "name": "x"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
