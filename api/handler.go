package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"possync/internal/catalog"
	"possync/internal/model"
	"possync/internal/syncer"
)

// syncHandler serves the open endpoints stores use to replicate sales and
// catalog data.
type syncHandler struct {
	sync    *syncer.Service
	catalog *catalog.Service
	logger  *zap.Logger
}

func newSyncHandler(sync *syncer.Service, cat *catalog.Service, logger *zap.Logger) *syncHandler {
	return &syncHandler{sync: sync, catalog: cat, logger: logger}
}

func (h *syncHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *syncHandler) handlePush(c *gin.Context) {
	var req struct {
		StoreID int          `json:"storeId"`
		Sales   []model.Sale `json:"sales"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind push request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	res, err := h.sync.Push(c.Request.Context(), req.StoreID, req.Sales)
	if err != nil {
		if errors.Is(err, syncer.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("push failed", zap.Int("store_id", req.StoreID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to push sales"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted":   res.Accepted,
		"totalSales": res.TotalForStore,
		"persisted":  res.Persisted,
	})
}

func (h *syncHandler) handlePull(c *gin.Context) {
	storeID, ok := optionalInt(c, "storeId")
	if !ok {
		return
	}
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since value"})
			return
		}
		since = &t
	}

	sales := h.sync.Pull(storeID, since)
	c.JSON(http.StatusOK, gin.H{"sales": sales, "count": len(sales)})
}

func (h *syncHandler) handleRegisterStore(c *gin.Context) {
	var st model.Store
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	registered, err := h.sync.RegisterStore(c.Request.Context(), st)
	if err != nil {
		if errors.Is(err, syncer.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("store registration failed", zap.Int("store_id", st.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register store"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"store": registered})
}

func (h *syncHandler) handleListStores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stores": h.sync.ListStores()})
}

func (h *syncHandler) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Stats())
}

func (h *syncHandler) handlePushCatalog(c *gin.Context) {
	var req struct {
		StoreID     int              `json:"storeId"`
		Products    []model.Product  `json:"products"`
		Categories  []model.Category `json:"categories"`
		IsLastBatch bool             `json:"isLastBatch"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind catalog push", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	res, err := h.catalog.PushCatalog(c.Request.Context(), req.StoreID, req.Products, req.Categories, req.IsLastBatch)
	if err != nil {
		if errors.Is(err, catalog.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("catalog push failed", zap.Int("store_id", req.StoreID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to push catalog"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalProducts": res.TotalProducts,
		"isLastBatch":   res.IsLastBatch,
	})
}

func (h *syncHandler) handlePullCatalog(c *gin.Context) {
	storeID, ok := optionalInt(c, "storeId")
	if !ok {
		return
	}
	products, categories := h.catalog.PullCatalog(storeID)
	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"categories": categories,
		"count":      len(products),
	})
}

// optionalInt reads an optional integer query parameter, writing a 400 and
// returning ok=false when it is present but malformed.
func optionalInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " value"})
		return 0, false
	}
	return n, true
}

// parseTimeParam accepts RFC3339 or a bare YYYY-MM-DD date.
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
