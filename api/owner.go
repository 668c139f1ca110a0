package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"possync/internal/report"
)

// ownerHandler serves the consolidated analytics endpoints behind the shared
// secret.
type ownerHandler struct {
	reports *report.Service
	logger  *zap.Logger
}

func newOwnerHandler(reports *report.Service, logger *zap.Logger) *ownerHandler {
	return &ownerHandler{reports: reports, logger: logger}
}

// parseRange reads the optional startDate/endDate query parameters. A bare
// endDate covers its whole calendar day so the window stays inclusive.
func parseRange(c *gin.Context) (start, end *time.Time, ok bool) {
	if raw := c.Query("startDate"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate value"})
			return nil, nil, false
		}
		start = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate value"})
			return nil, nil, false
		}
		if !strings.Contains(raw, "T") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		end = &t
	}
	return start, end, true
}

func (h *ownerHandler) handleReport(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.reports.ConsolidatedReport(start, end))
}

func (h *ownerHandler) handleStores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stores": h.reports.StoreStatusList()})
}

func (h *ownerHandler) handleStoreSales(c *gin.Context) {
	storeID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid store id"})
		return
	}
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit value"})
			return
		}
	}

	detail := h.reports.Detail(storeID, start, end, limit)
	c.JSON(http.StatusOK, gin.H{
		"sales":        detail.Sales,
		"totalRevenue": detail.TotalRevenue,
		"count":        detail.Count,
	})
}

func (h *ownerHandler) handleCompare(c *gin.Context) {
	period := 7
	if raw := c.Query("period"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period value"})
			return
		}
		period = n
	}
	c.JSON(http.StatusOK, gin.H{"comparison": h.reports.Compare(period)})
}
