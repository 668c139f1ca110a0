package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"possync/internal/admin"
	"possync/internal/catalog"
	"possync/internal/report"
	"possync/internal/syncer"
)

// Deps bundles the wired services the routes need.
type Deps struct {
	Sync    *syncer.Service
	Catalog *catalog.Service
	Reports *report.Service
	Admin   *admin.Service
	Secret  string
	Logger  *zap.Logger
}

// InitRoutes registers every endpoint on the given Gin engine: the open
// /sync surface stores talk to, and the secret-protected /owner and /admin
// surfaces.
func InitRoutes(e *gin.Engine, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.Use(requestID())

	syncHandler := newSyncHandler(deps.Sync, deps.Catalog, logger)
	ownerHandler := newOwnerHandler(deps.Reports, logger)
	adminHandler := newAdminHandler(deps.Admin, logger)

	sync := e.Group("/sync")
	{
		sync.GET("/health", syncHandler.handleHealth)
		sync.POST("/push", syncHandler.handlePush)
		sync.GET("/pull", syncHandler.handlePull)
		sync.POST("/stores", syncHandler.handleRegisterStore)
		sync.GET("/stores", syncHandler.handleListStores)
		sync.GET("/stats", syncHandler.handleStats)
		sync.POST("/products/push", syncHandler.handlePushCatalog)
		sync.GET("/products/pull", syncHandler.handlePullCatalog)
	}

	owner := e.Group("/owner", requireSecret(deps.Secret))
	{
		owner.GET("/report", ownerHandler.handleReport)
		owner.GET("/stores", ownerHandler.handleStores)
		owner.GET("/store/:id/sales", ownerHandler.handleStoreSales)
		owner.GET("/compare", ownerHandler.handleCompare)
	}

	adm := e.Group("/admin", requireSecret(deps.Secret))
	{
		adm.POST("/products", adminHandler.handleSaveProduct)
		adm.DELETE("/products/:id", adminHandler.handleDeleteProduct)
		adm.POST("/categories", adminHandler.handleSaveCategory)
		adm.DELETE("/categories/:id", adminHandler.handleDeleteCategory)
		adm.POST("/promotions", adminHandler.handleSavePromotion)
		adm.DELETE("/promotions/:id", adminHandler.handleDeletePromotion)
	}
}

// requestID tags every request with a UUID, echoed in X-Request-Id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// requireSecret rejects the request before any state is touched unless the
// shared secret matches byte for byte.
func requireSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader("X-Owner-Secret")
		if supplied == "" {
			supplied = c.Query("secret")
		}
		if supplied != secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
			return
		}
		c.Next()
	}
}
