package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"possync/internal/admin"
	"possync/internal/model"
)

// adminHandler serves the owner's CRUD endpoints behind the shared secret.
type adminHandler struct {
	admin  *admin.Service
	logger *zap.Logger
}

func newAdminHandler(svc *admin.Service, logger *zap.Logger) *adminHandler {
	return &adminHandler{admin: svc, logger: logger}
}

// writeAdminError maps service sentinels to the stable JSON error shape.
func (h *adminHandler) writeAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, admin.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, admin.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, admin.ErrBackend):
		h.logger.Error("admin backend write failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "durable write failed"})
	default:
		h.logger.Error("admin operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *adminHandler) handleSaveProduct(c *gin.Context) {
	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	saved, err := h.admin.SaveProduct(c.Request.Context(), p)
	if err != nil {
		h.writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": saved})
}

func (h *adminHandler) handleDeleteProduct(c *gin.Context) {
	if err := h.admin.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *adminHandler) handleSaveCategory(c *gin.Context) {
	var cat model.Category
	if err := c.ShouldBindJSON(&cat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	saved, err := h.admin.SaveCategory(c.Request.Context(), cat)
	if err != nil {
		h.writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": saved})
}

func (h *adminHandler) handleDeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	if err := h.admin.DeleteCategory(c.Request.Context(), id); err != nil {
		h.writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *adminHandler) handleSavePromotion(c *gin.Context) {
	var p model.Promotion
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	saved, err := h.admin.SavePromotion(c.Request.Context(), p)
	if err != nil {
		h.writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"promotion": saved})
}

func (h *adminHandler) handleDeletePromotion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion id"})
		return
	}
	if err := h.admin.DeletePromotion(c.Request.Context(), id); err != nil {
		h.writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
