package handler

import (
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the product list.
type CatalogHandler struct {
	catalog ports.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts handles GET /api/v1/products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	response.OK(c, h.catalog.List())
}
