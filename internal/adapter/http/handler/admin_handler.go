package handler

import (
	"giftcard-storefront/internal/adapter/http/dto"
	"giftcard-storefront/internal/adapter/http/middleware"
	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"
	"giftcard-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes vault operations to the operator.
type AdminHandler struct {
	vaultSvc ports.VaultService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(vaultSvc ports.VaultService) *AdminHandler {
	return &AdminHandler{vaultSvc: vaultSvc}
}

// ImportBatch handles POST /api/v1/admin/vault/import.
// Codes are one per line and are stored as given.
func (h *AdminHandler) ImportBatch(c *gin.Context) {
	var req dto.ImportBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	c.Set(middleware.CtxPoolKey, domain.PoolKey(req.ProductID, req.Amount))

	n, err := h.vaultSvc.ImportBatch(c.Request.Context(), req.ProductID, req.Amount, req.Codes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ImportBatchResponse{
		ProductID: req.ProductID,
		Amount:    req.Amount,
		Imported:  n,
	})
}

// Stock handles GET /api/v1/admin/vault/stock.
func (h *AdminHandler) Stock(c *gin.Context) {
	stock, err := h.vaultSvc.Stock(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, stock)
}
