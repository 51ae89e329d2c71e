package handler

import (
	"giftcard-storefront/internal/adapter/http/dto"
	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"
	"giftcard-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// CartHandler handles the shopper's cart.
type CartHandler struct {
	cartSvc ports.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartSvc ports.CartService) *CartHandler {
	return &CartHandler{cartSvc: cartSvc}
}

// GetCart handles GET /api/v1/cart.
func (h *CartHandler) GetCart(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	cart, err := h.cartSvc.Get(c.Request.Context(), shopperID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToCartResponse(cart))
}

// AddLine handles POST /api/v1/cart/lines.
func (h *CartHandler) AddLine(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	var req dto.AddCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cart, err := h.cartSvc.AddLine(c.Request.Context(), shopperID, req.ProductID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToCartResponse(cart))
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	if err := h.cartSvc.Clear(c.Request.Context(), shopperID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToCartResponse(&domain.Cart{}))
}
