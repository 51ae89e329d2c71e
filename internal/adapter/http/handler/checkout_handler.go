package handler

import (
	"errors"
	"io"

	"giftcard-storefront/internal/adapter/http/dto"
	"giftcard-storefront/internal/adapter/http/middleware"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"
	"giftcard-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckoutHandler drives the external checkout.
type CheckoutHandler struct {
	paymentSvc ports.PaymentAdapter
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(paymentSvc ports.PaymentAdapter) *CheckoutHandler {
	return &CheckoutHandler{paymentSvc: paymentSvc}
}

// Readiness handles GET /api/v1/checkout/readiness.
func (h *CheckoutHandler) Readiness(c *gin.Context) {
	response.OK(c, h.paymentSvc.Readiness(c.Request.Context()))
}

// Begin handles POST /api/v1/checkout. The customer body is optional.
func (h *CheckoutHandler) Begin(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	var req dto.BeginCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	session, err := h.paymentSvc.Begin(c.Request.Context(), shopperID, req.Customer())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, session)
}

// GetAttempt handles GET /api/v1/checkout/:tx_ref.
func (h *CheckoutHandler) GetAttempt(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	attempt, err := h.paymentSvc.GetAttempt(c.Request.Context(), shopperID, c.Param("tx_ref"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, attempt)
}

// Cancel handles POST /api/v1/checkout/:tx_ref/cancel, the widget's
// close slot.
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	result, err := h.paymentSvc.Cancel(c.Request.Context(), shopperID, c.Param("tx_ref"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToCheckoutResultResponse(result))
}

// Callback handles POST /api/v1/checkout/callback, the widget's
// success slot.
func (h *CheckoutHandler) Callback(c *gin.Context) {
	var req dto.ProviderCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	resp, err := req.ProviderResponse()
	if err != nil {
		response.Error(c, apperror.Validation("invalid amount"))
		return
	}
	c.Set(middleware.CtxTxRef, resp.TxRef)

	result, err := h.paymentSvc.HandleProviderResponse(c.Request.Context(), resp)
	if err != nil {
		response.Error(c, err)
		return
	}

	if id := result.Attempt.ShopperID; id != uuid.Nil {
		c.Set(middleware.CtxShopperID, id)
	}
	response.OK(c, dto.ToCheckoutResultResponse(result))
}
