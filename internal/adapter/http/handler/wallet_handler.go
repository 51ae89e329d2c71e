package handler

import (
	"giftcard-storefront/internal/adapter/http/dto"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"
	"giftcard-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler lists and reveals the shopper's codes.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// ListEntries handles GET /api/v1/wallet.
func (h *WalletHandler) ListEntries(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	entries, err := h.walletSvc.List(c.Request.Context(), shopperID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToWalletEntryResponses(entries))
}

// Reveal handles POST /api/v1/wallet/:id/reveal.
func (h *WalletHandler) Reveal(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet entry id"))
		return
	}

	result, err := h.walletSvc.Reveal(c.Request.Context(), shopperID, entryID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.RevealResponse{
		WalletEntryResponse: dto.ToWalletEntryResponse(result.Entry),
		FullCode:            result.FullCode,
	})
}

// VerifyChain handles GET /api/v1/wallet/verify.
func (h *WalletHandler) VerifyChain(c *gin.Context) {
	shopperID, ok := currentShopper(c)
	if !ok {
		return
	}

	valid, err := h.walletSvc.VerifyChain(c.Request.Context(), shopperID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ChainStatusResponse{Valid: valid})
}
