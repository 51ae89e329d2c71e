package handler

import (
	"giftcard-storefront/internal/adapter/http/dto"
	"giftcard-storefront/internal/adapter/http/middleware"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"
	"giftcard-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler issues guest shopper sessions.
type SessionHandler struct {
	tokenSvc ports.TokenService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(tokenSvc ports.TokenService) *SessionHandler {
	return &SessionHandler{tokenSvc: tokenSvc}
}

// Issue handles POST /api/v1/sessions.
func (h *SessionHandler) Issue(c *gin.Context) {
	shopperID := uuid.New()

	token, expiresAt, err := h.tokenSvc.Generate(shopperID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	c.Set(middleware.CtxShopperID, shopperID)
	response.Created(c, dto.SessionResponse{
		Token:     token,
		ShopperID: shopperID,
		ExpiresAt: expiresAt,
	})
}

// currentShopper reads the shopper set by JWTAuth, writing a 401 if absent.
func currentShopper(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.ShopperID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
	}
	return id, ok
}
