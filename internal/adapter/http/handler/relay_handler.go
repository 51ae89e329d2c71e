package handler

import (
	"net/http"

	"giftcard-storefront/internal/adapter/checkout"
	"giftcard-storefront/internal/adapter/http/dto"

	"github.com/gin-gonic/gin"
)

// PublicKey serves the provider public key to the browser as a raw JSON
// body, outside the response envelope.
func PublicKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		if key == "" {
			c.JSON(http.StatusInternalServerError, dto.RelayErrorResponse{Error: checkout.ErrNoKeyConfigured.Error()})
			return
		}
		c.JSON(http.StatusOK, dto.PublicKeyResponse{PublicKey: key})
	}
}
