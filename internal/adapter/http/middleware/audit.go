package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// Routes are matched on their registered pattern, so path parameters end
// up in ResourceID.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}

		action, resourceType, resourceID := mapRouteToAction(c)
		if action == "" {
			return
		}

		var shopperID *uuid.UUID
		if id, ok := ShopperID(c); ok {
			shopperID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": response.RequestID(c),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			ShopperID:    shopperID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapRouteToAction(c *gin.Context) (domain.AuditAction, string, string) {
	switch c.FullPath() {
	case "/api/v1/sessions":
		return domain.AuditActionSessionIssued, "session", ""
	case "/api/v1/checkout":
		return domain.AuditActionCheckoutBegin, "checkout_attempt", ""
	case "/api/v1/checkout/:tx_ref/cancel":
		return domain.AuditActionCheckoutClose, "checkout_attempt", c.Param("tx_ref")
	case "/api/v1/checkout/callback":
		return domain.AuditActionAttribution, "checkout_attempt", c.GetString(CtxTxRef)
	case "/api/v1/wallet/:id/reveal":
		return domain.AuditActionReveal, "wallet_entry", c.Param("id")
	case "/api/v1/admin/vault/import":
		return domain.AuditActionVaultImport, "vault_pool", c.GetString(CtxPoolKey)
	}
	return "", "", ""
}
