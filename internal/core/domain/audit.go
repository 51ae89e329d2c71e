package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionSessionIssued AuditAction = "SESSION_ISSUED"
	AuditActionCheckoutBegin AuditAction = "CHECKOUT_BEGIN"
	AuditActionCheckoutClose AuditAction = "CHECKOUT_CLOSE"
	AuditActionAttribution   AuditAction = "ATTRIBUTION"
	AuditActionReveal        AuditAction = "CODE_REVEAL"
	AuditActionVaultImport   AuditAction = "VAULT_IMPORT"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ShopperID    *uuid.UUID  `json:"shopper_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
