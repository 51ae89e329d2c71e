package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus represents the lifecycle state of a checkout attempt.
type AttemptStatus string

const (
	AttemptStatusPending   AttemptStatus = "PENDING"
	AttemptStatusSucceeded AttemptStatus = "SUCCEEDED"
	AttemptStatusCancelled AttemptStatus = "CANCELLED"
	AttemptStatusFailed    AttemptStatus = "FAILED"
)

// ProviderStatusSuccessful is the only provider status that triggers attribution.
const ProviderStatusSuccessful = "successful"

// CheckoutAttempt is one invocation of the external checkout widget.
type CheckoutAttempt struct {
	TxRef      string        `json:"tx_ref"`
	ShopperID  uuid.UUID     `json:"shopper_id"`
	Amount     int64         `json:"amount"`
	Currency   string        `json:"currency"`
	Status     AttemptStatus `json:"status"`
	ProviderTx string        `json:"provider_tx,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

// IsTerminal returns true if the attempt is in a final state.
func (a *CheckoutAttempt) IsTerminal() bool {
	return a.Status == AttemptStatusSucceeded ||
		a.Status == AttemptStatusCancelled ||
		a.Status == AttemptStatusFailed
}

// Customer holds the contact fields passed to the checkout widget.
type Customer struct {
	Email string `json:"email"`
	Phone string `json:"phone_number"`
	Name  string `json:"name"`
}

// DefaultCustomer is used for any contact field the shopper left empty.
var DefaultCustomer = Customer{
	Email: "client@example.com",
	Phone: "0700000000",
	Name:  "Client Démo",
}

// WithDefaults fills empty fields from DefaultCustomer.
func (c Customer) WithDefaults() Customer {
	if c.Email == "" {
		c.Email = DefaultCustomer.Email
	}
	if c.Phone == "" {
		c.Phone = DefaultCustomer.Phone
	}
	if c.Name == "" {
		c.Name = DefaultCustomer.Name
	}
	return c
}

// Customizations is the widget branding.
type Customizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DefaultCustomizations brands the demo checkout.
var DefaultCustomizations = Customizations{
	Title:       "Gift Cards",
	Description: "Achat de cartes (démo)",
}

// CheckoutPayload is what the external checkout capability is opened with.
type CheckoutPayload struct {
	PublicKey      string         `json:"public_key"`
	Amount         int64          `json:"amount"`
	Currency       string         `json:"currency"`
	TxRef          string         `json:"tx_ref"`
	Customer       Customer       `json:"customer"`
	Customizations Customizations `json:"customizations"`
}

// CheckoutSession tells the client how to display the opened checkout.
type CheckoutSession struct {
	Provider  string          `json:"provider"`
	ScriptURL string          `json:"script_url,omitempty"`
	Payload   CheckoutPayload `json:"payload"`
}

// ProviderResponse is the object handed to the success slot by the provider.
type ProviderResponse struct {
	Status        string `json:"status"`
	TxRef         string `json:"tx_ref"`
	TransactionID string `json:"transaction_id,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// Succeeded reports whether the provider confirmed the payment.
func (r ProviderResponse) Succeeded() bool {
	return r.Status == ProviderStatusSuccessful
}

// CheckoutResult is the outcome returned to the caller of a callback.
type CheckoutResult struct {
	Attempt CheckoutAttempt `json:"attempt"`
	Entries []WalletEntry   `json:"entries,omitempty"`
}

// Readiness is what the client shows on the pay button.
type Readiness struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}
