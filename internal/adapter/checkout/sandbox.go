package checkout

import (
	"context"
	"fmt"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
)

// ProviderSandbox names the in-process checkout.
const ProviderSandbox = "sandbox"

// Sandbox is a checkout with no external widget. The client reports the
// outcome through the callback endpoint itself.
type Sandbox struct {
	registry ports.CallbackRegistry
}

// NewSandbox creates the sandbox capability.
func NewSandbox(registry ports.CallbackRegistry) *Sandbox {
	return &Sandbox{registry: registry}
}

// Name returns the provider name.
func (s *Sandbox) Name() string { return ProviderSandbox }

// Probe always succeeds.
func (s *Sandbox) Probe(_ context.Context) error { return nil }

// Open registers callbacks under the payload's tx_ref.
func (s *Sandbox) Open(_ context.Context, payload domain.CheckoutPayload, callbacks ports.CheckoutCallbacks) (*domain.CheckoutSession, error) {
	if payload.TxRef == "" {
		return nil, fmt.Errorf("payload has no tx_ref")
	}
	s.registry.Register(payload.TxRef, callbacks)
	return &domain.CheckoutSession{Provider: ProviderSandbox, Payload: payload}, nil
}
