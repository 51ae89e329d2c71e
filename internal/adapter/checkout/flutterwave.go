package checkout

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
)

// ProviderFlutterwave names the Flutterwave inline checkout.
const ProviderFlutterwave = "flutterwave"

// Flutterwave is the v3 inline checkout. The widget itself runs in the
// browser; Open hands back the payload for FlutterwaveCheckout and keeps
// the attempt's callbacks until the provider reports back.
type Flutterwave struct {
	client    HTTPClient
	scriptURL string
	registry  ports.CallbackRegistry
}

// NewFlutterwave creates the Flutterwave capability.
func NewFlutterwave(client HTTPClient, scriptURL string, registry ports.CallbackRegistry) *Flutterwave {
	return &Flutterwave{client: client, scriptURL: scriptURL, registry: registry}
}

// Name returns the provider name.
func (f *Flutterwave) Name() string { return ProviderFlutterwave }

// Probe checks that the inline script can be fetched.
func (f *Flutterwave) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.scriptURL, nil)
	if err != nil {
		return fmt.Errorf("creating script request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", f.scriptURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s -> %d", f.scriptURL, resp.StatusCode)
	}
	return nil
}

// Open registers callbacks under the payload's tx_ref.
func (f *Flutterwave) Open(_ context.Context, payload domain.CheckoutPayload, callbacks ports.CheckoutCallbacks) (*domain.CheckoutSession, error) {
	if payload.TxRef == "" {
		return nil, fmt.Errorf("payload has no tx_ref")
	}
	f.registry.Register(payload.TxRef, callbacks)
	return &domain.CheckoutSession{
		Provider:  ProviderFlutterwave,
		ScriptURL: f.scriptURL,
		Payload:   payload,
	}, nil
}
