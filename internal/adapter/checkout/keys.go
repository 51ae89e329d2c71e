package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrNoKeyConfigured is returned when no public key source is available.
var ErrNoKeyConfigured = errors.New("No key configured")

// StaticKeyProvider serves a key fixed at build or deploy time.
type StaticKeyProvider struct {
	key string
}

// NewStaticKeyProvider creates a key provider for a configured key.
func NewStaticKeyProvider(key string) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// PublicKey returns the configured key.
func (p *StaticKeyProvider) PublicKey(_ context.Context) (string, error) {
	if p.key == "" {
		return "", ErrNoKeyConfigured
	}
	return p.key, nil
}

// relayResponse is the body served by the public-key relay.
type relayResponse struct {
	PublicKey string `json:"publicKey"`
	Error     string `json:"error,omitempty"`
}

// RelayKeyProvider fetches the key from a relay endpoint. A successful
// fetch is kept for the life of the process; failures are retried on
// the next call. Concurrent fetches share one request.
type RelayKeyProvider struct {
	client   HTTPClient
	endpoint string
	log      zerolog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	key   string
}

// NewRelayKeyProvider creates a key provider backed by endpoint.
func NewRelayKeyProvider(client HTTPClient, endpoint string, log zerolog.Logger) *RelayKeyProvider {
	return &RelayKeyProvider{
		client:   client,
		endpoint: endpoint,
		log:      log,
	}
}

// PublicKey returns the cached key or fetches it.
func (p *RelayKeyProvider) PublicKey(ctx context.Context) (string, error) {
	p.mu.RLock()
	key := p.key
	p.mu.RUnlock()
	if key != "" {
		return key, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan("key", func() (interface{}, error) {
		key, err := p.fetch(shared)
		if err != nil {
			return "", err
		}
		p.mu.Lock()
		p.key = key
		p.mu.Unlock()
		return key, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			p.log.Warn().Err(res.Err).Str("endpoint", p.endpoint).Msg("public key fetch failed")
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *RelayKeyProvider) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating key request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", p.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("GET %s -> %d", p.endpoint, resp.StatusCode)
	}

	var body relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding key response: %w", err)
	}
	if body.PublicKey == "" {
		return "", errors.New("publicKey missing from relay response")
	}
	return body.PublicKey, nil
}
