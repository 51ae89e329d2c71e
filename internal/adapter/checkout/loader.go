package checkout

import (
	"context"
	"fmt"
	"sync"

	"giftcard-storefront/internal/core/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Probed is a capability that must be verified reachable before use.
type Probed interface {
	ports.CheckoutCapability
	Probe(ctx context.Context) error
}

// Loader loads a capability at most once per process. Concurrent loads
// share one probe. A failed probe is not remembered, so the next Load
// tries again.
type Loader struct {
	capability Probed
	log        zerolog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	loaded bool
}

// NewLoader creates a loader for capability.
func NewLoader(capability Probed, log zerolog.Logger) *Loader {
	return &Loader{capability: capability, log: log}
}

// Load returns the capability once its probe has succeeded.
func (l *Loader) Load(ctx context.Context) (ports.CheckoutCapability, error) {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if loaded {
		return l.capability, nil
	}

	// The load is shared, so it must not die with whichever request
	// started it. Each caller still stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan("load", func() (interface{}, error) {
		if err := l.capability.Probe(shared); err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.loaded = true
		l.mu.Unlock()
		l.log.Info().Str("provider", l.capability.Name()).Msg("checkout capability loaded")
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			l.log.Warn().Err(res.Err).Str("provider", l.capability.Name()).Msg("checkout capability failed to load")
			return nil, fmt.Errorf("loading %s: %w", l.capability.Name(), res.Err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return l.capability, nil
}
