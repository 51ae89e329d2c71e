package checkout

import (
	"sync"
	"time"

	"giftcard-storefront/internal/core/ports"
)

type registration struct {
	callbacks ports.CheckoutCallbacks
	at        time.Time
}

// Registry keeps the callbacks of open attempts in memory. Take removes
// the entry, so each slot fires at most once per process. Entries never
// taken are dropped after ttl.
type Registry struct {
	mu      sync.Mutex
	entries map[string]registration
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry creates an empty callback registry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]registration),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Register stores the callbacks of txRef.
func (r *Registry) Register(txRef string, callbacks ports.CheckoutCallbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for ref, e := range r.entries {
		if r.ttl > 0 && now.Sub(e.at) > r.ttl {
			delete(r.entries, ref)
		}
	}
	r.entries[txRef] = registration{callbacks: callbacks, at: now}
}

// Take removes and returns the callbacks of txRef.
func (r *Registry) Take(txRef string) (ports.CheckoutCallbacks, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[txRef]
	if !ok {
		return ports.CheckoutCallbacks{}, false
	}
	delete(r.entries, txRef)
	return e.callbacks, true
}

// Len returns the number of open registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
