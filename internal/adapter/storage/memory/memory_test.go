package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"giftcard-storefront/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore_GetMissing(t *testing.T) {
	s := NewDocumentStore()
	v, err := s.Get(context.Background(), "gc_demo_cart:nobody")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDocumentStore_SetCopiesValue(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	buf := []byte(`{"lines":[]}`)
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'X'

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"lines":[]}`, string(v))
}

func TestDocumentStore_SaveAll(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, s.SaveAll(ctx, map[string][]byte{
		"gc_demo_cart:a":   []byte(`{}`),
		"gc_demo_wallet:a": []byte(`{"entries":[]}`),
	}))

	v, _ := s.Get(ctx, "gc_demo_wallet:a")
	assert.Equal(t, `{"entries":[]}`, string(v))
	v, _ = s.Get(ctx, "gc_demo_cart:a")
	assert.Equal(t, `{}`, string(v))
}

func TestVaultRepo_FIFO(t *testing.T) {
	r := NewVaultRepo()
	ctx := context.Background()
	key := domain.PoolKey("psn-ci", 10000)

	require.NoError(t, r.Push(ctx, key, []string{"A", "B"}))
	require.NoError(t, r.Push(ctx, key, []string{"C"}))

	for _, want := range []string{"A", "B", "C"} {
		code, ok, err := r.Draw(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, code)
	}

	_, ok, err := r.Draw(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "pool should be depleted")
}

func TestVaultRepo_ReturnPrepends(t *testing.T) {
	r := NewVaultRepo()
	ctx := context.Background()
	key := domain.PoolKey("apple-ci", 25000)

	require.NoError(t, r.Push(ctx, key, []string{"A", "B", "C"}))
	a, _, _ := r.Draw(ctx, key)
	b, _, _ := r.Draw(ctx, key)

	require.NoError(t, r.Return(ctx, key, []string{a, b}))
	assert.Equal(t, []string{"A", "B", "C"}, r.Snapshot(key))
}

func TestVaultRepo_Stock(t *testing.T) {
	r := NewVaultRepo()
	ctx := context.Background()

	require.NoError(t, r.Push(ctx, domain.PoolKey("psn-ci", 10000), []string{"A"}))
	require.NoError(t, r.Push(ctx, domain.PoolKey("apple-ci", 10000), []string{"B", "C"}))

	stock, err := r.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.PoolStock{
		{ProductID: "apple-ci", Amount: 10000, Remaining: 2},
		{ProductID: "psn-ci", Amount: 10000, Remaining: 1},
	}, stock)
}

func TestVaultRepo_ConcurrentDrawNeverDoubleIssues(t *testing.T) {
	r := NewVaultRepo()
	ctx := context.Background()
	key := domain.PoolKey("gplay-ci", 15000)

	codes := make([]string, 200)
	for i := range codes {
		codes[i] = uuid.NewString()
	}
	require.NoError(t, r.Push(ctx, key, codes))

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				code, ok, err := r.Draw(ctx, key)
				if err != nil || !ok {
					return
				}
				mu.Lock()
				seen[code]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, len(codes))
	for code, n := range seen {
		assert.Equal(t, 1, n, "code %s issued more than once", code)
	}
}

func TestAttemptRepo_Lifecycle(t *testing.T) {
	r := NewAttemptRepo()
	ctx := context.Background()

	a := &domain.CheckoutAttempt{
		TxRef:     "demo-1-aabbccdd",
		ShopperID: uuid.New(),
		Amount:    10000,
		Currency:  "XOF",
		Status:    domain.AttemptStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, r.Create(ctx, a))
	assert.Error(t, r.Create(ctx, a), "duplicate tx_ref must be rejected")

	got, err := r.GetByTxRef(ctx, a.TxRef)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.AttemptStatusPending, got.Status)

	ok, err := r.Resolve(ctx, a.TxRef, domain.AttemptStatusSucceeded, "flw-1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Resolve(ctx, a.TxRef, domain.AttemptStatusCancelled, "", time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "terminal attempt must not change")

	got, _ = r.GetByTxRef(ctx, a.TxRef)
	assert.Equal(t, domain.AttemptStatusSucceeded, got.Status)
	assert.Equal(t, "flw-1", got.ProviderTx)
	assert.NotNil(t, got.ResolvedAt)

	missing, err := r.GetByTxRef(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
