package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"giftcard-storefront/internal/adapter/storage/memory"
	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walletFixture struct {
	svc     *WalletServiceImpl
	store   *memory.DocumentStore
	shopper uuid.UUID
	entries []domain.WalletEntry
}

func newWalletFixture(t *testing.T, codes ...string) *walletFixture {
	t.Helper()
	enc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	store := memory.NewDocumentStore()
	shopper := uuid.New()

	w := domain.Wallet{}
	for _, code := range codes {
		codeEnc, err := enc.Encrypt(code)
		require.NoError(t, err)
		w.Entries = append(w.Entries, domain.WalletEntry{
			ID:         uuid.New(),
			ProductID:  "psn-ci",
			Brand:      "PSN • CI",
			Amount:     10000,
			MaskedCode: domain.Mask(code),
			CodeEnc:    codeEnc,
			CreatedAt:  time.Now().UTC(),
		})
	}
	raw, err := json.Marshal(w)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), WalletKey(shopper), raw))

	return &walletFixture{
		svc:     NewWalletService(enc, store, NewKeyedMutex(), newTestLogger()),
		store:   store,
		shopper: shopper,
		entries: w.Entries,
	}
}

func TestWalletService_List(t *testing.T) {
	f := newWalletFixture(t, "PSN-9JQ4-8ZKD-1X2C", "PSN-2WE3-4RT5-6YU7")

	entries, err := f.svc.List(context.Background(), f.shopper)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "••••-••••-••••-1X2C", entries[0].MaskedCode)
	for _, e := range entries {
		assert.Empty(t, e.FullCode)
		assert.Nil(t, e.RevealedAt)
	}
}

func TestWalletService_List_Empty(t *testing.T) {
	f := newWalletFixture(t)

	entries, err := f.svc.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestWalletService_Reveal_Idempotent(t *testing.T) {
	f := newWalletFixture(t, "PSN-9JQ4-8ZKD-1X2C")
	ctx := context.Background()
	id := f.entries[0].ID

	first := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	f.svc.now = func() time.Time { return first }

	r1, err := f.svc.Reveal(ctx, f.shopper, id)
	require.NoError(t, err)
	assert.Equal(t, "PSN-9JQ4-8ZKD-1X2C", r1.FullCode)
	require.NotNil(t, r1.Entry.RevealedAt)
	assert.True(t, first.Equal(*r1.Entry.RevealedAt))
	assert.NotEmpty(t, r1.Entry.AuditHash)

	f.svc.now = func() time.Time { return first.Add(time.Hour) }

	r2, err := f.svc.Reveal(ctx, f.shopper, id)
	require.NoError(t, err)
	assert.Equal(t, "PSN-9JQ4-8ZKD-1X2C", r2.FullCode)
	assert.True(t, first.Equal(*r2.Entry.RevealedAt), "revealedAt must not move")
	assert.Equal(t, r1.Entry.AuditHash, r2.Entry.AuditHash)

	entries, err := f.svc.List(ctx, f.shopper)
	require.NoError(t, err)
	assert.Empty(t, entries[0].FullCode, "reveal must not persist the full code")
	assert.True(t, entries[0].IsRevealed())
}

func TestWalletService_Reveal_UnknownEntry(t *testing.T) {
	f := newWalletFixture(t, "PSN-1")

	_, err := f.svc.Reveal(context.Background(), f.shopper, uuid.New())
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_004", appErr.Code)
}

func TestWalletService_VerifyChain(t *testing.T) {
	f := newWalletFixture(t, "A-1111", "B-2222", "C-3333")
	ctx := context.Background()

	ok, err := f.svc.VerifyChain(ctx, f.shopper)
	require.NoError(t, err)
	assert.True(t, ok, "empty chain is valid")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// Reveal out of wallet order.
	for i, idx := range []int{2, 0} {
		at := base.Add(time.Duration(i) * time.Minute)
		f.svc.now = func() time.Time { return at }
		_, err := f.svc.Reveal(ctx, f.shopper, f.entries[idx].ID)
		require.NoError(t, err)
	}

	ok, err = f.svc.VerifyChain(ctx, f.shopper)
	require.NoError(t, err)
	assert.True(t, ok)

	// Tamper with a revealed entry.
	raw, _ := f.store.Get(ctx, WalletKey(f.shopper))
	var w domain.Wallet
	require.NoError(t, json.Unmarshal(raw, &w))
	w.Entries[0].MaskedCode = domain.Mask("FORGED-9999")
	raw, _ = json.Marshal(w)
	require.NoError(t, f.store.Set(ctx, WalletKey(f.shopper), raw))

	ok, err = f.svc.VerifyChain(ctx, f.shopper)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWalletService_VerifyChain_SameInstantReveals(t *testing.T) {
	f := newWalletFixture(t, "A-1111", "B-2222", "C-3333")
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return at }
	for _, idx := range []int{2, 0} {
		_, err := f.svc.Reveal(ctx, f.shopper, f.entries[idx].ID)
		require.NoError(t, err)
	}

	ok, err := f.svc.VerifyChain(ctx, f.shopper)
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := f.svc.List(ctx, f.shopper)
	require.NoError(t, err)
	assert.Equal(t, 2, entries[0].RevealSeq)
	assert.Equal(t, 0, entries[1].RevealSeq)
	assert.Equal(t, 1, entries[2].RevealSeq)
}

func TestWalletService_VerifyChain_ReorderedSequence(t *testing.T) {
	f := newWalletFixture(t, "A-1111", "B-2222")
	ctx := context.Background()

	for _, e := range f.entries {
		_, err := f.svc.Reveal(ctx, f.shopper, e.ID)
		require.NoError(t, err)
	}

	raw, _ := f.store.Get(ctx, WalletKey(f.shopper))
	var w domain.Wallet
	require.NoError(t, json.Unmarshal(raw, &w))
	w.Entries[0].RevealSeq, w.Entries[1].RevealSeq = w.Entries[1].RevealSeq, w.Entries[0].RevealSeq
	raw, _ = json.Marshal(w)
	require.NoError(t, f.store.Set(ctx, WalletKey(f.shopper), raw))

	ok, err := f.svc.VerifyChain(ctx, f.shopper)
	require.NoError(t, err)
	assert.False(t, ok)
}
