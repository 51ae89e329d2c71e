package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productByID(t *testing.T, id string) *Product {
	t.Helper()
	for _, p := range DemoCatalog() {
		if p.ID == id {
			p := p
			return &p
		}
	}
	t.Fatalf("product %s not in catalog", id)
	return nil
}

func TestProduct_HasFaceValue(t *testing.T) {
	p := productByID(t, "psn-ci")
	assert.True(t, p.HasFaceValue(10000))
	assert.True(t, p.HasFaceValue(40000))
	assert.False(t, p.HasFaceValue(25000))
	assert.False(t, p.HasFaceValue(0))
}

func TestCart_Add_MergesSameKey(t *testing.T) {
	psn := productByID(t, "psn-ci")
	apple := productByID(t, "apple-ci")

	calls := []struct {
		p      *Product
		amount int64
	}{
		{psn, 10000}, {apple, 25000}, {psn, 10000}, {psn, 20000}, {psn, 10000}, {apple, 25000},
	}

	var c Cart
	for _, call := range calls {
		c.Add(call.p, call.amount)
	}

	require.Len(t, c.Lines, 3)
	assert.Equal(t, CartLine{ProductID: "psn-ci", Brand: "PSN • CI", Amount: 10000, UnitPrice: 10000, Qty: 3}, c.Lines[0])
	assert.Equal(t, CartLine{ProductID: "apple-ci", Brand: "Apple • CI", Amount: 25000, UnitPrice: 25000, Qty: 2}, c.Lines[1])
	assert.Equal(t, 1, c.Lines[2].Qty)
	assert.Equal(t, 6, c.Count())
}

func TestCart_Total(t *testing.T) {
	tests := []struct {
		name  string
		lines []CartLine
		want  int64
	}{
		{"empty", nil, 0},
		{"single", []CartLine{{UnitPrice: 10000, Qty: 1}}, 10000},
		{"multi", []CartLine{{UnitPrice: 10000, Qty: 3}, {UnitPrice: 25000, Qty: 2}}, 80000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Cart{Lines: tt.lines}
			assert.Equal(t, tt.want, c.Total())
		})
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"PSN-9JQ4-8ZKD-1X2C", "••••-••••-••••-1X2C"},
		{"ABCDEFGH", "••••-••••-••••-EFGH"},
		{"WXYZ", "••••-••••-••••-WXYZ"},
		{"AB", "••••-••••-••••-AB"},
		{"", "••••-••••-••••-"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.code))
			assert.Equal(t, Mask(tt.code), Mask(tt.code), "mask must be deterministic")
		})
	}
}

func TestMask_KeepsExactlyLastFour(t *testing.T) {
	for n := 4; n <= 40; n++ {
		code := strings.Repeat("x", n-4) + fmt.Sprintf("%04d", n)
		masked := Mask(code)
		assert.True(t, strings.HasSuffix(masked, code[len(code)-4:]))
		assert.Equal(t, MaskPrefix, strings.TrimSuffix(masked, code[len(code)-4:]))
	}
}

func TestSplitBatch(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, SplitBatch("A\nB\n\nC"))
	assert.Equal(t, []string{"A", "B"}, SplitBatch("  A  \r\n\r\n B\n   \n"))
	assert.Empty(t, SplitBatch("\n \n"))
}

func TestPoolKey_RoundTrip(t *testing.T) {
	key := PoolKey("psn-ci", 10000)
	assert.Equal(t, "psn-ci:10000", key)

	productID, amount, err := ParsePoolKey(key)
	require.NoError(t, err)
	assert.Equal(t, "psn-ci", productID)
	assert.Equal(t, int64(10000), amount)

	for _, bad := range []string{"", "psn-ci", ":100", "psn-ci:", "psn-ci:ten"} {
		_, _, err := ParsePoolKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDepletionPolicy(t *testing.T) {
	p, err := ParseDepletionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DepletionPlaceholder, p)

	p, err = ParseDepletionPolicy(" FAIL ")
	require.NoError(t, err)
	assert.Equal(t, DepletionFail, p)

	_, err = ParseDepletionPolicy("backorder")
	assert.Error(t, err)
}

func TestWallet_PrependKeepsBatchOrder(t *testing.T) {
	old := WalletEntry{ID: uuid.New(), Brand: "old"}
	w := Wallet{Entries: []WalletEntry{old}}

	a := WalletEntry{ID: uuid.New(), Brand: "a"}
	b := WalletEntry{ID: uuid.New(), Brand: "b"}
	w.Prepend([]WalletEntry{a, b})

	require.Len(t, w.Entries, 3)
	assert.Equal(t, "a", w.Entries[0].Brand)
	assert.Equal(t, "b", w.Entries[1].Brand)
	assert.Equal(t, "old", w.Entries[2].Brand)
}

func TestWallet_FindAndStrip(t *testing.T) {
	id := uuid.New()
	w := Wallet{Entries: []WalletEntry{{ID: id, FullCode: "PSN-1", MaskedCode: Mask("PSN-1")}}}

	e := w.Find(id)
	require.NotNil(t, e)
	now := time.Now()
	e.RevealedAt = &now
	assert.True(t, w.Entries[0].IsRevealed())

	assert.Nil(t, w.Find(uuid.New()))

	w.StripFullCodes()
	assert.Empty(t, w.Entries[0].FullCode)
	assert.Equal(t, Mask("PSN-1"), w.Entries[0].MaskedCode)
}

func TestCheckoutAttempt_IsTerminal(t *testing.T) {
	tests := []struct {
		status AttemptStatus
		want   bool
	}{
		{AttemptStatusPending, false},
		{AttemptStatusSucceeded, true},
		{AttemptStatusCancelled, true},
		{AttemptStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			a := &CheckoutAttempt{Status: tt.status}
			assert.Equal(t, tt.want, a.IsTerminal())
		})
	}
}

func TestCustomer_WithDefaults(t *testing.T) {
	assert.Equal(t, DefaultCustomer, Customer{}.WithDefaults())

	c := Customer{Email: "me@shop.ci"}.WithDefaults()
	assert.Equal(t, "me@shop.ci", c.Email)
	assert.Equal(t, DefaultCustomer.Phone, c.Phone)
	assert.Equal(t, DefaultCustomer.Name, c.Name)
}

func TestProviderResponse_Succeeded(t *testing.T) {
	assert.True(t, ProviderResponse{Status: "successful"}.Succeeded())
	assert.False(t, ProviderResponse{Status: "failed"}.Succeeded())
	assert.False(t, ProviderResponse{}.Succeeded())
}

func TestBuildCheckoutIdempotencyKey(t *testing.T) {
	assert.Equal(t, "checkout:demo-1-abc", BuildCheckoutIdempotencyKey("demo-1-abc"))
}
