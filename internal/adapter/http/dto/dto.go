package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"giftcard-storefront/internal/core/domain"

	"github.com/google/uuid"
)

// --- Session DTOs ---

type SessionResponse struct {
	Token     string    `json:"token"`
	ShopperID uuid.UUID `json:"shopper_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// --- Cart DTOs ---

type AddCartLineRequest struct {
	ProductID string `json:"product_id" binding:"required,safe_id,max=64"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Brand     string `json:"brand"`
	Amount    int64  `json:"amount"`
	UnitPrice int64  `json:"unit_price"`
	Qty       int    `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}

type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Count int                `json:"count"`
	Total int64              `json:"total"`
}

func ToCartResponse(c *domain.Cart) CartResponse {
	resp := CartResponse{
		Lines: make([]CartLineResponse, 0, len(c.Lines)),
		Count: c.Count(),
		Total: c.Total(),
	}
	for _, l := range c.Lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			ProductID: l.ProductID,
			Brand:     l.Brand,
			Amount:    l.Amount,
			UnitPrice: l.UnitPrice,
			Qty:       l.Qty,
			Subtotal:  l.Subtotal(),
		})
	}
	return resp
}

// --- Wallet DTOs ---

// WalletEntryResponse never carries the full code.
type WalletEntryResponse struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  string     `json:"product_id"`
	Brand      string     `json:"brand"`
	Amount     int64      `json:"amount"`
	MaskedCode string     `json:"masked_code"`
	Synthetic  bool       `json:"synthetic"`
	CreatedAt  time.Time  `json:"created_at"`
	RevealedAt *time.Time `json:"revealed_at"`
}

func ToWalletEntryResponse(e domain.WalletEntry) WalletEntryResponse {
	return WalletEntryResponse{
		ID:         e.ID,
		ProductID:  e.ProductID,
		Brand:      e.Brand,
		Amount:     e.Amount,
		MaskedCode: e.MaskedCode,
		Synthetic:  e.Synthetic,
		CreatedAt:  e.CreatedAt,
		RevealedAt: e.RevealedAt,
	}
}

func ToWalletEntryResponses(entries []domain.WalletEntry) []WalletEntryResponse {
	out := make([]WalletEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToWalletEntryResponse(e))
	}
	return out
}

type RevealResponse struct {
	WalletEntryResponse
	FullCode string `json:"full_code"`
}

type ChainStatusResponse struct {
	Valid bool `json:"valid"`
}

// --- Checkout DTOs ---

type BeginCheckoutRequest struct {
	Email string `json:"email" binding:"omitempty,email,max=254"`
	Phone string `json:"phone_number" binding:"omitempty,max=20"`
	Name  string `json:"name" binding:"omitempty,max=100"`
}

func (r BeginCheckoutRequest) Customer() domain.Customer {
	return domain.Customer{Email: r.Email, Phone: r.Phone, Name: r.Name}
}

// ProviderCallbackRequest is the response object the checkout widget hands
// to its callback, forwarded by the storefront.
type ProviderCallbackRequest struct {
	Status        string      `json:"status" binding:"required,max=32"`
	TxRef         string      `json:"tx_ref" binding:"required,safe_id,max=64"`
	TransactionID FlexString  `json:"transaction_id" binding:"max=64"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency" binding:"omitempty,len=3"`
}

// ProviderResponse converts the callback into the domain type. Amounts
// are rounded to the smallest currency unit.
func (r ProviderCallbackRequest) ProviderResponse() (domain.ProviderResponse, error) {
	resp := domain.ProviderResponse{
		Status:        r.Status,
		TxRef:         r.TxRef,
		TransactionID: string(r.TransactionID),
		Currency:      r.Currency,
	}
	if r.Amount != "" {
		f, err := r.Amount.Float64()
		if err != nil {
			return resp, err
		}
		resp.Amount = int64(math.Round(f))
	}
	return resp, nil
}

// FlexString accepts a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

type CheckoutResultResponse struct {
	Attempt domain.CheckoutAttempt `json:"attempt"`
	Entries []WalletEntryResponse  `json:"entries"`
}

func ToCheckoutResultResponse(r *domain.CheckoutResult) CheckoutResultResponse {
	return CheckoutResultResponse{
		Attempt: r.Attempt,
		Entries: ToWalletEntryResponses(r.Entries),
	}
}

// --- Admin DTOs ---

type ImportBatchRequest struct {
	ProductID string `json:"product_id" binding:"required,safe_id,max=64"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Codes     string `json:"codes" binding:"required,max=1048576"`
}

type ImportBatchResponse struct {
	ProductID string `json:"product_id"`
	Amount    int64  `json:"amount"`
	Imported  int    `json:"imported"`
}

// --- Relay DTOs ---

// PublicKeyResponse is the raw relay body, outside the response envelope.
type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

type RelayErrorResponse struct {
	Error string `json:"error"`
}
