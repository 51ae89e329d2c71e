package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletEntry is one voucher code attributed to a shopper.
type WalletEntry struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  string     `json:"productId"`
	Brand      string     `json:"brand"`
	Amount     int64      `json:"amount"`
	MaskedCode string     `json:"maskedCode"`
	FullCode   string     `json:"fullCode,omitempty"` // session-fresh only, never persisted
	CodeEnc    string     `json:"codeEnc"`            // AES-256 encrypted full code
	Synthetic  bool       `json:"synthetic,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	RevealedAt *time.Time `json:"revealedAt"`          // set once, never reverts
	RevealSeq  int        `json:"revealSeq,omitempty"` // 1-based position in the reveal chain
	AuditHash  string     `json:"auditHash,omitempty"`
}

// IsRevealed returns true once the code was shown to the shopper.
func (e *WalletEntry) IsRevealed() bool {
	return e.RevealedAt != nil
}

// Wallet is the shopper's wallet document, newest entry first.
type Wallet struct {
	Entries   []WalletEntry `json:"entries"`
	AuditHead string        `json:"auditHead,omitempty"` // head of the reveal hash chain
}

// Prepend puts a checkout batch in front of the existing entries,
// keeping the batch's own order.
func (w *Wallet) Prepend(batch []WalletEntry) {
	entries := make([]WalletEntry, 0, len(batch)+len(w.Entries))
	entries = append(entries, batch...)
	w.Entries = append(entries, w.Entries...)
}

// RevealedCount returns how many entries have been revealed.
func (w *Wallet) RevealedCount() int {
	n := 0
	for i := range w.Entries {
		if w.Entries[i].IsRevealed() {
			n++
		}
	}
	return n
}

// Find returns a pointer to the entry with the given ID, or nil.
func (w *Wallet) Find(id uuid.UUID) *WalletEntry {
	for i := range w.Entries {
		if w.Entries[i].ID == id {
			return &w.Entries[i]
		}
	}
	return nil
}

// StripFullCodes clears the transient full codes so only the masked form
// (and the encrypted copy) is stored.
func (w *Wallet) StripFullCodes() {
	for i := range w.Entries {
		w.Entries[i].FullCode = ""
	}
}
