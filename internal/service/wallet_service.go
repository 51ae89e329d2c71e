package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	encSvc ports.EncryptionService
	docs   documents
	locks  *KeyedMutex
	log    zerolog.Logger
	now    func() time.Time
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(encSvc ports.EncryptionService, store ports.DocumentStore, locks *KeyedMutex, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{
		encSvc: encSvc,
		docs:   documents{store: store, log: log},
		locks:  locks,
		log:    log,
		now:    time.Now,
	}
}

// List returns the wallet entries, newest first. Full codes are never
// part of the stored document.
func (s *WalletServiceImpl) List(ctx context.Context, shopperID uuid.UUID) ([]domain.WalletEntry, error) {
	w, err := s.docs.loadWallet(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	if w.Entries == nil {
		return []domain.WalletEntry{}, nil
	}
	return w.Entries, nil
}

// Reveal returns the full code of an entry. The first call stamps
// revealedAt and extends the wallet's reveal hash chain; later calls keep
// the original timestamp.
func (s *WalletServiceImpl) Reveal(ctx context.Context, shopperID uuid.UUID, entryID uuid.UUID) (*ports.RevealResult, error) {
	unlock := s.locks.Lock(shopperID.String())
	defer unlock()

	w, err := s.docs.loadWallet(ctx, shopperID)
	if err != nil {
		return nil, err
	}

	entry := w.Find(entryID)
	if entry == nil {
		return nil, apperror.ErrNotFound("wallet entry")
	}

	code, err := s.encSvc.Decrypt(entry.CodeEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt code: %w", err))
	}

	if !entry.IsRevealed() {
		at := s.now().UTC()
		entry.RevealSeq = w.RevealedCount() + 1
		entry.RevealedAt = &at
		entry.AuditHash = chainHash(w.AuditHead, entry)
		w.AuditHead = entry.AuditHash

		if err := s.docs.saveWallet(ctx, shopperID, w); err != nil {
			return nil, err
		}

		s.log.Info().
			Str("shopper_id", shopperID.String()).
			Str("entry_id", entryID.String()).
			Msg("wallet code revealed")
	}

	return &ports.RevealResult{Entry: *entry, FullCode: code}, nil
}

// VerifyChain recomputes the reveal hash chain in reveal order and checks
// it against every entry and the stored head. Reveal order comes from the
// stored sequence numbers, which must run 1..n without gaps; timestamps
// can tie.
func (s *WalletServiceImpl) VerifyChain(ctx context.Context, shopperID uuid.UUID) (bool, error) {
	w, err := s.docs.loadWallet(ctx, shopperID)
	if err != nil {
		return false, err
	}

	revealed := make([]*domain.WalletEntry, 0, len(w.Entries))
	for i := range w.Entries {
		if w.Entries[i].IsRevealed() {
			revealed = append(revealed, &w.Entries[i])
		}
	}
	sort.Slice(revealed, func(i, j int) bool {
		return revealed[i].RevealSeq < revealed[j].RevealSeq
	})

	head := ""
	for i, e := range revealed {
		if e.RevealSeq != i+1 {
			return false, nil
		}
		h := chainHash(head, e)
		if h != e.AuditHash {
			return false, nil
		}
		head = h
	}
	return head == w.AuditHead, nil
}

// chainHash is BLAKE2b-256(prev|seq|entryID|revealedAt|maskedCode), hex-encoded.
func chainHash(prev string, e *domain.WalletEntry) string {
	payload := fmt.Sprintf("%s|%d|%s|%s|%s",
		prev, e.RevealSeq, e.ID, e.RevealedAt.UTC().Format(time.RFC3339Nano), e.MaskedCode)
	sum := blake2b.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
