package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// HMACSignatureService implements ports.SignatureService using HMAC-SHA256.
// It signs admin vault requests.
type HMACSignatureService struct{}

// NewHMACSignatureService creates a new HMAC-SHA256 signature service.
func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

func (s *HMACSignatureService) mac(secretKey, payload string) []byte {
	m := hmac.New(sha256.New, []byte(secretKey))
	m.Write([]byte(payload))
	return m.Sum(nil)
}

// Sign returns the lowercase hex HMAC-SHA256 of payload.
func (s *HMACSignatureService) Sign(secretKey string, payload string) string {
	return hex.EncodeToString(s.mac(secretKey, payload))
}

// Verify decodes a hex signature (either case) and compares it with the
// expected MAC in constant time. Malformed hex never verifies.
func (s *HMACSignatureService) Verify(secretKey string, payload string, signature string) bool {
	presented, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(s.mac(secretKey, payload), presented)
}

// BuildCanonicalString returns METHOD|PATH|TIMESTAMP|NONCE|BODY with the
// method upper-cased.
func (s *HMACSignatureService) BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", strings.ToUpper(method), path, timestamp, nonce, body)
}

// SecretEqual compares a shared secret header against the configured value
// in constant time. An empty configured secret never matches.
func SecretEqual(configured, presented string) bool {
	if configured == "" {
		return false
	}
	return hmac.Equal([]byte(configured), []byte(presented))
}
