package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DepletionPolicy decides what a draw does on an empty pool.
type DepletionPolicy string

const (
	// DepletionPlaceholder synthesizes a SIM- code so checkout never blocks.
	// Demo behaviour only: a real inventory must not use it.
	DepletionPlaceholder DepletionPolicy = "placeholder"
	// DepletionFail rejects the draw, aborting the whole checkout.
	DepletionFail DepletionPolicy = "fail"
)

// ParseDepletionPolicy maps a config value to a policy.
func ParseDepletionPolicy(s string) (DepletionPolicy, error) {
	switch DepletionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case DepletionPlaceholder, "":
		return DepletionPlaceholder, nil
	case DepletionFail:
		return DepletionFail, nil
	}
	return "", fmt.Errorf("unknown depletion policy %q", s)
}

// PlaceholderPrefix marks codes synthesized from a depleted pool.
const PlaceholderPrefix = "SIM-"

// PoolKey builds the vault key "productId:amount".
func PoolKey(productID string, amount int64) string {
	return productID + ":" + strconv.FormatInt(amount, 10)
}

// ParsePoolKey splits a pool key back into product ID and amount.
func ParsePoolKey(key string) (string, int64, error) {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 || i == len(key)-1 {
		return "", 0, fmt.Errorf("malformed pool key %q", key)
	}
	amount, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed pool key %q: %w", key, err)
	}
	return key[:i], amount, nil
}

// SplitBatch turns raw import text into codes: one per line, trimmed,
// blank lines dropped, order preserved.
func SplitBatch(raw string) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	codes := make([]string, 0, len(lines))
	for _, l := range lines {
		if c := strings.TrimSpace(l); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// MaskPrefix is the glyph block shown in place of the hidden part of a code.
const MaskPrefix = "••••-••••-••••-"

// maskTail is the number of trailing characters left visible.
const maskTail = 4

// Mask hides a code behind MaskPrefix, keeping its last four characters.
// Codes shorter than four characters keep all of them.
func Mask(code string) string {
	r := []rune(code)
	if len(r) > maskTail {
		r = r[len(r)-maskTail:]
	}
	return MaskPrefix + string(r)
}

// PoolStock is the number of unissued codes left in one pool.
type PoolStock struct {
	ProductID string `json:"product_id"`
	Amount    int64  `json:"amount"`
	Remaining int64  `json:"remaining"`
}

// DemoVaultSeed is the demo inventory loaded at startup.
func DemoVaultSeed() map[string][]string {
	return map[string][]string{
		PoolKey("apple-ci", 10000): {"APL-7H2K-QW9E-3M4N", "APL-1B8V-ZX5C-9P0L"},
		PoolKey("apple-ci", 25000): {"APL-5T6Y-UI7O-2A3S"},
		PoolKey("psn-ci", 10000):   {"PSN-9JQ4-8ZKD-1X2C"},
		PoolKey("psn-ci", 20000):   {"PSN-4RT5-6YU7-8IO9", "PSN-2WE3-4RT5-6YU7"},
		PoolKey("gplay-ci", 10000): {"GPL-3D4F-5G6H-7J8K"},
		PoolKey("gplay-ci", 15000): {"GPL-8K9L-0Z1X-2C3V"},
	}
}
