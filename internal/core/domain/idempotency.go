package domain

// BuildCheckoutIdempotencyKey is the cache key of a resolved checkout
// attempt. Provider redeliveries for the same tx_ref replay the result
// stored under it.
func BuildCheckoutIdempotencyKey(txRef string) string {
	return "checkout:" + txRef
}
