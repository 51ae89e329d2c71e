// Package checkout holds the external checkout capabilities, the loader
// that probes them once per process and the public key sources.
package checkout

import (
	"net/http"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
