package cerebras

import "net/http"

// userAgentTransport wraps http.RoundTripper to inject a randomized
// User-Agent header on every outbound request that does not already carry
// one. Credentials are attached per-request by the client, not here.
type userAgentTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", randomUserAgent())
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
