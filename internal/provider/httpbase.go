// HTTPBase factors out the concerns every HTTP-polled provider needs:
// a timeout-bound client, a token-bucket rate limit, and a pluggable
// Decoder so the wire-format parsing (out of scope per spec.md §1) can
// be swapped without touching the fetch/rate-limit/error plumbing.
//
// Grounded on unklstewy-ads-bscope's flightaware.Client (rate limiter
// sized from a requests-per-X config, sharing one *http.Client) and on
// HusainCode-flight-event-throttler's OpenSkyClient (context-aware
// request construction, status-code checking, wrapped errors).
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/flightbridge/liveatc/internal/ferrors"
	"github.com/flightbridge/liveatc/internal/snapshot"
)

// Decoder turns a provider's raw response body into snapshots keyed by hex.
type Decoder func(body []byte) (map[string]snapshot.AircraftSnapshot, error)

// HTTPBase is an embeddable provider base for simple "GET a URL, decode
// the body" adapters.
type HTTPBase struct {
	name        string
	url         string
	client      *http.Client
	limiter     *rate.Limiter
	decode      Decoder
	providerTag string
}

// NewHTTPBase builds an HTTP-polled provider. requestsPerMinute bounds
// how often Fetch is allowed to actually hit the network; callers that
// poll faster than the limiter allows get an immediate empty result
// rather than blocking the tracker's poll cadence.
func NewHTTPBase(name, url string, requestsPerMinute int, decode Decoder) *HTTPBase {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	perSecond := float64(requestsPerMinute) / 60.0

	return &HTTPBase{
		name:        name,
		url:         url,
		client:      &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(perSecond), 1),
		decode:      decode,
		providerTag: name,
	}
}

// Name implements Provider.
func (b *HTTPBase) Name() string { return b.name }

// Fetch implements Provider.
func (b *HTTPBase) Fetch(ctx context.Context) (map[string]snapshot.AircraftSnapshot, error) {
	if !b.limiter.Allow() {
		return map[string]snapshot.AircraftSnapshot{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", ferrors.TransportFailure, b.name, err)
	}
	req.Header.Set("User-Agent", "liveatc/1.0")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ferrors.TransportFailure, b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ferrors.TransportFailure, b.name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s body: %v", ferrors.TransportFailure, b.name, err)
	}

	out, err := b.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %v", ferrors.ParseFailure, b.name, err)
	}

	for hex, snap := range out {
		snap.Provider = b.providerTag
		out[hex] = snap
	}

	return out, nil
}
