// Package provider defines the aircraft-position provider contract
// (spec.md §4.2): any source of live aircraft data is a black box that
// exposes Fetch() and Name(). The tracker depends only on this
// interface and never on a concrete provider's wire format.
package provider

import (
	"context"

	"github.com/flightbridge/liveatc/internal/snapshot"
)

// Provider fetches a batch of aircraft snapshots keyed by hex. Fetch is
// blocking and intended to be called on a background poll cadence.
// Implementations must not share mutable state across calls except
// their own session/cookies/rate-limit bucket.
type Provider interface {
	Fetch(ctx context.Context) (map[string]snapshot.AircraftSnapshot, error)
	Name() string
}
