// Package snapshot defines the per-observation aircraft record produced
// by provider adapters, and the tracker's durable per-aircraft Track
// built from a sequence of snapshots.
//
// Grounded on the teacher's adsb.Aircraft (internal/adsb/aircraft.go)
// generalized from a single dump1090-shaped record to the
// provider-tagged, multi-source record spec.md §3 describes, and on
// the original source's MinimalAircraftData (util.rs) for field
// semantics (provider timestamp gating, squawk, on-ground polarity).
package snapshot

import (
	"strings"
	"time"

	"github.com/flightbridge/liveatc/internal/interpolate"
)

// AircraftSnapshot is one observation of one aircraft from one provider.
type AircraftSnapshot struct {
	// Identity
	Hex      string // opaque provider-stable id, typically a Mode-S address
	Callsign string

	// Kinematics
	Latitude    float64
	Longitude   float64
	Heading     int // degrees, 0-360
	GroundSpeed int // knots
	Altitude    int // feet, signed

	// Transponder
	Squawk     string // 4-character octal-style string
	IsOnGround bool

	// Metadata
	Model       string
	Origin      string
	Destination string
	Timestamp   int64 // unix seconds, provider-supplied

	// Provenance
	Provider string
}

// TrimmedCallsign returns the callsign with surrounding whitespace removed.
func (s AircraftSnapshot) TrimmedCallsign() string {
	return strings.TrimSpace(s.Callsign)
}

// FlightPlan is an enriched flight plan attached to a Track at most once.
type FlightPlan struct {
	OriginICAO      string
	OriginGate      string
	DestICAO        string
	DestGate        string
	AircraftType    string
	SpeedKnots      int
	AltitudeFeet    int // normalized: values < 1000 are interpreted as flight levels and multiplied by 100
	Route           string
	ScheduledDepart *time.Time // UTC, optional
	ScheduledArrive *time.Time // UTC, optional
}

// NormalizeAltitude applies spec.md §3's flight-level convention:
// altitude fields below 1000 are hundreds of feet (a flight level).
func NormalizeAltitude(alt int) int {
	if alt < 1000 {
		return alt * 100
	}
	return alt
}

// Track is the tracker's durable per-aircraft record, keyed by Hex.
type Track struct {
	Hex     string
	Latest  AircraftSnapshot
	Interp  *interpolate.Position

	FlightPlan   *FlightPlan
	FPAttempted  bool
	FPSent       bool // session server has already emitted the real $FP line

	// InitialFP tracks what origin/destination the placeholder $FP line
	// was last built from, so the server can detect when to re-emit it.
	InitialFPOrigin string
	InitialFPDest   string
	InitialFPSent   bool

	LastPositionWall       time.Time
	LastPositionProviderTS int64
}

// NewTrack builds a fresh Track from an admitted snapshot.
func NewTrack(snap AircraftSnapshot, now time.Time) *Track {
	return &Track{
		Hex:                    snap.Hex,
		Latest:                 snap,
		Interp:                 interpolate.New(snap.Latitude, snap.Longitude, snap.Heading, snap.GroundSpeed, now),
		LastPositionWall:       now,
		LastPositionProviderTS: snap.Timestamp,
	}
}

// ApplyUpdate replaces the track's kinematics from a newer snapshot.
// Callers must already have verified snap.Timestamp > t.LastPositionProviderTS.
func (t *Track) ApplyUpdate(snap AircraftSnapshot, now time.Time) {
	t.Latest = snap
	t.Interp = interpolate.New(snap.Latitude, snap.Longitude, snap.Heading, snap.GroundSpeed, now)
	t.LastPositionWall = now
	t.LastPositionProviderTS = snap.Timestamp
}
