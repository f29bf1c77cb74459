// Package tracker owns the airspace view: polling cadence, multi-source
// fusion, identity rules, the altitude gate, buffering/delay, eviction,
// and flight-plan triggering. This is the engine spec.md §4.6 describes.
//
// Grounded on the original source's Tracker (tracker.rs) for the core
// state machine (admission filter, first-snapshot-per-batch fusion,
// update_flightplan/try_update_flightplan gating) and its Providers
// wrapper (providers.rs) for decoupling the blocking provider fetch
// from the tick loop via a one-worker pool — so Tick() never blocks on
// network I/O, matching spec.md §5's suspension-point list (the main
// loop only ever does non-blocking accept/read, blocking loopback
// write, and a fixed sleep).
package tracker

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flightbridge/liveatc/internal/airportdb"
	"github.com/flightbridge/liveatc/internal/flightplan"
	"github.com/flightbridge/liveatc/internal/logging"
	"github.com/flightbridge/liveatc/internal/pool"
	"github.com/flightbridge/liveatc/internal/provider"
	"github.com/flightbridge/liveatc/internal/snapshot"
)

const (
	// PollInterval is how often a fresh snapshot batch is requested (spec.md §4.6: 3-4s).
	PollInterval = 3 * time.Second
	// EvictionHorizon is the wall-clock age past which a track is considered lost (spec.md §4.6 policy (b)).
	EvictionHorizon = 20 * time.Second
)

// FusionMode selects how duplicate-hex snapshots within one batch are reconciled.
type FusionMode int

const (
	// FusionFirstWins keeps the first snapshot seen for a hex in a batch
	// and ignores the rest (spec.md §4.6's baseline rule).
	FusionFirstWins FusionMode = iota
	// FusionFieldMerge lets the newer-timestamped record win for
	// kinematics, and fills missing metadata from whichever snapshot has
	// it — spec.md §4.6's optional richer rule. Deterministic and
	// order-independent: each hex's snapshots are folded oldest-first by
	// (timestamp, provider), never in arrival order within the batch.
	FusionFieldMerge
)

var (
	// AirlinePattern identifies airline-style callsigns (spec.md §9).
	AirlinePattern = regexp.MustCompile(`^[A-Za-z]{3}\d+`)
	// CallsignAcceptancePattern is the general callsign shape (spec.md §9):
	// used in admit() to reject callsigns over 4 chars that merely happen
	// to be long, as opposed to actually looking like a callsign.
	CallsignAcceptancePattern = regexp.MustCompile(`^[A-Z]{3}[A-Z0-9]+`)
	// RegistrationPattern matches tail-number-shaped callsigns (spec.md §9).
	RegistrationPattern = regexp.MustCompile(`^([A-Z]-[A-Z]{4}|[A-Z]{2}-[A-Z]{3}|N[0-9]{1,5}[A-Z]{0,2})$`)
)

// batchEntry is one (hex, snapshot) pair from a poll cycle. Duplicates
// across providers for the same hex are preserved until fusion.
type batchEntry struct {
	hex  string
	snap snapshot.AircraftSnapshot
}

type providerError struct {
	provider string
	err      error
}

type fetchResult struct {
	entries []batchEntry
	errs    []providerError
}

// Tracker is the airspace view. All exported methods are intended to be
// called only from the session loop that owns it.
type Tracker struct {
	providers      []provider.Provider
	floor, ceiling int
	fusion         FusionMode
	useFlightAware bool

	fp *flightplan.Enricher

	bounds    airportdb.Bounds
	boundsSet bool

	tracks          map[string]*snapshot.Track
	callsignIndex   map[string]string // callsign -> hex
	buffer          [][]batchEntry
	buffering       bool
	lastPollTrigger time.Time

	fetchPool *pool.Pool[struct{}, fetchResult]

	now func() time.Time
}

// Option configures a Tracker at construction.
type Option func(*Tracker)

// WithFusionMode overrides the default first-wins fusion rule.
func WithFusionMode(m FusionMode) Option {
	return func(t *Tracker) { t.fusion = m }
}

// WithClock overrides the wall-clock source; intended for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithFlightAware enables or disables flight-plan job submission
// (spec.md SPEC_FULL.md §7's use_flightaware knob).
func WithFlightAware(enabled bool) Option {
	return func(t *Tracker) { t.useFlightAware = enabled }
}

// WithBounds scopes admission to the given geographic rectangle, in
// addition to each provider's own bounds-scoped request (spec.md §1's
// "aircraft currently within a configured geographic radius"). A
// snapshot outside bounds is treated as if it never arrived. Omit this
// option to leave admission unscoped by geography (e.g. in tests).
func WithBounds(b airportdb.Bounds) Option {
	return func(t *Tracker) { t.bounds = b; t.boundsSet = true }
}

// New builds a tracker polling providers for aircraft within
// [floor, ceiling] feet, enriching airline tracks via fp.
func New(providers []provider.Provider, floor, ceiling int, fp *flightplan.Enricher, opts ...Option) *Tracker {
	t := &Tracker{
		providers:      providers,
		floor:          floor,
		ceiling:        ceiling,
		useFlightAware: true,
		fp:             fp,
		tracks:         make(map[string]*snapshot.Track),
		callsignIndex:  make(map[string]string),
		fetchPool:      pool.New[struct{}, fetchResult](1),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.fetchPool.Run(t.fetchAll)
	t.lastPollTrigger = t.now()
	return t
}

func (t *Tracker) fetchAll(_ struct{}) fetchResult {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var result fetchResult
	for _, p := range t.providers {
		snaps, err := p.Fetch(ctx)
		if err != nil {
			result.errs = append(result.errs, providerError{provider: p.Name(), err: err})
			continue
		}
		for hex, snap := range snaps {
			result.entries = append(result.entries, batchEntry{hex: hex, snap: snap})
		}
	}
	return result
}

// Tick runs the polling cadence check, applies at most one buffered
// batch, and drains one flight-plan result. Never blocks on network I/O.
func (t *Tracker) Tick() {
	now := t.now()

	if now.Sub(t.lastPollTrigger) >= PollInterval {
		t.fetchPool.Submit(struct{}{})
		t.lastPollTrigger = now
	}

	if result, ok := t.fetchPool.Poll(); ok {
		for _, pe := range result.errs {
			logging.L().Warn("provider fetch failed", zap.String("provider", pe.provider), zap.Error(pe.err))
		}
		t.buffer = append(t.buffer, result.entries)
	}

	if !t.buffering && len(t.buffer) > 0 {
		batch := t.buffer[0]
		t.buffer = t.buffer[1:]
		t.applyBatch(batch, now)
	}

	// Eviction runs every tick, independent of whether a batch was just
	// applied: a track must not survive past EvictionHorizon merely
	// because the provider feed has gone quiet (spec.md §4.6 policy (b)).
	t.evictStale(now)

	t.drainFlightPlan()
}

func (t *Tracker) applyBatch(batch []batchEntry, now time.Time) {
	processed := make(map[string]bool, len(batch))
	merged := make(map[string]snapshot.AircraftSnapshot, len(batch))
	var order []string

	switch t.fusion {
	case FusionFieldMerge:
		sorted := append([]batchEntry(nil), batch...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].snap.Timestamp != sorted[j].snap.Timestamp {
				return sorted[i].snap.Timestamp < sorted[j].snap.Timestamp
			}
			return sorted[i].snap.Provider < sorted[j].snap.Provider
		})
		for _, e := range sorted {
			if existing, ok := merged[e.hex]; ok {
				merged[e.hex] = mergeFields(existing, e.snap)
			} else {
				merged[e.hex] = e.snap
				order = append(order, e.hex)
			}
		}
	default: // FusionFirstWins
		for _, e := range batch {
			if processed[e.hex] {
				continue
			}
			processed[e.hex] = true
			merged[e.hex] = e.snap
			order = append(order, e.hex)
		}
	}

	for _, hex := range order {
		snap := merged[hex]
		if !t.admit(hex, snap) {
			continue
		}
		t.upsert(hex, snap, now)
	}
}

// mergeFields implements FusionFieldMerge: the newer-timestamped record
// wins for kinematics, non-empty strings fill in missing metadata. On
// equal timestamps the snapshot whose provider name sorts later wins, so
// for snapshots from different providers the result depends only on
// (a, b), not on which arrived first.
func mergeFields(a, b snapshot.AircraftSnapshot) snapshot.AircraftSnapshot {
	newer, older := a, b
	if b.Timestamp > a.Timestamp || (b.Timestamp == a.Timestamp && b.Provider > a.Provider) {
		newer, older = b, a
	}

	out := newer
	if out.Model == "" {
		out.Model = older.Model
	}
	if out.Origin == "" {
		out.Origin = older.Origin
	}
	if out.Destination == "" {
		out.Destination = older.Destination
	}
	if out.Callsign == "" {
		out.Callsign = older.Callsign
	}
	if out.Squawk == "" {
		out.Squawk = older.Squawk
	}
	return out
}

// admit applies spec.md §4.6's admission filter to a single snapshot.
func (t *Tracker) admit(hex string, snap snapshot.AircraftSnapshot) bool {
	callsign := snap.TrimmedCallsign()
	if callsign == "" {
		return false
	}
	if snap.Altitude < t.floor || snap.Altitude > t.ceiling {
		return false
	}
	if t.boundsSet && !t.bounds.Contains(snap.Latitude, snap.Longitude) {
		return false
	}

	if _, exists := t.tracks[hex]; !exists {
		if _, taken := t.callsignIndex[callsign]; taken {
			return false
		}
		// A registration-shaped callsign is admitted regardless of length;
		// otherwise the callsign must be longer than 4 chars AND look like
		// an actual callsign, not just any string of that length.
		looksLikeCallsign := len(callsign) > 4 && CallsignAcceptancePattern.MatchString(callsign)
		if !RegistrationPattern.MatchString(callsign) && !looksLikeCallsign {
			return false
		}
	}

	return true
}

func (t *Tracker) upsert(hex string, snap snapshot.AircraftSnapshot, now time.Time) {
	callsign := snap.TrimmedCallsign()

	track, exists := t.tracks[hex]
	if !exists {
		track = snapshot.NewTrack(snap, now)
		t.tracks[hex] = track
		t.callsignIndex[callsign] = hex
		logging.L().Info("track created", zap.String("hex", hex), zap.String("callsign", callsign))
		t.maybeRequestFlightPlan(track)
		return
	}

	if snap.Timestamp <= track.LastPositionProviderTS {
		return // older-or-equal provider timestamp, silently dropped
	}

	track.ApplyUpdate(snap, now)
	t.maybeRequestFlightPlan(track)
}

func (t *Tracker) maybeRequestFlightPlan(track *snapshot.Track) {
	if track.FPAttempted {
		return
	}
	track.FPAttempted = true

	if !t.useFlightAware {
		return
	}
	if !AirlinePattern.MatchString(track.Latest.Callsign) {
		return
	}
	if t.fp != nil {
		t.fp.Request(track.Hex, track.Latest.Callsign)
	}
}

func (t *Tracker) drainFlightPlan() {
	if t.fp == nil {
		return
	}
	result, ok := t.fp.Poll()
	if !ok {
		return
	}
	if result.Err != nil {
		logging.L().Info("flight plan lookup failed", zap.String("callsign", result.Callsign), zap.Error(result.Err))
		return
	}
	track, exists := t.tracks[result.ID]
	if !exists {
		return // track was evicted before the result arrived
	}
	if track.FlightPlan == nil {
		fp := result.FP
		track.FlightPlan = &fp
	}
}

// evictStale removes tracks whose last accepted position update is
// older than EvictionHorizon (spec.md §4.6 policy (b)).
func (t *Tracker) evictStale(now time.Time) {
	for hex, track := range t.tracks {
		if now.Sub(track.LastPositionWall) >= EvictionHorizon {
			delete(t.tracks, hex)
			delete(t.callsignIndex, track.Latest.TrimmedCallsign())
			logging.L().Info("track evicted", zap.String("hex", hex), zap.String("callsign", track.Latest.Callsign))
		}
	}
}

// Tracks returns all live tracks, sorted by hex for deterministic
// iteration order. Callers may mutate each Track's display fields (e.g.
// calling Interp.Get) but must not mutate the map itself.
func (t *Tracker) Tracks() []*snapshot.Track {
	out := make([]*snapshot.Track, 0, len(t.tracks))
	for _, track := range t.tracks {
		out = append(out, track)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex < out[j].Hex })
	return out
}

// TrackByCallsign resolves a callsign to its track in O(1).
func (t *Tracker) TrackByCallsign(callsign string) (*snapshot.Track, bool) {
	hex, ok := t.callsignIndex[strings.TrimSpace(callsign)]
	if !ok {
		return nil, false
	}
	track, ok := t.tracks[hex]
	return track, ok
}

// Exists reports whether hex currently has a live track.
func (t *Tracker) Exists(hex string) bool {
	_, ok := t.tracks[hex]
	return ok
}

// StartBuffering begins queueing fetched batches instead of applying them.
func (t *Tracker) StartBuffering() { t.buffering = true }

// StopBuffering resumes applying one queued batch per Tick.
func (t *Tracker) StopBuffering() { t.buffering = false }

// IsBuffering reports the current buffering state.
func (t *Tracker) IsBuffering() bool { return t.buffering }

// BufferDepth reports how many unapplied batches are queued, for status logging.
func (t *Tracker) BufferDepth() int { return len(t.buffer) }
