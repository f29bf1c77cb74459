// Package flightplan enriches airliner tracks with a flight plan fetched
// asynchronously from a third party, atop a pool.Pool worker pool.
//
// Grounded on the original source's FlightAware (flightaware.rs): same
// regex-extract-embedded-JSON technique (a `var trackpollBootstrap =
// ({...});` blob scraped out of an HTML page), same post-condition that
// altitude fields under 1000 are flight levels and get multiplied by
// 100, and the same job/result shape (request(id, callsign) / poll()).
// The HTTP client and rate limiting follow unklstewy-ads-bscope's
// FlightAware AeroAPI client (golang.org/x/time/rate sized from a
// requests-per-hour budget).
package flightplan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/flightbridge/liveatc/internal/ferrors"
	"github.com/flightbridge/liveatc/internal/pool"
	"github.com/flightbridge/liveatc/internal/snapshot"
)

const (
	// DefaultWorkers is the recommended pool size (spec.md §4.4).
	DefaultWorkers = 5
	endpoint       = "https://flightaware.com/live/flight/"
)

var bootstrapPattern = regexp.MustCompile(`var trackpollBootstrap = \((\{.+?\})\);`)

// Job is one flight-plan request: track id (hex) plus the callsign to look up.
type Job struct {
	ID       string
	Callsign string
}

// Result is a completed (possibly failed) flight-plan fetch.
type Result struct {
	ID       string
	Callsign string
	FP       snapshot.FlightPlan
	Err      error
}

// Enricher fetches a flight plan for each submitted job and yields
// results asynchronously. It does not deduplicate jobs (see Request).
type Enricher struct {
	pool    *pool.Pool[Job, Result]
	client  *http.Client
	limiter *rate.Limiter
}

// New builds an enricher with DefaultWorkers background fetchers.
func New() *Enricher {
	e := &Enricher{
		pool:    pool.New[Job, Result](DefaultWorkers),
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 2), // a gentle default; real deployments tune this per source ToS
	}
	e.pool.Run(e.handle)
	return e
}

// Request submits a flight-plan job. The tracker is responsible for
// ensuring this is called at most once per track (see Track.FPAttempted).
func (e *Enricher) Request(id, callsign string) {
	e.pool.Submit(Job{ID: id, Callsign: callsign})
}

// Poll returns one completed result, if available.
func (e *Enricher) Poll() (Result, bool) {
	return e.pool.Poll()
}

func (e *Enricher) handle(job Job) Result {
	fp, err := e.fetch(job.Callsign)
	return Result{ID: job.ID, Callsign: job.Callsign, FP: fp, Err: err}
}

func (e *Enricher) fetch(callsign string) (snapshot.FlightPlan, error) {
	if err := e.limiter.Wait(context.Background()); err != nil {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: rate limiter: %v", ferrors.TransportFailure, err)
	}

	req, err := http.NewRequest(http.MethodGet, endpoint+callsign, nil)
	if err != nil {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: building flight-plan request: %v", ferrors.TransportFailure, err)
	}
	req.Header.Set("User-Agent", "liveatc/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: fetching flight plan for %s: %v", ferrors.TransportFailure, callsign, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: no flight plan for %s", ferrors.NotFound, callsign)
	}
	if resp.StatusCode != http.StatusOK {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: flight plan source returned %d", ferrors.TransportFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: reading flight-plan body: %v", ferrors.TransportFailure, err)
	}

	return parseBootstrap(body)
}

// bootstrapFlight is the slice of the scraped JSON blob this enricher cares about.
type bootstrapFlight struct {
	Origin struct {
		ICAO string `json:"icao"`
		Gate string `json:"gate"`
	} `json:"origin"`
	Destination struct {
		ICAO string `json:"icao"`
		Gate string `json:"gate"`
	} `json:"destination"`
	Aircraft struct {
		Type string `json:"type"`
	} `json:"aircraft"`
	FlightPlan struct {
		Speed    int    `json:"speed"`
		Altitude int    `json:"altitude"`
		Route    string `json:"route"`
	} `json:"flightPlan"`
}

type bootstrapPayload struct {
	Flights map[string]bootstrapFlight `json:"flights"`
}

func parseBootstrap(body []byte) (snapshot.FlightPlan, error) {
	matches := bootstrapPattern.FindSubmatch(body)
	if matches == nil {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: no embedded flight data found in page", ferrors.ParseFailure)
	}

	var payload bootstrapPayload
	if err := json.Unmarshal(matches[1], &payload); err != nil {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: decoding embedded flight data: %v", ferrors.ParseFailure, err)
	}

	var flight bootstrapFlight
	found := false
	for _, f := range payload.Flights {
		flight = f
		found = true
		break
	}
	if !found {
		return snapshot.FlightPlan{}, fmt.Errorf("%w: no flights in embedded data", ferrors.ParseFailure)
	}

	return snapshot.FlightPlan{
		OriginICAO:   flight.Origin.ICAO,
		OriginGate:   flight.Origin.Gate,
		DestICAO:     flight.Destination.ICAO,
		DestGate:     flight.Destination.Gate,
		AircraftType: flight.Aircraft.Type,
		SpeedKnots:   flight.FlightPlan.Speed,
		AltitudeFeet: snapshot.NormalizeAltitude(flight.FlightPlan.Altitude),
		Route:        flight.FlightPlan.Route,
	}, nil
}
