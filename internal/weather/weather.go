// Package weather fetches METAR reports by station id on a single-worker
// pool. Duplicate submissions are allowed; the pool does not deduplicate
// (spec.md §4.5).
//
// Grounded on the original source's NoaaWeather (noaa.rs): same
// endpoint shape (aviationweather.gov's dataserver CSV export), same
// "skip the metadata header lines, take the first CSV record" parse.
package weather

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flightbridge/liveatc/internal/ferrors"
	"github.com/flightbridge/liveatc/internal/pool"
)

const (
	workers  = 1
	endpoint = "https://aviationweather.gov/adds/dataserver_current/httpparam?dataSource=metars&requestType=retrieve&format=csv&hoursBeforeNow=2&mostRecent=true&stationString="
	// number of lines (provider metadata, then the CSV header row) skipped before the first record.
	headerLines = 5
)

// Result is a completed METAR fetch for one station.
type Result struct {
	Station string
	METAR   string
	Err     error
}

// Enricher fetches METAR text for a station id, on demand.
type Enricher struct {
	pool     *pool.Pool[string, Result]
	client   *http.Client
	endpoint string // overridable for tests; defaults to the real METAR data source
}

// New builds a single-worker weather enricher.
func New() *Enricher {
	e := &Enricher{
		pool:     pool.New[string, Result](workers),
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
	}
	e.pool.Run(e.handle)
	return e
}

// Request submits a station id for a METAR lookup. Safe to call
// repeatedly for the same station; no deduplication is performed.
func (e *Enricher) Request(station string) {
	e.pool.Submit(station)
}

// Poll returns one completed result, if available.
func (e *Enricher) Poll() (Result, bool) {
	return e.pool.Poll()
}

func (e *Enricher) handle(station string) Result {
	text, err := e.fetch(station)
	return Result{Station: station, METAR: text, Err: err}
}

func (e *Enricher) fetch(station string) (string, error) {
	base := e.endpoint
	if base == "" {
		base = endpoint
	}
	req, err := http.NewRequest(http.MethodGet, base+station, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building METAR request: %v", ferrors.TransportFailure, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetching METAR for %s: %v", ferrors.TransportFailure, station, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: METAR source returned %d", ferrors.TransportFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading METAR body: %v", ferrors.TransportFailure, err)
	}

	lines := strings.Split(string(body), "\n")
	if len(lines) <= headerLines {
		return "", fmt.Errorf("%w: no METAR for %s", ferrors.NotFound, station)
	}
	for _, line := range lines[headerLines:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) == 0 || fields[0] == "" {
			continue
		}
		return fields[0], nil
	}

	return "", fmt.Errorf("%w: no METAR for %s", ferrors.NotFound, station)
}
