// Package adsbx is a provider adapter in the shape of ADS-B Exchange's
// public aircraft feed. The real feed uses a binary "bincraft" tiled
// format (out of scope per spec.md §1 — "the concrete decoders of each
// provider's wire format" are external collaborators); this adapter
// wires the HTTP/rate-limit/error plumbing to a minimal JSON decoder
// standing in for that wire format, so the provider contract itself is
// exercised end-to-end.
//
// Grounded on the original source's AdsbExchange (adsbexchange/mod.rs)
// for the provider shape (bounds-scoped endpoint, provider tag) and on
// the teacher's Dump1090Client for "provider owns its own transport
// session" idiom.
package adsbx

import (
	"encoding/json"
	"fmt"

	"github.com/flightbridge/liveatc/internal/airportdb"
	"github.com/flightbridge/liveatc/internal/provider"
	"github.com/flightbridge/liveatc/internal/snapshot"
)

const name = "adsbexchange"

// wireAircraft is the minimal JSON shape this skeleton decoder expects;
// it is not a faithful rendering of the real bincraft protocol.
type wireAircraft struct {
	Hex      string  `json:"hex"`
	Flight   string  `json:"flight"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	AltBaro  int     `json:"alt_baro"`
	Track    int     `json:"track"`
	GS       int     `json:"gs"`
	Squawk   string  `json:"squawk"`
	AirGr    int     `json:"airground"` // 1 == on the ground, per the original source's `airground == 1` convention
	Type     string  `json:"t"`
	Time     int64   `json:"ts"`
}

type wirePayload struct {
	Aircraft []wireAircraft `json:"ac"`
}

func decode(body []byte) (map[string]snapshot.AircraftSnapshot, error) {
	var payload wirePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding adsbexchange payload: %w", err)
	}

	out := make(map[string]snapshot.AircraftSnapshot, len(payload.Aircraft))
	for _, a := range payload.Aircraft {
		if a.Hex == "" {
			continue
		}
		out[a.Hex] = snapshot.AircraftSnapshot{
			Hex:         a.Hex,
			Callsign:    a.Flight,
			Latitude:    a.Lat,
			Longitude:   a.Lon,
			Heading:     a.Track,
			GroundSpeed: a.GS,
			Altitude:    a.AltBaro,
			Squawk:      a.Squawk,
			IsOnGround:  a.AirGr == 1,
			Model:       a.Type,
			Timestamp:   a.Time,
		}
	}
	return out, nil
}

// New builds the adsbexchange-shaped provider scoped to bounds, polling
// the given endpoint (e.g. a self-hosted tar1090-style mirror). The
// real feed scopes requests via a computed tile-index set (see
// adsbexchange/mod.rs's global_indexes walk over the bounds grid);
// that tiling scheme is out of scope for this skeleton decoder, so
// bounds are passed through as a flat query parameter instead,
// mirroring flightradar.rs's simpler bounds-scoped query string.
func New(endpointURL string, bounds airportdb.Bounds) provider.Provider {
	scoped := fmt.Sprintf("%s&bounds=%.2f,%.2f,%.2f,%.2f", endpointURL, bounds.Lat1, bounds.Lat2, bounds.Lon1, bounds.Lon2)
	return provider.NewHTTPBase(name, scoped, 20, decode)
}
