// Package flightradar is a provider adapter in the shape of
// FlightRadar24's public JSON feed, which historically returns aircraft
// as heterogeneous positional arrays keyed by a flight id. The real
// feed's parsing quirks (and its occasional habit of putting the
// aircraft type code where a callsign belongs) are out of scope per
// spec.md §1; this adapter wires a minimal stand-in decoder.
//
// Grounded on the original source's FlightRadar provider (flightradar.rs).
package flightradar

import (
	"encoding/json"
	"fmt"

	"github.com/flightbridge/liveatc/internal/airportdb"
	"github.com/flightbridge/liveatc/internal/provider"
	"github.com/flightbridge/liveatc/internal/snapshot"
)

const name = "flightradar24"

// wireRecord mirrors the handful of fields this skeleton decoder reads
// from what upstream calls a "full" entry; the real feed is a
// positional JSON array per aircraft, not an object, which is part of
// why its decoder is treated as opaque provider-internal detail.
type wireRecord struct {
	Hex         string  `json:"hex"`
	Callsign    string  `json:"callsign"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Heading     int     `json:"heading"`
	Speed       int     `json:"speed"`
	Altitude    int     `json:"altitude"`
	Squawk      string  `json:"squawk"`
	OnGround    bool    `json:"on_ground"`
	Model       string  `json:"model"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Timestamp   int64   `json:"timestamp"`
}

func decode(body []byte) (map[string]snapshot.AircraftSnapshot, error) {
	var records map[string]wireRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding flightradar payload: %w", err)
	}

	out := make(map[string]snapshot.AircraftSnapshot, len(records))
	for _, r := range records {
		if r.Hex == "" {
			continue
		}
		out[r.Hex] = snapshot.AircraftSnapshot{
			Hex:         r.Hex,
			Callsign:    r.Callsign,
			Latitude:    r.Lat,
			Longitude:   r.Lon,
			Heading:     r.Heading,
			GroundSpeed: r.Speed,
			Altitude:    r.Altitude,
			Squawk:      r.Squawk,
			IsOnGround:  r.OnGround,
			Model:       r.Model,
			Origin:      r.Origin,
			Destination: r.Destination,
			Timestamp:   r.Timestamp,
		}
	}
	return out, nil
}

// New builds the flightradar24-shaped provider scoped to bounds. The
// bounds are appended as a query parameter in the same order
// flightradar.rs's get_aircraft() builds its request
// ("&bounds=lat1,lat2,lon1,lon2").
func New(endpointURL string, bounds airportdb.Bounds) provider.Provider {
	scoped := fmt.Sprintf("%s&bounds=%.2f,%.2f,%.2f,%.2f", endpointURL, bounds.Lat1, bounds.Lat2, bounds.Lon1, bounds.Lon2)
	return provider.NewHTTPBase(name, scoped, 20, decode)
}
