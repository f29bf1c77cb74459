// Package airportdb is the opaque airport-database collaborator spec.md
// §6 describes: it loads an OurAirports-shaped CSV and answers
// bounds_from_radius(icao, miles) and icao_from_iata(code) queries.
// Loading and parsing the CSV itself is out of scope for the tracker
// core (spec.md §1); this package exists only so the core has a
// concrete type to depend on.
//
// Grounded on the teacher's geo.AirportLoader (internal/geo/airports.go),
// adapted from "load airports as map-rendering Features" to "load
// airports as a lat/lon/ICAO/IATA lookup table", and on the original
// source's airports.rs Airports/get_bounds_from_radius for the exact
// (non-cosine-corrected) bounds formula spec.md §3/§9 specifies.
package airportdb

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/flightbridge/liveatc/internal/ferrors"
)

// Bounds is the radar rectangle: two opposite corners in decimal degrees.
type Bounds struct {
	Lat1 float64
	Lon1 float64
	Lat2 float64
	Lon2 float64
}

// Contains reports whether (lat, lon) falls within the rectangle,
// regardless of which corners were given as 1 vs 2.
func (b Bounds) Contains(lat, lon float64) bool {
	minLat, maxLat := math.Min(b.Lat1, b.Lat2), math.Max(b.Lat1, b.Lat2)
	minLon, maxLon := math.Min(b.Lon1, b.Lon2), math.Max(b.Lon1, b.Lon2)
	return lat >= minLat && lat <= maxLat && lon >= minLon && lon <= maxLon
}

const (
	milesPerDegreeLat = 69.0
	milesPerDegreeLon = 54.6
)

type airport struct {
	icao string
	iata string
	lat  float64
	lon  float64
}

// DB is an in-memory airport lookup table.
type DB struct {
	byICAO map[string]airport
	byIATA map[string]string // IATA -> ICAO
	// CosineCorrected, when true, scales the longitude conversion by
	// cos(latitude) instead of using the fixed 54.6 mi/deg constant.
	// Off by default to match spec.md §9's deliberate simplification.
	CosineCorrected bool
}

// Load reads an OurAirports-shaped CSV (columns: ident, iata_code,
// latitude_deg, longitude_deg, among others) from path.
func Load(path string) (*DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening airport db %s: %v", ferrors.IoFailure, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading airport db header: %v", ferrors.ParseFailure, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	required := []string{"ident", "iata_code", "latitude_deg", "longitude_deg"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: airport db missing column %q", ferrors.ParseFailure, name)
		}
	}

	db := &DB{
		byICAO: make(map[string]airport),
		byIATA: make(map[string]string),
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		icao := strings.ToUpper(strings.TrimSpace(rec[col["ident"]]))
		if icao == "" {
			continue
		}
		lat, err := strconv.ParseFloat(rec[col["latitude_deg"]], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(rec[col["longitude_deg"]], 64)
		if err != nil {
			continue
		}
		iata := strings.ToUpper(strings.TrimSpace(rec[col["iata_code"]]))

		a := airport{icao: icao, iata: iata, lat: lat, lon: lon}
		db.byICAO[icao] = a
		if iata != "" {
			db.byIATA[iata] = icao
		}
	}

	return db, nil
}

// ICAOFromIATA resolves a 3-letter IATA code to its ICAO identifier.
func (db *DB) ICAOFromIATA(code string) (string, bool) {
	icao, ok := db.byIATA[strings.ToUpper(code)]
	return icao, ok
}

// BoundsFromRadius computes the radar rectangle around icao's published
// location for the given radius in miles.
func (db *DB) BoundsFromRadius(icao string, miles float64) (Bounds, error) {
	a, ok := db.byICAO[strings.ToUpper(icao)]
	if !ok {
		return Bounds{}, fmt.Errorf("%w: unknown airport %q", ferrors.NotFound, icao)
	}

	latOffset := miles / milesPerDegreeLat
	lonPerDeg := milesPerDegreeLon
	if db.CosineCorrected {
		lonPerDeg = milesPerDegreeLat * math.Cos(a.lat*math.Pi/180.0)
		if lonPerDeg == 0 {
			lonPerDeg = milesPerDegreeLon
		}
	}
	lonOffset := miles / lonPerDeg

	return Bounds{
		Lat1: a.lat + latOffset,
		Lon1: a.lon - lonOffset,
		Lat2: a.lat - latOffset,
		Lon2: a.lon + lonOffset,
	}, nil
}
