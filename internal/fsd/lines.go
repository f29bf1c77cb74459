package fsd

import (
	"fmt"
	"strings"
	"time"

	"github.com/flightbridge/liveatc/internal/snapshot"
	"github.com/flightbridge/liveatc/internal/tracker"
)

const greeting = "$DISERVER:CLIENT:VATSIM FSD V3.14:\r\n"

// packPBH packs only the heading field into a PBH word, bits [11:2],
// pitch and bank left zero. The scaling (heading * 1024 / 360) and the
// <<2 shift must match byte-for-byte what a real FSD client expects
// (spec.md §9's "preserve this exact bit layout").
func packPBH(headingDeg int) int {
	h := (headingDeg * 1024 / 360) & 0x3FF
	return h << 2
}

// positionLine renders the @N position report for one track. lat/lon
// come from the interpolator (or the raw fix, see caller).
func positionLine(callsign, squawk string, lat, lon float64, altitude, groundSpeed, heading int) string {
	return fmt.Sprintf("@N:%s:%s:1:%.6f:%.6f:%d:%d:%d:0\r\n",
		callsign, squawk, lat, lon, altitude, groundSpeed, packPBH(heading))
}

// flightRules reports "I" for airline-patterned callsigns, "V" otherwise.
func flightRules(callsign string) string {
	if tracker.AirlinePattern.MatchString(callsign) {
		return "I"
	}
	return "V"
}

// initialFPLine renders the placeholder flight plan built straight off
// the latest snapshot, before any real flight plan has arrived.
func initialFPLine(snap snapshot.AircraftSnapshot, hex string) string {
	return fmt.Sprintf("$FP%s::%s:%s:0:%s:0:0:0:%s:0:0:0:0::/v/ Hex %s:\r\n",
		snap.Callsign, flightRules(snap.Callsign), snap.Model, snap.Origin, snap.Destination, hex)
}

// realFPLine renders the populated flight plan once the enricher has
// delivered one, including STD/STA and gate remarks when present.
func realFPLine(callsign, hex string, fp snapshot.FlightPlan) string {
	var remarks strings.Builder
	fmt.Fprintf(&remarks, "/v/ Hex %s", hex)
	if fp.ScheduledDepart != nil {
		fmt.Fprintf(&remarks, ", STD %s", fp.ScheduledDepart.UTC().Format("1504Z"))
	}
	if fp.ScheduledArrive != nil {
		fmt.Fprintf(&remarks, ", STA %s", fp.ScheduledArrive.UTC().Format("1504Z"))
	}
	if fp.OriginGate != "" {
		fmt.Fprintf(&remarks, ", Departure Gate %s", fp.OriginGate)
	}
	if fp.DestGate != "" {
		fmt.Fprintf(&remarks, ", Arrival Gate %s", fp.DestGate)
	}

	return fmt.Sprintf("$FP%s::I:%s:%d:%s:0:0:%d:%s:0:0:0:0::%s:%s\r\n",
		callsign, fp.AircraftType, fp.SpeedKnots, fp.OriginICAO, fp.AltitudeFeet, fp.DestICAO, remarks.String(), fp.Route)
}

// beaconCodeLine assigns a squawk code on behalf of the current ATC station.
func beaconCodeLine(atc, callsign, squawk string) string {
	return fmt.Sprintf("#PCSERVER:%s:CCP:BC:%s:%s\r\n", atc, callsign, squawk)
}

// metarLine broadcasts a METAR report on behalf of the current ATC station.
func metarLine(atc, text string) string {
	return fmt.Sprintf("$ARSERVER:%s:METAR:%s\r\n", atc, text)
}

// atcValidationWithTarget is the variant-A IsValidATC response, including the target callsign.
func atcValidationWithTarget(target string) string {
	return fmt.Sprintf("$CRSERVER:%s:ATC:Y:%s\r\n", target, target)
}

// atcValidationNoTarget is the variant-B IsValidATC response.
func atcValidationNoTarget(from string) string {
	return fmt.Sprintf("$CRSERVER:%s:ATC:Y\r\n", from)
}

// planeInfoLine answers a tower-view plane-info request. airline is
// appended only when known.
func planeInfoLine(from, to, model, airline string) string {
	if airline == "" {
		return fmt.Sprintf("#SB%s:%s:PI:GEN:EQUIPMENT=%s\r\n", from, to, model)
	}
	return fmt.Sprintf("#SB%s:%s:PI:GEN:EQUIPMENT=%s:%s\r\n", from, to, model, airline)
}

// positionIsStale reports whether a track's fix is too old to
// extrapolate and should be emitted as the raw last-known position
// instead (spec.md §4.7 step 4's "< 20s" clause).
func positionIsStale(now, lastPositionWall time.Time) bool {
	return now.Sub(lastPositionWall) >= 20*time.Second
}
