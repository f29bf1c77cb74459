package fsd

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flightbridge/liveatc/internal/snapshot"
)

func TestPackPBHOnlySetsHeadingBits(t *testing.T) {
	assert.Equal(t, 0, packPBH(0))
	// 180 degrees -> 512/1024 of the 10-bit range, shifted left 2.
	assert.Equal(t, 512<<2, packPBH(180))
	assert.Equal(t, (1024*90/360)<<2, packPBH(90))
}

func TestPositionLineFormat(t *testing.T) {
	line := positionLine("UAL123", "1234", 40.5, -74.25, 10000, 360, 90)
	assert.Equal(t, "@N:UAL123:1234:1:40.500000:-74.250000:10000:360:"+strconv.Itoa(packPBH(90))+":0\r\n", line)
}

func TestFlightRules(t *testing.T) {
	assert.Equal(t, "I", flightRules("UAL123"))
	assert.Equal(t, "V", flightRules("N12345"))
}

func TestInitialFPLineContainsHexRemark(t *testing.T) {
	snap := snapshot.AircraftSnapshot{Callsign: "UAL123", Model: "B738", Origin: "KJFK", Destination: "KLAX"}
	line := initialFPLine(snap, "A1B2C3")

	assert.Contains(t, line, "Hex A1B2C3")
	assert.Contains(t, line, "$FPUAL123::I:B738:0:KJFK:0:0:0:KLAX")
}

func TestRealFPLineIncludesGatesAndTimes(t *testing.T) {
	std := time.Date(2026, 7, 30, 14, 5, 0, 0, time.UTC)
	fp := snapshot.FlightPlan{
		OriginICAO: "KJFK", DestICAO: "KLAX", AircraftType: "B738",
		SpeedKnots: 450, AltitudeFeet: 36000, Route: "DCT",
		OriginGate: "A1", ScheduledDepart: &std,
	}
	line := realFPLine("UAL123", "A1B2C3", fp)

	assert.Contains(t, line, "$FPUAL123::I:B738:450:KJFK:0:0:36000:KLAX")
	assert.Contains(t, line, "STD 1405Z")
	assert.Contains(t, line, "Departure Gate A1")
	assert.Contains(t, line, ":DCT\r\n")
}

func TestBeaconCodeAndMETARLines(t *testing.T) {
	assert.Equal(t, "#PCSERVER:N123_OBS:CCP:BC:UAL123:2000\r\n", beaconCodeLine("N123_OBS", "UAL123", "2000"))
	assert.Equal(t, "$ARSERVER:N123_OBS:METAR:KJFK 301451Z\r\n", metarLine("N123_OBS", "KJFK 301451Z"))
}

func TestATCValidationVariants(t *testing.T) {
	assert.Equal(t, "$CRSERVER:N123_OBS:ATC:Y:N123_OBS\r\n", atcValidationWithTarget("N123_OBS"))
	assert.Equal(t, "$CRSERVER:UAL123:ATC:Y\r\n", atcValidationNoTarget("UAL123"))
}

func TestPlaneInfoLineOmitsAirlineWhenEmpty(t *testing.T) {
	assert.Equal(t, "#SBUAL123:N123_OBS:PI:GEN:EQUIPMENT=B738\r\n", planeInfoLine("UAL123", "N123_OBS", "B738", ""))
	assert.Equal(t, "#SBUAL123:N123_OBS:PI:GEN:EQUIPMENT=B738:UAL\r\n", planeInfoLine("UAL123", "N123_OBS", "B738", "UAL"))
}

func TestPositionIsStale(t *testing.T) {
	now := time.Now()
	assert.False(t, positionIsStale(now, now.Add(-10*time.Second)))
	assert.True(t, positionIsStale(now, now.Add(-20*time.Second)))
}
