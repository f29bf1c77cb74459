package fsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIsValidATCWithTarget(t *testing.T) {
	pkt := parseInbound("$CQUAL123:SERVER:ATC:N123_OBS\r\n")
	assert.Equal(t, kindIsValidATC, pkt.kind)
	assert.Equal(t, "UAL123", pkt.from)
	assert.Equal(t, "N123_OBS", pkt.target)
}

func TestParseIsValidATCWithoutTarget(t *testing.T) {
	pkt := parseInbound("$CQUAL123:SERVER:ATC:\r\n")
	assert.Equal(t, kindIsValidATC, pkt.kind)
	assert.Equal(t, "UAL123", pkt.from)
	assert.Equal(t, "", pkt.target)
}

func TestParseFlightPlanQuery(t *testing.T) {
	pkt := parseInbound("$CQN123_OBS:SERVER:FP:UAL123")
	assert.Equal(t, kindFlightPlanQuery, pkt.kind)
	assert.Equal(t, "UAL123", pkt.target)
}

func TestParseMETARRequest(t *testing.T) {
	pkt := parseInbound("$CQN123_OBS:SERVER:METAR:KJFK")
	assert.Equal(t, kindMETARRequest, pkt.kind)
	assert.Equal(t, "KJFK", pkt.target)
}

func TestParsePlaneInfoRequest(t *testing.T) {
	pkt := parseInbound("#SBN123_OBS:UAL123:PIR")
	assert.Equal(t, kindPlaneInfoRequest, pkt.kind)
	assert.Equal(t, "N123_OBS", pkt.from)
	assert.Equal(t, "UAL123", pkt.to)
}

func TestParseUnknownLineIgnored(t *testing.T) {
	assert.Equal(t, kindUnknown, parseInbound("garbage\r\n").kind)
	assert.Equal(t, kindUnknown, parseInbound("").kind)
	assert.Equal(t, kindUnknown, parseInbound("#SBfoo:bar:OTHER").kind)
}
