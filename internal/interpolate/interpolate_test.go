package interpolate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIdempotentAtZeroDelta(t *testing.T) {
	now := time.Now()
	p := New(40.0, -74.0, 90, 360, now)

	got := p.Get(now)
	assert.InDelta(t, 40.0, got.Lat, 1e-6)
	assert.InDelta(t, -74.0, got.Lon, 1e-6)
}

func TestGetHeadingEastIncreasesLongitude(t *testing.T) {
	now := time.Now()
	p := New(40.0, -74.0, 90, 360, now)

	got := p.Get(now.Add(5 * time.Second))
	assert.InDelta(t, 40.0, got.Lat, 1e-6)
	assert.Greater(t, got.Lon, -74.0)
	// 360 kn for 5s covers 0.5 nm; at 54.6 mi/deg that's about 0.00916 deg east.
	assert.InDelta(t, 0.00916, got.Lon-(-74.0), 1e-3)
}

func TestGetHeadingNorthIncreasesLatitude(t *testing.T) {
	now := time.Now()
	p := New(40.0, -74.0, 0, 180, now)

	got := p.Get(now.Add(1 * time.Hour))
	assert.Greater(t, got.Lat, 40.0)
	assert.InDelta(t, -74.0, got.Lon, 1e-6)
}

func TestGetClampsNegativeElapsed(t *testing.T) {
	now := time.Now()
	p := New(40.0, -74.0, 90, 360, now)

	got := p.Get(now.Add(-10 * time.Second))
	assert.InDelta(t, 40.0, got.Lat, 1e-6)
	assert.InDelta(t, -74.0, got.Lon, 1e-6)
}

func TestGetNoUpdateReturnsCachedWithoutAdvancing(t *testing.T) {
	now := time.Now()
	p := New(40.0, -74.0, 90, 360, now)

	first := p.Get(now.Add(5 * time.Second))
	cached := p.GetNoUpdate()
	assert.Equal(t, first, cached)

	// advancing wall clock further must not change GetNoUpdate's result
	// until Get is called again.
	again := p.GetNoUpdate()
	assert.Equal(t, first, again)
}

func TestVelocityMagnitudeScalesWithSpeed(t *testing.T) {
	now := time.Now()
	slow := New(0, 0, 45, 100, now)
	fast := New(0, 0, 45, 200, now)

	slowPos := slow.Get(now.Add(time.Hour))
	fastPos := fast.Get(now.Add(time.Hour))

	assert.Less(t, math.Abs(slowPos.Lat), math.Abs(fastPos.Lat))
}
