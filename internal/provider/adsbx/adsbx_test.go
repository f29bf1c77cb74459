package adsbx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePayload = `{"ac":[
	{"hex":"a1b2c3","flight":"UAL123 ","lat":40.0,"lon":-74.0,"alt_baro":10000,"track":90,"gs":360,"squawk":"1234","airground":0,"t":"B738","ts":1000},
	{"hex":"d4e5f6","flight":"","lat":0,"lon":0,"alt_baro":0,"track":0,"gs":0,"squawk":"0000","airground":1,"t":"","ts":0}
]}`

func TestDecodeMapsFields(t *testing.T) {
	out, err := decode([]byte(fixturePayload))
	require.NoError(t, err)
	require.Len(t, out, 2)

	snap := out["a1b2c3"]
	assert.Equal(t, "UAL123 ", snap.Callsign)
	assert.Equal(t, 10000, snap.Altitude)
	assert.Equal(t, 90, snap.Heading)
	assert.False(t, snap.IsOnGround)

	ground := out["d4e5f6"]
	assert.True(t, ground.IsOnGround)
}

func TestDecodeSkipsRecordsWithoutHex(t *testing.T) {
	out, err := decode([]byte(`{"ac":[{"hex":"","flight":"X"}]}`))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := decode([]byte("not json"))
	assert.Error(t, err)
}
