package flightplan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightbridge/liveatc/internal/ferrors"
)

const bootstrapPage = `<html><script>
var trackpollBootstrap = ({"flights":{"UAL123-123":{"origin":{"icao":"KJFK","gate":"A1"},"destination":{"icao":"KLAX","gate":"B2"},"aircraft":{"type":"B738"},"flightPlan":{"speed":450,"altitude":36000,"route":"DCT"}}}});
</script></html>`

func TestParseBootstrapExtractsEmbeddedJSON(t *testing.T) {
	fp, err := parseBootstrap([]byte(bootstrapPage))
	require.NoError(t, err)

	assert.Equal(t, "KJFK", fp.OriginICAO)
	assert.Equal(t, "A1", fp.OriginGate)
	assert.Equal(t, "KLAX", fp.DestICAO)
	assert.Equal(t, "B738", fp.AircraftType)
	assert.Equal(t, 450, fp.SpeedKnots)
	assert.Equal(t, 36000, fp.AltitudeFeet)
	assert.Equal(t, "DCT", fp.Route)
}

func TestParseBootstrapNormalizesFlightLevelAltitude(t *testing.T) {
	page := `var trackpollBootstrap = ({"flights":{"X":{"origin":{"icao":"KJFK"},"destination":{"icao":"KLAX"},"aircraft":{"type":"B738"},"flightPlan":{"speed":300,"altitude":350,"route":"DCT"}}}});`
	fp, err := parseBootstrap([]byte(page))
	require.NoError(t, err)

	assert.Equal(t, 35000, fp.AltitudeFeet)
}

func TestParseBootstrapNoEmbeddedData(t *testing.T) {
	_, err := parseBootstrap([]byte("<html>nothing here</html>"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ParseFailure))
}

func TestParseBootstrapInvalidJSON(t *testing.T) {
	page := `var trackpollBootstrap = ({not valid json});`
	_, err := parseBootstrap([]byte(page))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ParseFailure))
}
