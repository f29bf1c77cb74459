package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightbridge/liveatc/internal/ferrors"
	"github.com/flightbridge/liveatc/internal/snapshot"
)

func echoDecoder(body []byte) (map[string]snapshot.AircraftSnapshot, error) {
	return map[string]snapshot.AircraftSnapshot{
		"A1B2C3": {Hex: "A1B2C3", Callsign: string(body)},
	}, nil
}

func TestFetchTagsProviderAndDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("UAL123"))
	}))
	defer srv.Close()

	p := NewHTTPBase("test-provider", srv.URL, 600, echoDecoder)
	out, err := p.Fetch(context.Background())
	require.NoError(t, err)

	snap := out["A1B2C3"]
	assert.Equal(t, "UAL123", snap.Callsign)
	assert.Equal(t, "test-provider", snap.Provider)
}

func TestFetchNonOKStatusIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPBase("test-provider", srv.URL, 600, echoDecoder)
	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.TransportFailure))
}

func TestFetchDecodeErrorIsParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("whatever"))
	}))
	defer srv.Close()

	failingDecoder := func(body []byte) (map[string]snapshot.AircraftSnapshot, error) {
		return nil, errors.New("boom")
	}

	p := NewHTTPBase("test-provider", srv.URL, 600, failingDecoder)
	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ParseFailure))
}

func TestFetchRateLimitedReturnsEmptyNotError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	// 1 request per minute, burst 1: the first Fetch consumes the
	// token; an immediate second Fetch must short-circuit.
	p := NewHTTPBase("test-provider", srv.URL, 1, echoDecoder)

	_, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	out, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, calls)
}
