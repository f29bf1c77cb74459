package weather

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSkipsHeaderLinesAndReturnsFirstField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No errors\nquery\ndata\n1\nraw_text,station_id\nKJFK 301451Z 05005KT 10SM CLR 24/18 A3000,KJFK\n"))
	}))
	defer srv.Close()

	e := &Enricher{client: &http.Client{Timeout: time.Second}, endpoint: srv.URL + "?station="}
	text, err := e.fetch("KJFK")
	require.NoError(t, err)
	assert.Equal(t, "KJFK 301451Z 05005KT 10SM CLR 24/18 A3000", text)
}

func TestFetchNotFoundWhenBodyHasOnlyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a\nb\nc\nd\ne\n"))
	}))
	defer srv.Close()

	e := &Enricher{client: &http.Client{Timeout: time.Second}, endpoint: srv.URL + "?station="}
	_, err := e.fetch("KJFK")
	assert.Error(t, err)
}

func TestRequestAndPollRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a\nb\nc\nd\ne\nKJFK 301451Z,KJFK\n"))
	}))
	defer srv.Close()

	e := New()
	e.endpoint = srv.URL + "?station="
	e.Request("KJFK")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r, ok := e.Poll(); ok {
			assert.Equal(t, "KJFK", r.Station)
			assert.Equal(t, "KJFK 301451Z", r.METAR)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for result")
}
