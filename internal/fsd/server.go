// Package fsd implements the FSD line-protocol session server: it
// accepts TCP connections on the loopback interface, drives the
// tracker's tick loop, and streams position/flight-plan/METAR lines to
// connected ATC clients while answering their queries.
//
// Grounded on the teacher's Dump1090Client (internal/adsb/dump1090.go)
// for the "own goroutine reads lines into a channel, main loop drains
// non-blockingly" idiom, generalized from a single outbound client
// connection to an inbound multi-client TCP server. The tick cadence,
// buffering countdown, and line-emission rules follow the original
// source's FsdServer (main.rs) event loop.
package fsd

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flightbridge/liveatc/internal/logging"
	"github.com/flightbridge/liveatc/internal/tracker"
	"github.com/flightbridge/liveatc/internal/weather"
)

const (
	// Addr is the loopback address and port the FSD server listens on (spec.md §4.7).
	Addr = "127.0.0.1:6809"

	tickInterval     = 10 * time.Millisecond
	positionInterval = 5 * time.Second
)

// client is one connected ATC client.
type client struct {
	id       uuid.UUID
	conn     net.Conn
	lines    chan string
	closed   chan struct{}
	identity string // the callsign this client identified itself as, via IsValidATC
}

func newClient(conn net.Conn) *client {
	c := &client{
		id:     uuid.New(),
		conn:   conn,
		lines:  make(chan string, 64),
		closed: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// readLoop feeds inbound lines into c.lines until the connection ends.
// This is what makes the main loop's drain non-blocking (spec.md §5's
// "TCP read (non-blocking)" suspension point).
func (c *client) readLoop() {
	defer close(c.closed)
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		default: // a slow consumer must never block this goroutine
		}
	}
}

func (c *client) write(line string) bool {
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := c.conn.Write([]byte(line))
	return err == nil
}

func (c *client) disconnected() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Server is the FSD session server. One Server instance is reused
// across sessions; the tracker and enrichers outlive any one session
// (spec.md §5's "background worker pools outlive the session").
type Server struct {
	listener net.Listener
	tracker  *tracker.Tracker
	weather  *weather.Enricher

	atcCallsign  string
	metarEnabled bool
	delay        time.Duration
}

// New builds a session server bound to an already-opened listener.
func New(ln net.Listener, trk *tracker.Tracker, wx *weather.Enricher, atcCallsign string, metarEnabled bool, delay time.Duration) *Server {
	return &Server{
		listener:     ln,
		tracker:      trk,
		weather:      wx,
		atcCallsign:  atcCallsign,
		metarEnabled: metarEnabled,
		delay:        delay,
	}
}

// Run accepts sessions forever until ctx is cancelled. Each session
// runs until every connected client has disconnected, after which the
// server waits for the next connection (spec.md §4.7: "the outer loop
// restarts and waits again").
func (s *Server) Run(ctx context.Context) error {
	accepted := make(chan net.Conn)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.acceptLoop(gctx, accepted)
	})
	g.Go(func() error {
		// Closing the listener unblocks Accept once ctx is cancelled.
		<-gctx.Done()
		s.listener.Close()
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case conn := <-accepted:
				s.runSession(gctx, conn, accepted)
			}
		}
	})

	return g.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, out chan<- net.Conn) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}
		select {
		case out <- conn:
		case <-ctx.Done():
			conn.Close()
			return ctx.Err()
		}
	}
}

// runSession handles one live FSD session from its first client
// through to the last client disconnecting.
func (s *Server) runSession(ctx context.Context, first net.Conn, accepted <-chan net.Conn) {
	clients := make(map[uuid.UUID]*client)

	c := newClient(first)
	c.write(greeting)
	clients[c.id] = c

	s.tracker.StartBuffering()
	sessionStart := time.Now()
	everHadClient := true
	lastPositionTick := time.Time{}

	logging.L().Info("fsd session started")

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case conn := <-accepted:
			nc := newClient(conn)
			nc.write(greeting)
			clients[nc.id] = nc
			everHadClient = true
		case <-ticker.C:
		}

		for id, cl := range clients {
			if cl.disconnected() {
				delete(clients, id)
			}
		}
		if len(clients) == 0 && everHadClient {
			logging.L().Info("fsd session ended, all clients disconnected")
			return
		}

		s.tracker.Tick()

		if s.tracker.IsBuffering() {
			elapsed := time.Since(sessionStart)
			if elapsed >= s.delay {
				s.tracker.StopBuffering()
				logging.L().Info("buffering complete, live traffic resumed")
			} else {
				logging.L().Debug("buffering", zap.Duration("remaining", s.delay-elapsed))
			}
		} else if time.Since(lastPositionTick) >= positionInterval {
			lastPositionTick = time.Now()
			s.emitTrackLines(clients)
		}

		s.drainWeather(clients)
		s.drainInbound(clients)
	}
}

// emitTrackLines emits one atomic block of lines (position, initial FP,
// real FP, beacon code) per track, broadcast to every connected client.
func (s *Server) emitTrackLines(clients map[uuid.UUID]*client) {
	now := time.Now()
	for _, track := range s.tracker.Tracks() {
		var block []string

		pos := track.Interp.GetNoUpdate()
		if !track.Latest.IsOnGround && !positionIsStale(now, track.LastPositionWall) {
			pos = track.Interp.Get(now)
		}
		block = append(block, positionLine(track.Latest.Callsign, track.Latest.Squawk,
			pos.Lat, pos.Lon, track.Latest.Altitude, track.Latest.GroundSpeed, track.Latest.Heading))

		if track.FlightPlan == nil {
			if !track.InitialFPSent || track.InitialFPOrigin != track.Latest.Origin || track.InitialFPDest != track.Latest.Destination {
				block = append(block, initialFPLine(track.Latest, track.Hex))
				track.InitialFPOrigin = track.Latest.Origin
				track.InitialFPDest = track.Latest.Destination
				track.InitialFPSent = true
			}
		} else if !track.FPSent {
			block = append(block, realFPLine(track.Latest.Callsign, track.Hex, *track.FlightPlan))
			if track.Latest.Squawk != "0000" {
				block = append(block, beaconCodeLine(s.atcCallsign, track.Latest.Callsign, track.Latest.Squawk))
			}
			track.FPSent = true
		}

		s.broadcast(clients, block)
	}
}

func (s *Server) drainWeather(clients map[uuid.UUID]*client) {
	if s.weather == nil {
		return
	}
	result, ok := s.weather.Poll()
	if !ok {
		return
	}
	if result.Err != nil {
		logging.L().Info("metar lookup failed", zap.String("station", result.Station), zap.Error(result.Err))
		return
	}
	s.broadcast(clients, []string{metarLine(s.atcCallsign, result.METAR)})
}

func (s *Server) drainInbound(clients map[uuid.UUID]*client) {
	for _, cl := range clients {
		for {
			select {
			case line := <-cl.lines:
				s.handleInbound(cl, line)
			default:
				goto next
			}
		}
	next:
	}
}

func (s *Server) handleInbound(cl *client, line string) {
	pkt := parseInbound(line)
	switch pkt.kind {
	case kindIsValidATC:
		cl.identity = pkt.from
		if containsUnderscore(pkt.from) {
			s.atcCallsign = pkt.from
		}
		if pkt.target != "" {
			cl.write(atcValidationWithTarget(pkt.target))
		} else {
			cl.write(atcValidationNoTarget(pkt.from))
		}

	case kindFlightPlanQuery:
		if cl.identity == "" {
			return // client must pass IsValidATC before any other query is honored
		}
		track, ok := s.tracker.TrackByCallsign(pkt.target)
		if ok && track.FlightPlan != nil {
			cl.write(realFPLine(track.Latest.Callsign, track.Hex, *track.FlightPlan))
		}

	case kindPlaneInfoRequest:
		if cl.identity == "" {
			return
		}
		track, ok := s.tracker.TrackByCallsign(pkt.to)
		if ok {
			cl.write(planeInfoLine(pkt.to, pkt.from, track.Latest.Model, ""))
		}

	case kindMETARRequest:
		if cl.identity == "" {
			return
		}
		if s.metarEnabled && s.weather != nil {
			s.weather.Request(pkt.target)
		}

	case kindUnknown:
		// silently ignored, per spec.md §6
	}
}

// broadcast writes every line in block to every client, dropping any
// client whose write fails (spec.md §4.7 step 7's retain-if-succeeded policy).
func (s *Server) broadcast(clients map[uuid.UUID]*client, block []string) {
	for id, cl := range clients {
		for _, line := range block {
			if !cl.write(line) {
				delete(clients, id)
				cl.conn.Close()
				break
			}
		}
	}
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
