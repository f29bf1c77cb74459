// Command liveatc runs the live-traffic FSD bridge: it polls public
// flight-tracking feeds for aircraft near a configured airport and
// serves them to a simulator ATC client as if it were a multiplayer
// network.
//
// Grounded on the teacher's main.go for the overall "validate flags,
// initialize subsystems in dependency order, fail loudly" shape, and on
// the original source's main.rs for the config.json filename and the
// specific startup sequence (config -> airport DB -> bounds -> tracker
// -> FSD listener).
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flightbridge/liveatc/internal/airportdb"
	"github.com/flightbridge/liveatc/internal/config"
	"github.com/flightbridge/liveatc/internal/flightplan"
	"github.com/flightbridge/liveatc/internal/fsd"
	"github.com/flightbridge/liveatc/internal/logging"
	"github.com/flightbridge/liveatc/internal/provider"
	"github.com/flightbridge/liveatc/internal/provider/adsbx"
	"github.com/flightbridge/liveatc/internal/provider/flightradar"
	"github.com/flightbridge/liveatc/internal/tracker"
	"github.com/flightbridge/liveatc/internal/weather"
)

const (
	configFilename = "config.json"
	airportDBPath  = "airports.csv"

	// Placeholder feed endpoints: the concrete provider wire format is
	// out of scope (spec.md §1); these point at whatever mirror a
	// deployment configures its adapters against.
	adsbxEndpoint       = "http://localhost:8080/data/aircraft.json"
	flightradarEndpoint = "http://localhost:8081/aircraft.json"
)

func main() {
	if err := run(); err != nil {
		fail(err)
	}
}

func run() error {
	cfg, err := config.Load(configFilename)
	if err != nil {
		return err
	}

	if err := logging.Init(logging.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile}); err != nil {
		return err
	}
	defer logging.L().Sync()

	logging.L().Info("liveatc starting", zap.String("airport", cfg.Airport), zap.Float64("range_mi", cfg.RangeMiles))

	if cfg.Airport == "" {
		return fmt.Errorf("config.json: \"airport\" must be set to an ICAO identifier")
	}

	db, err := airportdb.Load(airportDBPath)
	if err != nil {
		return err
	}

	bounds, err := db.BoundsFromRadius(cfg.Airport, cfg.RangeMiles)
	if err != nil {
		return err
	}

	providers := []provider.Provider{
		adsbx.New(adsbxEndpoint, bounds),
		flightradar.New(flightradarEndpoint, bounds),
	}

	var fp *flightplan.Enricher
	if cfg.UseFlightAware {
		fp = flightplan.New()
	}
	wx := weather.New()

	trk := tracker.New(providers, cfg.Floor, cfg.Ceiling, fp,
		tracker.WithFlightAware(cfg.UseFlightAware), tracker.WithBounds(bounds))

	ln, err := net.Listen("tcp", fsd.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", fsd.Addr, err)
	}
	defer ln.Close()
	logging.L().Info("listening for ATC clients", zap.String("addr", fsd.Addr))

	metarEnabled := cfg.MetarEnabled
	if !metarEnabled {
		wx = nil
	}
	server := fsd.New(ln, trk, wx, cfg.ATCCallsign, metarEnabled, time.Duration(cfg.DelaySeconds)*time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}

// fail implements spec.md §7's fatal-startup-error policy: show a
// message, wait for a keystroke, exit non-zero.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "liveatc: fatal: %v\n", err)
	fmt.Fprintln(os.Stderr, "Press Enter to exit...")
	bufio.NewReader(os.Stdin).ReadString('\n')
	os.Exit(1)
}
