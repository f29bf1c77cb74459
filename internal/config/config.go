// Package config reads and writes the bridge's JSON configuration file.
//
// Grounded on the original source's ConfigData (main.rs) and expanded
// with the keys spec.md §6 documents plus a few additive knobs
// (atc_callsign, metar_enabled, log_level) that the distillation left
// silent on.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flightbridge/liveatc/internal/ferrors"
)

// Config is the on-disk configuration shape.
type Config struct {
	Airport        string `json:"airport"`
	RangeMiles     float64 `json:"range"`
	DelaySeconds   int     `json:"delay"`
	Floor          int     `json:"floor"`
	Ceiling        int     `json:"ceiling"`
	UseFlightAware bool    `json:"use_flightaware"`

	ATCCallsign  string `json:"atc_callsign"`
	MetarEnabled bool   `json:"metar_enabled"`
	LogLevel     string `json:"log_level"`
	LogFile      string `json:"log_file"`
}

// Default returns the configuration defaults specified in spec.md §6.
func Default() Config {
	return Config{
		Airport:        "",
		RangeMiles:     30,
		DelaySeconds:   0,
		Floor:          0,
		Ceiling:        99999,
		UseFlightAware: true,
		ATCCallsign:    "",
		MetarEnabled:   true,
		LogLevel:       "info",
		LogFile:        "",
	}
}

// Load reads the config file at path. If it doesn't exist, it is created
// with defaults and the defaults are returned (spec.md §6: "a missing
// file is created with defaults").
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if werr := Save(path, cfg); werr != nil {
			return cfg, fmt.Errorf("%w: creating default config at %s: %v", ferrors.ConfigFailure, path, werr)
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading %s: %v", ferrors.ConfigFailure, path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s is not valid JSON: %v", ferrors.ConfigFailure, path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding config: %v", ferrors.ConfigFailure, err)
	}
	return os.WriteFile(path, data, 0o644)
}
