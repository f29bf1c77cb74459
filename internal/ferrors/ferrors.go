// Package ferrors defines the error taxonomy shared by providers,
// enrichers, and the config/session layers: TransportFailure,
// ParseFailure, NotFound, ConfigFailure, and IoFailure. Call sites wrap
// a sentinel with fmt.Errorf("...: %w", ErrX) and callers check with
// errors.Is.
package ferrors

import "errors"

var (
	// TransportFailure marks a network/HTTP-layer failure reaching a provider or enricher source.
	TransportFailure = errors.New("transport failure")
	// ParseFailure marks a payload that didn't match the shape a decoder expected.
	ParseFailure = errors.New("parse failure")
	// NotFound marks a query that has no answer (no flight plan filed, no METAR on file, etc).
	NotFound = errors.New("not found")
	// ConfigFailure marks a fatal startup-time configuration problem.
	ConfigFailure = errors.New("config failure")
	// IoFailure marks a socket or filesystem failure outside the above categories.
	IoFailure = errors.New("io failure")
)
