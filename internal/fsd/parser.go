package fsd

import "strings"

// inboundKind identifies which of the supported query shapes a parsed
// line represents. Unrecognised lines parse to kindUnknown and are
// silently dropped by the caller (spec.md §6: "unknown lines are
// silently ignored").
type inboundKind int

const (
	kindUnknown inboundKind = iota
	kindIsValidATC
	kindFlightPlanQuery
	kindPlaneInfoRequest
	kindMETARRequest
)

// inbound is one parsed client query line.
type inbound struct {
	kind inboundKind

	from   string
	to     string
	target string // ATC query subject, or the callsign/station being asked about
}

// parseInbound recognises the small set of client query shapes this
// bridge answers (spec.md §4.7 step 6). The wire dialect is a
// simplified "client query" form (`$CQ` / `#SB`) in the spirit of the
// real FSD protocol's packet prefixes; the full protocol's parser is
// explicitly out of scope (spec.md §1).
func parseInbound(line string) inbound {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return inbound{kind: kindUnknown}
	}

	switch {
	case strings.HasPrefix(line, "$CQ"):
		return parseClientQuery(line[len("$CQ"):])
	case strings.HasPrefix(line, "#SB"):
		return parsePlaneInfoRequest(line[len("#SB"):])
	default:
		return inbound{kind: kindUnknown}
	}
}

// parseClientQuery handles "$CQ<from>:SERVER:<subtype>:<data>".
func parseClientQuery(rest string) inbound {
	fields := strings.SplitN(rest, ":", 4)
	if len(fields) < 3 {
		return inbound{kind: kindUnknown}
	}
	from := fields[0]
	subtype := fields[2]
	data := ""
	if len(fields) == 4 {
		data = fields[3]
	}

	switch subtype {
	case "ATC":
		return inbound{kind: kindIsValidATC, from: from, target: data}
	case "FP":
		return inbound{kind: kindFlightPlanQuery, from: from, target: data}
	case "METAR":
		return inbound{kind: kindMETARRequest, from: from, target: data}
	default:
		return inbound{kind: kindUnknown}
	}
}

// parsePlaneInfoRequest handles "#SB<from>:<to>:PIR".
func parsePlaneInfoRequest(rest string) inbound {
	fields := strings.SplitN(rest, ":", 3)
	if len(fields) < 3 || fields[2] != "PIR" {
		return inbound{kind: kindUnknown}
	}
	return inbound{kind: kindPlaneInfoRequest, from: fields[0], to: fields[1]}
}
