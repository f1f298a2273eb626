package core

// convert.go provides coercion from raw source text to record field values.
//
// Tabular fields degrade silently: a missing name becomes NoName, a missing or
// garbled diameter becomes UnknownDiameter(), an unrecognized hazard token is false.
// Event distance and velocity are strict and return an error instead.

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a plain decimal or scientific number.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// approachTimeLayouts are the timestamp layouts accepted as unambiguous.
// The first matches the close-approach API ("2020-Jan-01 12:43").
var approachTimeLayouts = []string{
	"2006-Jan-02 15:04",
	"2006-Jan-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	errEmpty      = errors.New("empty value")
	errNotNumeric = errors.New("not a number")
	errNotFinite  = errors.New("not a finite number")
)

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// ParseFloat converts a cleaned string to a finite float64.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	if !numericRegex.MatchString(s) {
		return 0, errNotNumeric
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotNumeric
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errNotFinite
	}
	return f, nil
}

// ToDiameter converts a diameter cell. Returns UnknownDiameter() and a reason
// when the value is missing or not numeric; reason is "" for an empty cell.
func ToDiameter(s string) (float64, string) {
	f, err := ParseFloat(s)
	switch {
	case err == nil:
		return f, ""
	case errors.Is(err, errEmpty):
		return UnknownDiameter(), ""
	default:
		return UnknownDiameter(), err.Error()
	}
}

// HazardParser maps a hazard-flag token to a boolean using an explicit truthy set.
// Tokens are compared exactly after trimming whitespace.
type HazardParser struct {
	truthy map[string]struct{}
}

// NewHazardParser builds a parser for the given truthy tokens.
// An empty list falls back to DefaultHazardTokens.
func NewHazardParser(tokens []string) HazardParser {
	if len(tokens) == 0 {
		tokens = DefaultHazardTokens
	}
	p := HazardParser{truthy: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			p.truthy[t] = struct{}{}
		}
	}
	return p
}

// Parse reports whether the token is in the truthy set.
func (p HazardParser) Parse(s string) bool {
	_, ok := p.truthy[strings.TrimSpace(s)]
	return ok
}

// ParseApproachTime parses an approach timestamp if it matches one of the
// accepted layouts. The result is in UTC.
func ParseApproachTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range approachTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// rawText renders a JSON cell as text. Strings are unquoted, numbers keep their
// literal form, null becomes "" with ok=false.
func rawText(raw json.RawMessage) (string, bool, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, fmt.Errorf("decode string: %w", err)
		}
		return s, true, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return trimmed, true, nil
	default:
		return trimmed, true, fmt.Errorf("unsupported value %s", trimmed)
	}
}
