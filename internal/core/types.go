package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// NoName is the name carried by a body whose source row had no name.
const NoName = "no name"

// UnknownDiameter returns the sentinel stored for a body with no measured diameter.
// It is NaN, so it never compares equal to a measured value (including 0).
func UnknownDiameter() float64 {
	return math.NaN()
}

// BodyRecord is one near-Earth object read from the tabular source.
// Records are immutable once constructed.
type BodyRecord struct {
	designation string
	name        string
	diameter    float64
	hazardous   bool
}

// NewBodyRecord builds a BodyRecord, normalizing an empty name to NoName.
// Pass UnknownDiameter() when the diameter was not measured.
func NewBodyRecord(designation, name string, diameter float64, hazardous bool) BodyRecord {
	name = strings.TrimSpace(name)
	if name == "" {
		name = NoName
	}
	return BodyRecord{
		designation: strings.TrimSpace(designation),
		name:        name,
		diameter:    diameter,
		hazardous:   hazardous,
	}
}

// Designation returns the primary designation of the body.
func (b BodyRecord) Designation() string { return b.designation }

// Name returns the body's name, or NoName.
func (b BodyRecord) Name() string { return b.name }

// HasName reports whether the source supplied a name.
func (b BodyRecord) HasName() bool { return b.name != NoName }

// Diameter returns the diameter in kilometers, or NaN if unknown.
func (b BodyRecord) Diameter() float64 { return b.diameter }

// DiameterKnown reports whether the diameter was measured.
func (b BodyRecord) DiameterKnown() bool { return !math.IsNaN(b.diameter) }

// Hazardous reports whether the body is flagged as potentially hazardous.
func (b BodyRecord) Hazardous() bool { return b.hazardous }

// FullName returns the designation followed by the name, if any.
func (b BodyRecord) FullName() string {
	if !b.HasName() {
		return b.designation
	}
	return fmt.Sprintf("%s (%s)", b.designation, b.name)
}

func (b BodyRecord) String() string {
	diameter := "unknown"
	if b.DiameterKnown() {
		diameter = fmt.Sprintf("%.3f km", b.diameter)
	}
	return fmt.Sprintf("NEO %s, diameter %s, hazardous=%t", b.FullName(), diameter, b.hazardous)
}

// bodyJSON is the wire shape of a BodyRecord. Sentinels become null.
type bodyJSON struct {
	Designation string   `json:"designation"`
	Name        *string  `json:"name"`
	DiameterKm  *float64 `json:"diameter_km"`
	Hazardous   bool     `json:"potentially_hazardous"`
}

// MarshalJSON encodes the record with null for a missing name or unknown diameter.
func (b BodyRecord) MarshalJSON() ([]byte, error) {
	out := bodyJSON{Designation: b.designation, Hazardous: b.hazardous}
	if b.HasName() {
		name := b.name
		out.Name = &name
	}
	if b.DiameterKnown() {
		d := b.diameter
		out.DiameterKm = &d
	}
	return json.Marshal(out)
}

// EventRecord is one close approach read from the structured source.
// Records are immutable once constructed.
type EventRecord struct {
	designation string
	time        string
	at          time.Time
	hasAt       bool
	distance    float64
	velocity    float64
}

// NewEventRecord builds an EventRecord. The timestamp is kept verbatim;
// a parsed form is attached when the text matches an unambiguous layout.
func NewEventRecord(designation, timestamp string, distance, velocity float64) EventRecord {
	timestamp = strings.TrimSpace(timestamp)
	at, ok := ParseApproachTime(timestamp)
	return EventRecord{
		designation: strings.TrimSpace(designation),
		time:        timestamp,
		at:          at,
		hasAt:       ok,
		distance:    distance,
		velocity:    velocity,
	}
}

// Designation returns the designation of the approaching body.
func (e EventRecord) Designation() string { return e.designation }

// Time returns the approach time as written in the source.
func (e EventRecord) Time() string { return e.time }

// At returns the parsed approach time in UTC, if the source text was parseable.
func (e EventRecord) At() (time.Time, bool) { return e.at, e.hasAt }

// Distance returns the nominal approach distance in astronomical units.
func (e EventRecord) Distance() float64 { return e.distance }

// Velocity returns the relative approach velocity in km/s.
func (e EventRecord) Velocity() float64 { return e.velocity }

func (e EventRecord) String() string {
	return fmt.Sprintf("At %s, %s approaches Earth at a distance of %.2f au and a velocity of %.2f km/s",
		e.time, e.designation, e.distance, e.velocity)
}

type eventJSON struct {
	Designation string     `json:"designation"`
	Time        string     `json:"time"`
	At          *time.Time `json:"datetime_utc,omitempty"`
	DistanceAU  float64    `json:"distance_au"`
	VelocityKmS float64    `json:"velocity_km_s"`
}

// MarshalJSON encodes the record; datetime_utc is omitted when the time was not parseable.
func (e EventRecord) MarshalJSON() ([]byte, error) {
	out := eventJSON{
		Designation: e.designation,
		Time:        e.time,
		DistanceAU:  e.distance,
		VelocityKmS: e.velocity,
	}
	if e.hasAt {
		at := e.at
		out.At = &at
	}
	return json.Marshal(out)
}

// BodyColumns names the CSV columns each BodyRecord field is read from.
type BodyColumns struct {
	Designation string
	Name        string
	Diameter    string
	Hazardous   string
}

// DefaultBodyColumns matches the column names of the published NEO CSV.
var DefaultBodyColumns = BodyColumns{
	Designation: "pdes",
	Name:        "name",
	Diameter:    "diameter",
	Hazardous:   "pha",
}

// EventColumns names the header fields each EventRecord field is read from.
type EventColumns struct {
	Designation string
	Time        string
	Distance    string
	Velocity    string
}

// DefaultEventColumns matches the field names of the close-approach API output.
var DefaultEventColumns = EventColumns{
	Designation: "des",
	Time:        "cd",
	Distance:    "dist",
	Velocity:    "v_rel",
}

// DefaultHazardTokens is the truthy set for the hazard flag column.
var DefaultHazardTokens = []string{"Y"}

// FieldWarning records a tabular field that was degraded to its default.
type FieldWarning struct {
	Line   int    `json:"line"`  // 1-indexed CSV line, header is line 1
	Field  string `json:"field"` // Column name in the source
	Value  string `json:"value"` // Raw value that failed coercion
	Reason string `json:"reason"`
}

func (w FieldWarning) String() string {
	return fmt.Sprintf("line %d: %s %q: %s", w.Line, w.Field, w.Value, w.Reason)
}

// BodyResult is the output of one tabular extraction.
type BodyResult struct {
	Records  []BodyRecord
	Warnings []FieldWarning
}

// EventResult is the output of one structured extraction.
type EventResult struct {
	Records  []EventRecord
	Rejected []*RowError
}

// Err joins every rejected row into one error, or returns nil.
func (r *EventResult) Err() error {
	if len(r.Rejected) == 0 {
		return nil
	}
	return joinRowErrors(r.Rejected)
}
