package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// EventExtractor reads close approaches from a JSON object with a "fields"
// header and a "data" array of positional rows.
// The zero value uses DefaultEventColumns and is safe for concurrent use.
type EventExtractor struct {
	Columns EventColumns
	// Strict aborts the extraction on the first invalid row instead of
	// excluding it and continuing.
	Strict bool
	Logger *slog.Logger
}

// cadDocument holds the two members the extractor reads. Pointers
// distinguish an absent member from an empty one.
type cadDocument struct {
	Fields *[]string          `json:"fields"`
	Data   *[]json.RawMessage `json:"data"`
}

// eventOffsets is the resolved position of each required column in a data row.
type eventOffsets struct {
	designation int
	time        int
	distance    int
	velocity    int
}

func (o eventOffsets) max() int {
	return max(o.designation, o.time, o.distance, o.velocity)
}

// ExtractEvents reads every data row of the JSON file at path with the default
// column mapping. Rows that cannot be converted are left out; the returned error
// then joins one *RowError per excluded row while the good records are still returned.
// File and structural problems return no records.
func ExtractEvents(path string) ([]EventRecord, error) {
	res, err := (&EventExtractor{}).Extract(path)
	if err != nil {
		return nil, err
	}
	return res.Records, res.Err()
}

// Extract reads the JSON file at path and returns one record per valid data row,
// in file order. Invalid rows are listed in EventResult.Rejected, unless Strict
// is set, in which case the first one is returned as the error.
func (x *EventExtractor) Extract(path string) (*EventResult, error) {
	start := time.Now()
	logger := x.logger().With("source", "cad", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer f.Close()

	src, counter := wrapSource(f, false)

	dec := json.NewDecoder(src)
	var doc cadDocument
	if err := dec.Decode(&doc); err != nil {
		if isDecodeError(err) {
			return nil, &StructuralError{Path: path, Msg: fmt.Sprintf("invalid json: %v", err)}
		}
		return nil, &FileError{Path: path, Err: err}
	}
	// Only whitespace may follow the document.
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err != nil && !isDecodeError(err) {
			return nil, &FileError{Path: path, Err: err}
		}
		return nil, &StructuralError{Path: path, Msg: "invalid json: trailing data after document"}
	}

	var missingMembers []string
	if doc.Fields == nil {
		missingMembers = append(missingMembers, "fields")
	}
	if doc.Data == nil {
		missingMembers = append(missingMembers, "data")
	}
	if len(missingMembers) > 0 {
		return nil, &StructuralError{Path: path, Missing: missingMembers, Msg: reasonMemberAbsent}
	}

	offsets, serr := x.resolveOffsets(*doc.Fields)
	if serr != nil {
		serr.Path = path
		return nil, serr
	}

	rows := *doc.Data
	res := &EventResult{Records: make([]EventRecord, 0, len(rows))}
	cols := x.columns()

	for i, raw := range rows {
		rec, rowErr := buildEvent(raw, offsets, cols, i+1)
		if rowErr != nil {
			if x.Strict {
				return nil, rowErr
			}
			logger.Warn("excluding close approach row", "row", rowErr.Line, "field", rowErr.Field, "error", rowErr.Msg)
			res.Rejected = append(res.Rejected, rowErr)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	logger.Info("json extracted",
		"records", len(res.Records),
		"rejected", len(res.Rejected),
		"bytes", counter.BytesRead,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// resolveOffsets scans the header once and maps each required column to its position.
func (x *EventExtractor) resolveOffsets(fields []string) (eventOffsets, *StructuralError) {
	idx := MakeHeaderIndex(fields)
	cols := x.columns()

	if missing := idx.Missing(cols.Designation, cols.Time, cols.Distance, cols.Velocity); len(missing) > 0 {
		return eventOffsets{}, &StructuralError{Missing: missing, Msg: reasonColumnAbsent}
	}

	var o eventOffsets
	o.designation, _ = idx.Lookup(cols.Designation)
	o.time, _ = idx.Lookup(cols.Time)
	o.distance, _ = idx.Lookup(cols.Distance)
	o.velocity, _ = idx.Lookup(cols.Velocity)
	return o, nil
}

// buildEvent converts one positional data row. Distance and velocity must be
// numeric; designation and time are taken as text.
func buildEvent(raw json.RawMessage, o eventOffsets, cols EventColumns, line int) (EventRecord, *RowError) {
	var row []json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		return EventRecord{}, &RowError{Line: line, Msg: "row is not an array"}
	}
	if len(row) <= o.max() {
		return EventRecord{}, &RowError{Line: line, Msg: fmt.Sprintf("row has %d values, need at least %d", len(row), o.max()+1)}
	}

	designation, _, err := rawText(row[o.designation])
	if err != nil {
		return EventRecord{}, &RowError{Line: line, Field: cols.Designation, Value: string(row[o.designation]), Msg: err.Error()}
	}
	timestamp, _, err := rawText(row[o.time])
	if err != nil {
		return EventRecord{}, &RowError{Line: line, Field: cols.Time, Value: string(row[o.time]), Msg: err.Error()}
	}

	distance, rowErr := requiredFloat(row[o.distance], cols.Distance, line)
	if rowErr != nil {
		return EventRecord{}, rowErr
	}
	velocity, rowErr := requiredFloat(row[o.velocity], cols.Velocity, line)
	if rowErr != nil {
		return EventRecord{}, rowErr
	}

	return NewEventRecord(designation, timestamp, distance, velocity), nil
}

func requiredFloat(raw json.RawMessage, field string, line int) (float64, *RowError) {
	text, ok, err := rawText(raw)
	if err != nil {
		return 0, &RowError{Line: line, Field: field, Value: string(raw), Msg: err.Error()}
	}
	if !ok {
		return 0, &RowError{Line: line, Field: field, Msg: "missing value"}
	}
	f, err := ParseFloat(text)
	if err != nil {
		return 0, &RowError{Line: line, Field: field, Value: text, Msg: err.Error()}
	}
	return f, nil
}

func (x *EventExtractor) columns() EventColumns {
	c := x.Columns
	d := DefaultEventColumns
	if c.Designation == "" {
		c.Designation = d.Designation
	}
	if c.Time == "" {
		c.Time = d.Time
	}
	if c.Distance == "" {
		c.Distance = d.Distance
	}
	if c.Velocity == "" {
		c.Velocity = d.Velocity
	}
	return c
}

func (x *EventExtractor) logger() *slog.Logger {
	if x.Logger != nil {
		return x.Logger
	}
	return slog.Default()
}

// isDecodeError reports whether err comes from malformed JSON rather than from reading the file.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
