package core

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"
)

// BodyExtractor reads near-Earth objects from a CSV file.
// The zero value uses DefaultBodyColumns and DefaultHazardTokens.
// A BodyExtractor holds no per-call state and is safe for concurrent use.
type BodyExtractor struct {
	Columns      BodyColumns
	HazardTokens []string
	Logger       *slog.Logger
}

// ExtractBodies reads every data row of the CSV at path with the default
// column mapping. Only file access problems return an error.
func ExtractBodies(path string) ([]BodyRecord, error) {
	res, err := (&BodyExtractor{}).Extract(path)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Extract reads the CSV at path and returns one record per data row, in file order.
// Per-field problems are degraded to defaults and reported in BodyResult.Warnings.
func (x *BodyExtractor) Extract(path string) (*BodyResult, error) {
	start := time.Now()
	logger := x.logger().With("source", "neo", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer f.Close()

	src, counter := wrapSource(f, true)
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	cols := x.columns()
	hazard := NewHazardParser(x.HazardTokens)
	res := &BodyResult{}

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		logger.Warn("csv file is empty")
		return res, nil
	}
	if err != nil && !isParseError(err) {
		return nil, &FileError{Path: path, Err: err}
	}
	idx := MakeHeaderIndex(header)

	if missing := idx.Missing(cols.Designation, cols.Name, cols.Diameter, cols.Hazardous); len(missing) > 0 {
		logger.Warn("csv header is missing mapped columns, values will default", "missing", missing)
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line := len(res.Records) + 2
		if err != nil {
			if !isParseError(err) {
				return nil, &FileError{Path: path, Err: err}
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			logger.Debug("unparseable csv row, emitting defaulted record", "line", line, "error", err)
			res.Warnings = append(res.Warnings, FieldWarning{Line: line, Reason: "unparseable row: " + err.Error()})
			res.Records = append(res.Records, NewBodyRecord("", "", UnknownDiameter(), false))
			continue
		}
		if pos, _ := r.FieldPos(0); pos > 0 {
			line = pos
		}

		rec, warns := x.buildBody(row, idx, cols, hazard, line)
		for _, w := range warns {
			logger.Debug("field degraded to default", "line", w.Line, "field", w.Field, "value", w.Value, "reason", w.Reason)
		}
		res.Warnings = append(res.Warnings, warns...)
		res.Records = append(res.Records, rec)
	}

	logger.Info("csv extracted",
		"records", len(res.Records),
		"warnings", len(res.Warnings),
		"bytes", counter.BytesRead,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// buildBody maps one CSV row to a BodyRecord. It never fails: each field falls
// back to its default and the fallback is reported as a warning.
func (x *BodyExtractor) buildBody(row []string, idx HeaderIndex, cols BodyColumns, hazard HazardParser, line int) (BodyRecord, []FieldWarning) {
	var warns []FieldWarning

	designation, _ := idx.Cell(row, cols.Designation)
	designation = CleanCell(designation)
	if designation == "" {
		warns = append(warns, FieldWarning{Line: line, Field: cols.Designation, Reason: "missing designation"})
	}

	// Names keep leading quotes and symbols ('Oumuamua).
	name, _ := idx.Cell(row, cols.Name)

	rawDiameter, _ := idx.Cell(row, cols.Diameter)
	rawDiameter = CleanCell(rawDiameter)
	diameter, reason := ToDiameter(rawDiameter)
	if reason != "" {
		warns = append(warns, FieldWarning{Line: line, Field: cols.Diameter, Value: rawDiameter, Reason: reason})
	}

	rawHazard, _ := idx.Cell(row, cols.Hazardous)
	hazardous := hazard.Parse(CleanCell(rawHazard))

	return NewBodyRecord(designation, name, diameter, hazardous), warns
}

func (x *BodyExtractor) columns() BodyColumns {
	c := x.Columns
	d := DefaultBodyColumns
	if c.Designation == "" {
		c.Designation = d.Designation
	}
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Diameter == "" {
		c.Diameter = d.Diameter
	}
	if c.Hazardous == "" {
		c.Hazardous = d.Hazardous
	}
	return c
}

func (x *BodyExtractor) logger() *slog.Logger {
	if x.Logger != nil {
		return x.Logger
	}
	return slog.Default()
}

func isParseError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}
