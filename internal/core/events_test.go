package core

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

const cadFields = `["des","orbit_id","jd","cd","dist","dist_min","dist_max","v_rel"]`

// cadJSON builds a close-approach document from a fields array and data rows.
func cadJSON(fields string, rows ...string) string {
	return `{"signature":{"version":"1.5"},"count":"` + strconv.Itoa(len(rows)) + `","fields":` + fields +
		`,"data":[` + strings.Join(rows, ",") + `]}`
}

func TestExtractEvents_Scenario(t *testing.T) {
	path := writeFile(t, "cad.json", cadJSON(cadFields,
		`["2000001","5","2458000.5","2020-01-01","0.05","0.04","0.06","12.3"]`))

	records, err := ExtractEvents(path)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	e := records[0]
	if e.Designation() != "2000001" {
		t.Errorf("Designation() = %q, want %q", e.Designation(), "2000001")
	}
	if e.Time() != "2020-01-01" {
		t.Errorf("Time() = %q, want %q", e.Time(), "2020-01-01")
	}
	if e.Distance() != 0.05 {
		t.Errorf("Distance() = %v, want 0.05", e.Distance())
	}
	if e.Velocity() != 12.3 {
		t.Errorf("Velocity() = %v, want 12.3", e.Velocity())
	}
	at, ok := e.At()
	if !ok || !at.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("At() = (%v, %v), want 2020-01-01 UTC", at, ok)
	}
}

func TestExtractEvents_OneRecordPerRow(t *testing.T) {
	path := writeFile(t, "cad.json", cadJSON(cadFields,
		`["433","1","2451545.5","1900-Dec-27 01:30","0.3149","0.3148","0.3150","5.58"]`,
		`["99942","2","2462240.4","2029-Apr-13 21:46","0.000254","0.000254","0.000254","7.42"]`,
		`["2015 CL","3","2457000.5","2015-Jan-01 00:00","0.02","0.01","0.03","9.1"]`,
	))

	records, err := ExtractEvents(path)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	want := []string{"433", "99942", "2015 CL"}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, d := range want {
		if records[i].Designation() != d {
			t.Errorf("records[%d].Designation() = %q, want %q (file order)", i, records[i].Designation(), d)
		}
	}
	if at, ok := records[1].At(); !ok || at.Year() != 2029 || at.Month() != time.April {
		t.Errorf("records[1].At() = (%v, %v), want April 2029", at, ok)
	}
}

func TestExtractEvents_ReorderedHeader(t *testing.T) {
	fields := `["v_rel","cd","jd","dist","des"]`
	path := writeFile(t, "cad.json", cadJSON(fields, `["12.3","2020-01-01","2458000.5","0.05","2000001"]`))

	records, err := ExtractEvents(path)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	e := records[0]
	if e.Designation() != "2000001" || e.Time() != "2020-01-01" || e.Distance() != 0.05 || e.Velocity() != 12.3 {
		t.Errorf("record = %v, want fields resolved by name", e)
	}
}

func TestExtractEvents_MissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name        string
		fields      string
		wantMissing []string
	}{
		{name: "no v_rel", fields: `["des","cd","dist"]`, wantMissing: []string{"v_rel"}},
		{name: "no des", fields: `["cd","dist","v_rel"]`, wantMissing: []string{"des"}},
		{name: "empty fields", fields: `[]`, wantMissing: []string{"des", "cd", "dist", "v_rel"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "cad.json", cadJSON(tt.fields, `["a","b","c","d"]`))

			records, err := ExtractEvents(path)
			if len(records) != 0 {
				t.Errorf("got %d records, want 0", len(records))
			}
			if !errors.Is(err, ErrStructural) {
				t.Fatalf("errors.Is(err, ErrStructural) = false, err = %v", err)
			}
			var se *StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("errors.As(*StructuralError) = false, err = %T", err)
			}
			if !reflect.DeepEqual(se.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", se.Missing, tt.wantMissing)
			}
			if se.Path != path {
				t.Errorf("Path = %q, want %q", se.Path, path)
			}
		})
	}
}

func TestExtractEvents_MissingMembers(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantMissing []string
	}{
		{name: "no data", content: `{"fields":["des","cd","dist","v_rel"]}`, wantMissing: []string{"data"}},
		{name: "no fields", content: `{"data":[]}`, wantMissing: []string{"fields"}},
		{name: "neither", content: `{"count":"0"}`, wantMissing: []string{"fields", "data"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "cad.json", tt.content)

			_, err := ExtractEvents(path)
			var se *StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("errors.As(*StructuralError) = false, err = %v", err)
			}
			if !reflect.DeepEqual(se.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", se.Missing, tt.wantMissing)
			}
		})
	}
}

func TestExtractEvents_InvalidJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "truncated", content: `{"fields":["des"`},
		{name: "not an object", content: `[1,2,3]`},
		{name: "fields wrong type", content: `{"fields":"des","data":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "cad.json", tt.content)

			records, err := ExtractEvents(path)
			if len(records) != 0 {
				t.Errorf("got %d records, want 0", len(records))
			}
			if !errors.Is(err, ErrStructural) {
				t.Errorf("errors.Is(err, ErrStructural) = false, err = %v", err)
			}
		})
	}
}

func TestExtractEvents_TrailingData(t *testing.T) {
	doc := cadJSON(cadFields, `["433","5","2458000.5","2020-01-01","0.05","0.04","0.06","12.3"]`)

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "garbage after document", content: doc + "garbage", wantErr: true},
		{name: "second document", content: doc + doc, wantErr: true},
		{name: "trailing whitespace", content: doc + "\n\t \n", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "cad.json", tt.content)

			records, err := ExtractEvents(path)
			if !tt.wantErr {
				if err != nil || len(records) != 1 {
					t.Fatalf("ExtractEvents() = %d records, %v; want 1 record", len(records), err)
				}
				return
			}
			if !errors.Is(err, ErrStructural) {
				t.Fatalf("errors.Is(err, ErrStructural) = false, err = %v", err)
			}
			if len(records) != 0 {
				t.Errorf("got %d records, want 0", len(records))
			}
		})
	}
}

func TestExtractEvents_EmptyData(t *testing.T) {
	path := writeFile(t, "cad.json", `{"fields":["des","cd","dist","v_rel"],"data":[]}`)

	records, err := ExtractEvents(path)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestExtractEvents_InvalidRows(t *testing.T) {
	fields := `["des","cd","dist","v_rel"]`
	path := writeFile(t, "cad.json", cadJSON(fields,
		`["433","2020-01-01","0.1","5.0"]`,
		`["bad-dist","2020-01-01","far","5.0"]`,
		`["null-vel","2020-01-01","0.1",null]`,
		`["short","2020-01-01"]`,
		`{"des":"object"}`,
		`["99942","2029-Apr-13 21:46","0.000254","7.42"]`,
	))

	res, err := (&EventExtractor{}).Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if len(res.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(res.Records))
	}
	if res.Records[0].Designation() != "433" || res.Records[1].Designation() != "99942" {
		t.Errorf("records = %v, want 433 and 99942", res.Records)
	}

	wantRejected := []struct {
		line  int
		field string
	}{
		{line: 2, field: "dist"},
		{line: 3, field: "v_rel"},
		{line: 4, field: ""},
		{line: 5, field: ""},
	}
	if len(res.Rejected) != len(wantRejected) {
		t.Fatalf("got %d rejected, want %d: %v", len(res.Rejected), len(wantRejected), res.Rejected)
	}
	for i, w := range wantRejected {
		got := res.Rejected[i]
		if got.Line != w.line || got.Field != w.field {
			t.Errorf("Rejected[%d] = line %d field %q, want line %d field %q", i, got.Line, got.Field, w.line, w.field)
		}
	}
	if res.Rejected[0].Value != "far" {
		t.Errorf("Rejected[0].Value = %q, want %q", res.Rejected[0].Value, "far")
	}
}

func TestExtractEvents_RowErrorsReturnedWithRecords(t *testing.T) {
	fields := `["des","cd","dist","v_rel"]`
	path := writeFile(t, "cad.json", cadJSON(fields,
		`["433","2020-01-01","0.1","5.0"]`,
		`["bad","2020-01-01","0.1","fast"]`,
	))

	records, err := ExtractEvents(path)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if !errors.Is(err, ErrRowInvalid) {
		t.Fatalf("errors.Is(err, ErrRowInvalid) = false, err = %v", err)
	}
	var re *RowError
	if !errors.As(err, &re) {
		t.Fatalf("errors.As(*RowError) = false, err = %T", err)
	}
	if re.Field != "v_rel" || re.Value != "fast" {
		t.Errorf("RowError = %+v, want v_rel \"fast\"", re)
	}
	if errors.Is(err, ErrStructural) {
		t.Error("row error must not match ErrStructural")
	}
}

func TestEventExtractor_Strict(t *testing.T) {
	fields := `["des","cd","dist","v_rel"]`
	path := writeFile(t, "cad.json", cadJSON(fields,
		`["433","2020-01-01","0.1","5.0"]`,
		`["bad","2020-01-01","far","5.0"]`,
		`["worse","2020-01-01","0.1","fast"]`,
	))

	res, err := (&EventExtractor{Strict: true}).Extract(path)
	if res != nil {
		t.Errorf("Extract() result = %+v, want nil", res)
	}
	var re *RowError
	if !errors.As(err, &re) {
		t.Fatalf("errors.As(*RowError) = false, err = %v", err)
	}
	if re.Line != 2 || re.Field != "dist" {
		t.Errorf("RowError = %+v, want first bad row (line 2, dist)", re)
	}
}

func TestExtractEvents_NumericJSONValues(t *testing.T) {
	fields := `["des","cd","dist","v_rel"]`
	path := writeFile(t, "cad.json", cadJSON(fields,
		`[433,"2020-01-01",0.05,12.3]`,
		`[null,null,"0.1","1"]`,
	))

	records, err := ExtractEvents(path)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Designation() != "433" || records[0].Distance() != 0.05 || records[0].Velocity() != 12.3 {
		t.Errorf("records[0] = %v, want 433 0.05 12.3", records[0])
	}
	if records[1].Designation() != "" || records[1].Time() != "" {
		t.Errorf("records[1] = %v, want empty designation and time", records[1])
	}
	if _, ok := records[1].At(); ok {
		t.Error("records[1].At() ok = true, want false for empty time")
	}
}

func TestExtractEvents_UnparseableTimeKept(t *testing.T) {
	fields := `["des","cd","dist","v_rel"]`
	path := writeFile(t, "cad.json", cadJSON(fields, `["433","sometime in 2020","0.1","5"]`))

	records, err := ExtractEvents(path)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if records[0].Time() != "sometime in 2020" {
		t.Errorf("Time() = %q, want verbatim text", records[0].Time())
	}
	if _, ok := records[0].At(); ok {
		t.Error("At() ok = true, want false")
	}
}

func TestExtractEvents_MissingFile(t *testing.T) {
	_, err := ExtractEvents(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrFileAccess) {
		t.Errorf("errors.Is(err, ErrFileAccess) = false, err = %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is(err, fs.ErrNotExist) = false, err = %v", err)
	}
	if errors.Is(err, ErrStructural) {
		t.Error("file error must not match ErrStructural")
	}
}

func TestEventExtractor_CustomMapping(t *testing.T) {
	fields := `["object","when","au","kms"]`
	path := writeFile(t, "cad.json", cadJSON(fields, `["433","2020-01-01","0.1","5"]`))

	x := &EventExtractor{Columns: EventColumns{Designation: "object", Time: "when", Distance: "au", Velocity: "kms"}}
	res, err := x.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Designation() != "433" {
		t.Errorf("records = %v, want one for 433", res.Records)
	}
}
