package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/neo/internal/config"
	"github.com/JonMunkholm/neo/internal/core"
)

// fakeLoader serves a fixed catalog and returns loadErr from Load.
type fakeLoader struct {
	catalog *core.Catalog
	loadErr error
	loads   int
}

func (f *fakeLoader) Catalog() *core.Catalog { return f.catalog }

func (f *fakeLoader) Load(ctx context.Context) (*core.Catalog, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.catalog, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: time.Second,
			RequestTimeout:  5 * time.Second,
		},
		API: config.APIConfig{DefaultPageSize: 2, MaxPageSize: 3},
	}
}

func testCatalog() *core.Catalog {
	return &core.Catalog{
		RunID:    "run-1",
		LoadedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Bodies: []core.BodyRecord{
			core.NewBodyRecord("433", "Eros", 16.84, false),
			core.NewBodyRecord("99942", "Apophis", 0.37, true),
			core.NewBodyRecord("2015 CL", "", core.UnknownDiameter(), false),
			core.NewBodyRecord("3122", "Florence", 4.9, true),
		},
		Events: []core.EventRecord{
			core.NewEventRecord("433", "2020-Jan-01 12:43", 0.3, 5.5),
		},
		Warnings: []core.FieldWarning{{Line: 4, Field: "diameter", Value: "big", Reason: "not a number"}},
		Rejected: []*core.RowError{{Line: 2, Field: "dist", Value: "far", Msg: "not a number"}},
	}
}

func do(t *testing.T, s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		catalog *core.Catalog
		want    string
	}{
		{name: "before load", catalog: nil, want: "loading"},
		{name: "after load", catalog: testCatalog(), want: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(&fakeLoader{catalog: tt.catalog}, testConfig())
			rec := do(t, s, http.MethodGet, "/health", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := decode[map[string]string](t, rec)
			if body["status"] != tt.want {
				t.Errorf("status = %q, want %q", body["status"], tt.want)
			}
		})
	}
}

func TestNotLoaded(t *testing.T) {
	s := NewServer(&fakeLoader{}, testConfig())

	for _, path := range []string{"/api/summary", "/api/bodies", "/api/approaches", "/api/warnings", "/api/rejected"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, path, nil)
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", rec.Code)
			}
			body := decode[ErrorResponse](t, rec)
			if body.Code != "LOAD001" {
				t.Errorf("code = %q, want LOAD001", body.Code)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	s := NewServer(&fakeLoader{catalog: testCatalog()}, testConfig())

	rec := do(t, s, http.MethodGet, "/api/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[core.CatalogSummary](t, rec)
	if got.RunID != "run-1" || got.Bodies != 4 || got.Hazardous != 2 || got.Unnamed != 1 ||
		got.UnknownDiameter != 1 || got.Events != 1 || got.Warnings != 1 || got.Rejected != 1 {
		t.Errorf("summary = %+v", got)
	}
}

type bodyItem struct {
	Designation string   `json:"designation"`
	Name        *string  `json:"name"`
	DiameterKm  *float64 `json:"diameter_km"`
	Hazardous   bool     `json:"potentially_hazardous"`
}

type bodyPage struct {
	RunID  string     `json:"runId"`
	Total  int        `json:"total"`
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
	Items  []bodyItem `json:"items"`
}

func TestListBodies_Paging(t *testing.T) {
	s := NewServer(&fakeLoader{catalog: testCatalog()}, testConfig())

	tests := []struct {
		name       string
		query      string
		wantOffset int
		wantLimit  int
		wantDes    []string
	}{
		{name: "default page", query: "", wantOffset: 0, wantLimit: 2, wantDes: []string{"433", "99942"}},
		{name: "offset", query: "?offset=2", wantOffset: 2, wantLimit: 2, wantDes: []string{"2015 CL", "3122"}},
		{name: "limit clamped", query: "?limit=100", wantOffset: 0, wantLimit: 3, wantDes: []string{"433", "99942", "2015 CL"}},
		{name: "offset past end", query: "?offset=10", wantOffset: 10, wantLimit: 2, wantDes: []string{}},
		{name: "invalid params fall back", query: "?offset=-1&limit=abc", wantOffset: 0, wantLimit: 2, wantDes: []string{"433", "99942"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/bodies"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			page := decode[bodyPage](t, rec)
			if page.RunID != "run-1" || page.Total != 4 {
				t.Errorf("runId/total = %q/%d, want run-1/4", page.RunID, page.Total)
			}
			if page.Offset != tt.wantOffset || page.Limit != tt.wantLimit {
				t.Errorf("offset/limit = %d/%d, want %d/%d", page.Offset, page.Limit, tt.wantOffset, tt.wantLimit)
			}
			if len(page.Items) != len(tt.wantDes) {
				t.Fatalf("got %d items, want %d", len(page.Items), len(tt.wantDes))
			}
			for i, d := range tt.wantDes {
				if page.Items[i].Designation != d {
					t.Errorf("items[%d] = %q, want %q", i, page.Items[i].Designation, d)
				}
			}
		})
	}
}

func TestListBodies_SentinelsAreNull(t *testing.T) {
	s := NewServer(&fakeLoader{catalog: testCatalog()}, testConfig())

	rec := do(t, s, http.MethodGet, "/api/bodies?offset=2&limit=1", nil)
	page := decode[bodyPage](t, rec)
	if len(page.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(page.Items))
	}
	if page.Items[0].Name != nil || page.Items[0].DiameterKm != nil {
		t.Errorf("item = %+v, want null name and diameter", page.Items[0])
	}
}

func TestListApproachesWarningsRejected(t *testing.T) {
	s := NewServer(&fakeLoader{catalog: testCatalog()}, testConfig())

	tests := []struct {
		path string
		want string
	}{
		{path: "/api/approaches", want: `"distance_au":0.3`},
		{path: "/api/warnings", want: `"reason":"not a number"`},
		{path: "/api/rejected", want: `"field":"dist"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestReload(t *testing.T) {
	tests := []struct {
		name       string
		loadErr    error
		wantStatus int
		wantCode   string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{
			name:       "structural error",
			loadErr:    &core.StructuralError{Missing: []string{"v_rel"}, Msg: "required column absent from fields"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "SCH001",
		},
		{
			name:       "strict row error",
			loadErr:    &core.RowError{Line: 2, Field: "dist", Value: "far", Msg: "not a number"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "ROW001",
		},
		{
			name:       "file error",
			loadErr:    &core.FileError{Path: "neos.csv", Err: errors.New("permission denied")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "FILE002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{catalog: testCatalog(), loadErr: tt.loadErr}
			s := NewServer(loader, testConfig())

			rec := do(t, s, http.MethodPost, "/api/reload", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loader.loads != 1 {
				t.Errorf("loads = %d, want 1", loader.loads)
			}
			if tt.wantCode != "" {
				body := decode[ErrorResponse](t, rec)
				if body.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestReload_APIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{name: "missing key", key: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", key: "guess", wantStatus: http.StatusForbidden},
		{name: "valid key", key: "secret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{catalog: testCatalog()}
			s := NewServer(loader, cfg)

			header := http.Header{}
			if tt.key != "" {
				header.Set("X-API-Key", tt.key)
			}
			rec := do(t, s, http.MethodPost, "/api/reload", header)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK && loader.loads != 0 {
				t.Error("rejected request still triggered a load")
			}
		})
	}

	// Reads stay open.
	s := NewServer(&fakeLoader{catalog: testCatalog()}, cfg)
	if rec := do(t, s, http.MethodGet, "/api/summary", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /api/summary status = %d, want 200", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := NewServer(&fakeLoader{}, testConfig())
	rec := do(t, s, http.MethodGet, "/health", nil)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(&fakeLoader{catalog: testCatalog()}, testConfig())
	do(t, s, http.MethodGet, "/api/summary", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "neo_http_requests_total") {
		t.Error("metrics output missing neo_http_requests_total")
	}
}
