package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/neo/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ServiceConfig holds the paths and column mappings used for every load.
type ServiceConfig struct {
	NEOPath      string
	CADPath      string
	BodyColumns  BodyColumns
	EventColumns EventColumns
	HazardTokens []string
	StrictEvents bool
}

// Catalog is one consistent snapshot of both datasets.
// The two collections are independent; nothing here links them.
type Catalog struct {
	RunID    string
	LoadedAt time.Time
	Duration time.Duration
	NEOPath  string
	CADPath  string

	Bodies   []BodyRecord
	Events   []EventRecord
	Warnings []FieldWarning
	Rejected []*RowError
}

// Summary returns record counts for the snapshot.
func (c *Catalog) Summary() CatalogSummary {
	hazardous, unnamed, unknownDiameter := 0, 0, 0
	for _, b := range c.Bodies {
		if b.Hazardous() {
			hazardous++
		}
		if !b.HasName() {
			unnamed++
		}
		if !b.DiameterKnown() {
			unknownDiameter++
		}
	}
	return CatalogSummary{
		RunID:           c.RunID,
		LoadedAt:        c.LoadedAt,
		DurationMs:      c.Duration.Milliseconds(),
		NEOPath:         c.NEOPath,
		CADPath:         c.CADPath,
		Bodies:          len(c.Bodies),
		Hazardous:       hazardous,
		Unnamed:         unnamed,
		UnknownDiameter: unknownDiameter,
		Events:          len(c.Events),
		Warnings:        len(c.Warnings),
		Rejected:        len(c.Rejected),
	}
}

// CatalogSummary is the JSON-friendly overview of a Catalog.
type CatalogSummary struct {
	RunID           string    `json:"runId"`
	LoadedAt        time.Time `json:"loadedAt"`
	DurationMs      int64     `json:"durationMs"`
	NEOPath         string    `json:"neoPath"`
	CADPath         string    `json:"cadPath"`
	Bodies          int       `json:"bodies"`
	Hazardous       int       `json:"hazardous"`
	Unnamed         int       `json:"unnamed"`
	UnknownDiameter int       `json:"unknownDiameter"`
	Events          int       `json:"events"`
	Warnings        int       `json:"warnings"`
	Rejected        int       `json:"rejected"`
}

// Service loads both datasets and keeps the latest snapshot.
type Service struct {
	cfg    ServiceConfig
	bodies *BodyExtractor
	events *EventExtractor

	loadMu sync.Mutex // serializes Load

	mu      sync.RWMutex
	catalog *Catalog
}

// NewService creates a new Service instance. No files are read until Load.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.NEOPath == "" {
		return nil, fmt.Errorf("neo csv path is required")
	}
	if cfg.CADPath == "" {
		return nil, fmt.Errorf("cad json path is required")
	}
	return &Service{
		cfg: cfg,
		bodies: &BodyExtractor{
			Columns:      cfg.BodyColumns,
			HazardTokens: cfg.HazardTokens,
		},
		events: &EventExtractor{
			Columns: cfg.EventColumns,
			Strict:  cfg.StrictEvents,
		},
	}, nil
}

// Catalog returns the latest snapshot, or nil before the first successful load.
func (s *Service) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Load extracts both files concurrently and replaces the snapshot.
// On error the previous snapshot is kept.
func (s *Service) Load(ctx context.Context) (*Catalog, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	runID := uuid.New().String()
	logger := slog.Default().With("run_id", runID)
	start := time.Now()

	bodies := *s.bodies
	bodies.Logger = logger
	events := *s.events
	events.Logger = logger

	var (
		bodyRes           *BodyResult
		eventRes          *EventResult
		bodyDur, eventDur time.Duration
	)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		t := time.Now()
		res, err := bodies.Extract(s.cfg.NEOPath)
		if err != nil {
			return fmt.Errorf("extract bodies: %w", err)
		}
		bodyRes, bodyDur = res, time.Since(t)
		return nil
	})
	g.Go(func() error {
		t := time.Now()
		res, err := events.Extract(s.cfg.CADPath)
		if err != nil {
			return fmt.Errorf("extract events: %w", err)
		}
		eventRes, eventDur = res, time.Since(t)
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.LoadFailed()
		logger.Error("dataset load failed, keeping previous snapshot", "error", err)
		return nil, err
	}
	// Extraction itself is not cancellable; drop the result if the caller gave up.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}

	cat := &Catalog{
		RunID:    runID,
		LoadedAt: time.Now().UTC(),
		Duration: time.Since(start),
		NEOPath:  s.cfg.NEOPath,
		CADPath:  s.cfg.CADPath,
		Bodies:   bodyRes.Records,
		Events:   eventRes.Records,
		Warnings: bodyRes.Warnings,
		Rejected: eventRes.Rejected,
	}

	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()

	// Counted only once the snapshot is live.
	metrics.ObserveExtraction(metrics.SourceNEO, len(cat.Bodies), 0, bodyDur)
	metrics.ObserveExtraction(metrics.SourceCAD, len(cat.Events), len(cat.Rejected), eventDur)
	for _, w := range cat.Warnings {
		metrics.FieldWarning(w.Field)
	}

	logger.Info("dataset loaded",
		"bodies", len(cat.Bodies),
		"events", len(cat.Events),
		"warnings", len(cat.Warnings),
		"rejected", len(cat.Rejected),
		"duration_ms", cat.Duration.Milliseconds(),
	)
	return cat, nil
}
