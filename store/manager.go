package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/schema"
)

// SystemVersion tags the combined schema descriptor.
const SystemVersion = "1.0.0"

// ExportMetadata is written next to the entity files as export_metadata.json.
type ExportMetadata struct {
	ExportTimestamp time.Time `json:"export_timestamp"`
	TotalCreators   int       `json:"total_creators"`
	TotalSets       int       `json:"total_sets"`
	TotalCards      int       `json:"total_cards"`
	Backend         string    `json:"backend"`
}

// ImportResult counts the records created by ImportAll.
type ImportResult struct {
	Creators int `json:"creators"`
	Sets     int `json:"sets"`
	Cards    int `json:"cards"`
}

// DataManager composes the three entity stores of one backend and adds the
// cross-entity operations. It holds no record state of its own.
type DataManager struct {
	backend Backend
	log     *logger.Logger
}

// NewDataManager wraps a backend.
func NewDataManager(b Backend, log *logger.Logger) *DataManager {
	return &DataManager{backend: b, log: log.With("component", "data_manager", "backend", b.Name())}
}

func (m *DataManager) Backend() Backend       { return m.backend }
func (m *DataManager) Creators() CreatorStore { return m.backend.Creators() }
func (m *DataManager) Sets() SetStore         { return m.backend.Sets() }
func (m *DataManager) Cards() CardStore       { return m.backend.Cards() }

// Ping checks the backend is reachable.
func (m *DataManager) Ping(ctx context.Context) error { return m.backend.Ping(ctx) }

// Close releases the backend.
func (m *DataManager) Close() error { return m.backend.Close() }

// ExportAll writes creators.json, content_sets.json and cards.json into dir,
// creating it if needed, then export_metadata.json with the counts. The three
// entity exports run concurrently; if any fails the error names the entity
// and no metadata file is written. The returned map is keyed creators, sets,
// cards and metadata.
func (m *DataManager) ExportAll(ctx context.Context, dir string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	var (
		mu      sync.Mutex
		results = map[string]*ExportResult{}
	)
	jobs := []struct {
		key    string
		export func(context.Context, string) (*ExportResult, error)
		file   string
	}{
		{"creators", m.Creators().Export, CreatorsFile},
		{"sets", m.Sets().Export, SetsFile},
		{"cards", m.Cards().Export, CardsFile},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			res, err := job.export(gctx, filepath.Join(dir, job.file))
			if err != nil {
				return fmt.Errorf("export %s failed: %w", job.key, err)
			}
			mu.Lock()
			results[job.key] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.log.Error("export failed", "dir", dir, "error", err)
		return nil, err
	}

	meta := ExportMetadata{
		ExportTimestamp: model.Now(),
		TotalCreators:   results["creators"].Count,
		TotalSets:       results["sets"].Count,
		TotalCards:      results["cards"].Count,
		Backend:         m.backend.Name(),
	}
	metaPath := filepath.Join(dir, MetadataFile)
	if err := writeJSONAtomic(metaPath, meta); err != nil {
		return nil, fmt.Errorf("export metadata failed: %w", err)
	}

	paths := map[string]string{"metadata": metaPath}
	for key, res := range results {
		paths[key] = res.Path
	}
	m.log.Info("export complete", "dir", dir,
		"creators", meta.TotalCreators, "sets", meta.TotalSets, "cards", meta.TotalCards)
	return paths, nil
}

// ImportAll loads a portable export directory into the backend. Every record
// of every file is checked against its entity schema before anything is
// written; creators are then created before sets before cards, and set
// counts are recomputed at the end.
func (m *DataManager) ImportAll(ctx context.Context, dir string) (*ImportResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("import dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import dir: %s is not a directory", dir)
	}

	var (
		creators []model.Creator
		sets     []model.ContentSet
		cards    []model.ContentCard
	)
	if err := loadValidated(filepath.Join(dir, CreatorsFile), m.Creators().Schema(), &creators); err != nil {
		return nil, err
	}
	if err := loadValidated(filepath.Join(dir, SetsFile), m.Sets().Schema(), &sets); err != nil {
		return nil, err
	}
	if err := loadValidated(filepath.Join(dir, CardsFile), m.Cards().Schema(), &cards); err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for i := range creators {
		if _, err := m.Creators().Create(ctx, &creators[i]); err != nil {
			return res, fmt.Errorf("import creator %s: %w", creators[i].CreatorID, err)
		}
		res.Creators++
	}
	for i := range sets {
		if _, err := m.Sets().Create(ctx, &sets[i]); err != nil {
			return res, fmt.Errorf("import set %s: %w", sets[i].SetID, err)
		}
		res.Sets++
	}
	for i := range cards {
		if _, err := m.Cards().Create(ctx, &cards[i]); err != nil {
			return res, fmt.Errorf("import card %s: %w", cards[i].CardID, err)
		}
		res.Cards++
	}
	if err := m.Sets().RecountCards(ctx); err != nil {
		return res, fmt.Errorf("recount after import: %w", err)
	}
	m.log.Info("import complete", "dir", dir,
		"creators", res.Creators, "sets", res.Sets, "cards", res.Cards)
	return res, nil
}

// loadValidated reads a JSON array file, validates each element against
// recordSchema and decodes the array into dst. A missing file is empty.
func loadValidated(path string, recordSchema map[string]any, dst any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperr.Validation(filepath.Base(path), nil, "file is not a JSON array: "+err.Error())
	}
	for i, rec := range raw {
		if err := schema.ValidateJSON(recordSchema, rec); err != nil {
			return apperr.Validation(fmt.Sprintf("%s[%d]", filepath.Base(path), i), nil, err.Error())
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SystemSchema merges the per-entity schemas with a version tag.
func (m *DataManager) SystemSchema() map[string]any {
	return map[string]any{
		"creators":         m.Creators().Schema(),
		"sets":             m.Sets().Schema(),
		"cards":            m.Cards().Schema(),
		"system_version":   SystemVersion,
		"schema_timestamp": model.Now().Format(time.RFC3339Nano),
		"backend":          m.backend.Name(),
	}
}

// Summary reports per-entity totals and the most recent ids, for debugging.
func (m *DataManager) Summary(ctx context.Context) (map[string]any, error) {
	creators, err := m.Creators().List(ctx, CreatorFilter{})
	if err != nil {
		return nil, err
	}
	sets, err := m.Sets().List(ctx, SetFilter{})
	if err != nil {
		return nil, err
	}
	cards, err := m.Cards().List(ctx, CardFilter{})
	if err != nil {
		return nil, err
	}
	recentCreators := make([]string, 0, 5)
	for i := len(creators) - 1; i >= 0 && len(recentCreators) < 5; i-- {
		recentCreators = append(recentCreators, creators[i].CreatorID)
	}
	recentSets := make([]string, 0, 5)
	for i := len(sets) - 1; i >= 0 && len(recentSets) < 5; i-- {
		recentSets = append(recentSets, sets[i].SetID)
	}
	return map[string]any{
		"backend":         m.backend.Name(),
		"total_creators":  len(creators),
		"total_sets":      len(sets),
		"total_cards":     len(cards),
		"recent_creators": recentCreators,
		"recent_sets":     recentSets,
	}, nil
}
