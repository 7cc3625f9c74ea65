package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/stevemurr/content-builder/model"
)

// readJSONArray loads a JSON array file. A missing file is an empty list.
func readJSONArray[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// writeJSONAtomic writes v as indented JSON to a temp file in the target
// directory, syncs it, then renames it over path. Readers see either the old
// file or the new one, never a partial write.
func writeJSONAtomic(path string, v any) (err error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	cleanup = false
	return nil
}

// exportRecords writes records to path and reports the count.
func exportRecords[T any](entity, path string, records []T) (*ExportResult, error) {
	if records == nil {
		records = []T{}
	}
	if err := writeJSONAtomic(path, records); err != nil {
		return nil, fmt.Errorf("export %s: %w", entity, err)
	}
	return &ExportResult{Entity: entity, Path: path, Count: len(records)}, nil
}

// Listing order shared by every backend so exports compare equal.

func sortCreators(cs []model.Creator) {
	sort.SliceStable(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].CreatorID < cs[j].CreatorID
	})
}

func sortSets(ss []model.ContentSet) {
	sort.SliceStable(ss, func(i, j int) bool {
		if !ss[i].CreatedAt.Equal(ss[j].CreatedAt) {
			return ss[i].CreatedAt.Before(ss[j].CreatedAt)
		}
		return ss[i].SetID < ss[j].SetID
	})
}

func sortCards(cs []model.ContentCard) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].SetID != cs[j].SetID {
			return cs[i].SetID < cs[j].SetID
		}
		if cs[i].OrderIndex != cs[j].OrderIndex {
			return cs[i].OrderIndex < cs[j].OrderIndex
		}
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].CardID < cs[j].CardID
	})
}
