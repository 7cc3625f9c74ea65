// Package migrate moves a legacy content snapshot into the canonical schema:
// it folds single-platform creator fields into the platforms list,
// deduplicates content sets, drops or reassigns cards of discarded sets and
// recomputes card counts before writing into a target backend.
package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/store"
)

// Timestamp accepts the layouts found in legacy exports: RFC 3339 with or
// without a zone, a space separator, or a bare date. Zone-less values are
// read as UTC.
type Timestamp struct{ time.Time }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = model.CanonicalTime(v)
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// LegacyCreator is a creator as stored before multi-platform support. Its
// social_links keep file order so migrated platforms come out in a stable
// sequence.
type LegacyCreator struct {
	model.Creator
	Platform       string                                 `json:"platform"`
	PlatformHandle string                                 `json:"platform_handle"`
	SocialLinks    *orderedmap.OrderedMap[string, string] `json:"social_links"`
	CreatedAt      Timestamp                              `json:"created_at"`
	UpdatedAt      Timestamp                              `json:"updated_at"`
}

// LegacySet is a content set from a legacy snapshot.
type LegacySet struct {
	model.ContentSet
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// LegacyCard is a content card from a legacy snapshot.
type LegacyCard struct {
	model.ContentCard
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Snapshot is one legacy data directory loaded into memory.
type Snapshot struct {
	Creators []LegacyCreator
	Sets     []LegacySet
	Cards    []LegacyCard
}

// LoadSnapshot reads creators.json, content_sets.json and cards.json from
// dir. Missing files are treated as empty.
func LoadSnapshot(dir string) (*Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("legacy dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("legacy dir: %s is not a directory", dir)
	}
	snap := &Snapshot{}
	if err := readArray(filepath.Join(dir, store.CreatorsFile), &snap.Creators); err != nil {
		return nil, err
	}
	if err := readArray(filepath.Join(dir, store.SetsFile), &snap.Sets); err != nil {
		return nil, err
	}
	if err := readArray(filepath.Join(dir, store.CardsFile), &snap.Cards); err != nil {
		return nil, err
	}
	return snap, nil
}

func readArray(path string, dst any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
