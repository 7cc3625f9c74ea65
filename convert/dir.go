package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/store"
)

// ConvertDir reads a data directory in the file-backend layout, converts it
// with a Converter seeded from seed and writes creators.json,
// content_sets.json and cards.json into out.
func ConvertDir(ctx context.Context, from, out string, seed uint64, now func() time.Time, log *logger.Logger) (*Output, error) {
	info, err := os.Stat(from)
	if err != nil {
		return nil, fmt.Errorf("source dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source dir: %s is not a directory", from)
	}
	src, err := store.NewFileBackend(from, log)
	if err != nil {
		return nil, err
	}
	creators, err := src.Creators().List(ctx, store.CreatorFilter{})
	if err != nil {
		return nil, err
	}
	sets, err := src.Sets().List(ctx, store.SetFilter{})
	if err != nil {
		return nil, err
	}
	cards, err := src.Cards().List(ctx, store.CardFilter{})
	if err != nil {
		return nil, err
	}

	res := NewSeeded(seed, now).Convert(creators, sets, cards)
	if err := res.Write(out); err != nil {
		return nil, err
	}
	log.Info("conversion complete", "from", from, "out", out, "seed", seed,
		"creators", len(res.Creators), "sets", len(res.Sets), "cards", len(res.Cards))
	return res, nil
}

// Write stores the three converted arrays in dir, creating it if needed.
func (o *Output) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := []struct {
		name string
		v    any
	}{
		{store.CreatorsFile, o.Creators},
		{store.SetsFile, o.Sets},
		{store.CardsFile, o.Cards},
	}
	for _, f := range files {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f.v); err != nil {
			return fmt.Errorf("encode %s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, f.name), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}
