package migrate

import (
	"context"
	"fmt"

	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/store"
)

// Options controls a migration run.
type Options struct {
	// Reset deletes everything in the target before writing.
	Reset bool
	// DryRun computes the result and report without writing.
	DryRun  bool
	Orphans OrphanPolicy
}

// Migrator writes planned results into a target backend.
type Migrator struct {
	target store.Backend
	opts   Options
	log    *logger.Logger
}

// New creates a Migrator for target.
func New(target store.Backend, opts Options, log *logger.Logger) *Migrator {
	if opts.Orphans == "" {
		opts.Orphans = OrphanDrop
	}
	return &Migrator{
		target: target,
		opts:   opts,
		log:    log.With("component", "migrate", "target", target.Name()),
	}
}

// Run loads the legacy snapshot in dir, plans the migration and, unless this
// is a dry run, applies it.
func (m *Migrator) Run(ctx context.Context, dir string) (*Report, error) {
	snap, err := LoadSnapshot(dir)
	if err != nil {
		return nil, err
	}
	m.log.Info("legacy snapshot loaded", "dir", dir,
		"creators", len(snap.Creators), "sets", len(snap.Sets), "cards", len(snap.Cards))

	res := Plan(snap, m.opts.Orphans)
	res.Report.DryRun = m.opts.DryRun
	res.Report.Reset = m.opts.Reset
	if m.opts.DryRun {
		return &res.Report, nil
	}
	if err := m.Apply(ctx, res); err != nil {
		return &res.Report, err
	}
	return &res.Report, nil
}

// Apply writes creators, then sets, then cards, then recomputes counts in the
// target. Sequencing matters: each step needs its parents to resolve.
func (m *Migrator) Apply(ctx context.Context, res *Result) error {
	if m.opts.Reset {
		if err := m.reset(ctx); err != nil {
			return err
		}
	}
	for i := range res.Creators {
		if _, err := m.target.Creators().Create(ctx, &res.Creators[i]); err != nil {
			return fmt.Errorf("migrate creator %s: %w", res.Creators[i].CreatorID, err)
		}
		m.log.Debug("creator migrated", "creator_id", res.Creators[i].CreatorID,
			"platforms", len(res.Creators[i].Platforms))
	}
	for i := range res.Sets {
		if _, err := m.target.Sets().Create(ctx, &res.Sets[i]); err != nil {
			return fmt.Errorf("migrate set %s: %w", res.Sets[i].SetID, err)
		}
	}
	for i := range res.Cards {
		if _, err := m.target.Cards().Create(ctx, &res.Cards[i]); err != nil {
			return fmt.Errorf("migrate card %s: %w", res.Cards[i].CardID, err)
		}
	}
	if err := m.target.Sets().RecountCards(ctx); err != nil {
		return fmt.Errorf("recount card totals: %w", err)
	}
	m.log.Info("migration applied",
		"creators", len(res.Creators), "sets", len(res.Sets), "cards", len(res.Cards),
		"cards_dropped", res.Report.CardsDropped, "cards_reassigned", res.Report.CardsReassigned)
	return nil
}

// reset removes every creator from the target; cascades remove the rest.
func (m *Migrator) reset(ctx context.Context) error {
	creators, err := m.target.Creators().List(ctx, store.CreatorFilter{})
	if err != nil {
		return fmt.Errorf("reset target: %w", err)
	}
	for _, c := range creators {
		if _, err := m.target.Creators().Delete(ctx, c.CreatorID); err != nil {
			return fmt.Errorf("reset target: %w", err)
		}
	}
	m.log.Info("target reset", "creators_removed", len(creators))
	return nil
}
