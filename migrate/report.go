package migrate

import (
	"fmt"
	"io"

	"github.com/stevemurr/content-builder/model"
)

// CreatorTotal is the per-creator line of a Report.
type CreatorTotal struct {
	CreatorID   string `json:"creator_id"`
	DisplayName string `json:"display_name"`
	Platforms   int    `json:"platforms"`
	Sets        int    `json:"sets"`
	Cards       int    `json:"cards"`
}

// Report summarises one migration run.
type Report struct {
	OrphanPolicy string `json:"orphan_policy"`
	DryRun       bool   `json:"dry_run"`
	Reset        bool   `json:"reset"`

	CreatorsIn      int `json:"creators_in"`
	CreatorsSkipped int `json:"creators_skipped"`

	SetsIn         int `json:"sets_in"`
	SetsOrphaned   int `json:"sets_orphaned"`
	SetsDuplicate  int `json:"sets_duplicate"`
	SetsAfterDedup int `json:"sets_after_dedup"`

	CardsIn         int `json:"cards_in"`
	CardsMigrated   int `json:"cards_migrated"`
	CardsDropped    int `json:"cards_dropped"`
	CardsReassigned int `json:"cards_reassigned"`

	Creators []CreatorTotal `json:"creators"`
}

func (r *Report) fillTotals(creators []model.Creator, sets []model.ContentSet, cards []model.ContentCard) {
	setCount := map[string]int{}
	for _, s := range sets {
		setCount[s.CreatorID]++
	}
	cardCount := map[string]int{}
	for _, c := range cards {
		cardCount[c.CreatorID]++
	}
	r.Creators = make([]CreatorTotal, 0, len(creators))
	for _, c := range creators {
		r.Creators = append(r.Creators, CreatorTotal{
			CreatorID:   c.CreatorID,
			DisplayName: c.DisplayName,
			Platforms:   len(c.Platforms),
			Sets:        setCount[c.CreatorID],
			Cards:       cardCount[c.CreatorID],
		})
	}
}

// Print writes a human-readable summary.
func (r *Report) Print(w io.Writer) {
	mode := "applied"
	if r.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "Migration %s (orphan policy: %s)\n", mode, r.OrphanPolicy)
	fmt.Fprintf(w, "  creators: %d in, %d migrated, %d skipped\n",
		r.CreatorsIn, len(r.Creators), r.CreatorsSkipped)
	fmt.Fprintf(w, "  sets:     %d in, %d after dedup (%d duplicates, %d without creator)\n",
		r.SetsIn, r.SetsAfterDedup, r.SetsDuplicate, r.SetsOrphaned)
	fmt.Fprintf(w, "  cards:    %d in, %d migrated, %d dropped, %d reassigned\n",
		r.CardsIn, r.CardsMigrated, r.CardsDropped, r.CardsReassigned)
	for _, c := range r.Creators {
		fmt.Fprintf(w, "  - %s (%s): %d platforms, %d sets, %d cards\n",
			c.DisplayName, c.CreatorID, c.Platforms, c.Sets, c.Cards)
	}
}
