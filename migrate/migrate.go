package migrate

import (
	"fmt"
	"strings"

	"github.com/stevemurr/content-builder/model"
)

// OrphanPolicy decides what happens to cards whose set lost deduplication.
type OrphanPolicy string

const (
	// OrphanDrop excludes those cards from the migrated output.
	OrphanDrop OrphanPolicy = "drop"
	// OrphanReassign moves them to the surviving set of the same group,
	// appended after that set's own cards.
	OrphanReassign OrphanPolicy = "reassign"
)

// ParseOrphanPolicy accepts "drop" (or empty) and "reassign".
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch OrphanPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrphanDrop:
		return OrphanDrop, nil
	case OrphanReassign:
		return OrphanReassign, nil
	}
	return "", fmt.Errorf("unknown orphan policy %q (supported: drop, reassign)", s)
}

// TitlePrefixLen is the number of title characters that form the
// deduplication key together with the creator id.
const TitlePrefixLen = 50

// Result is the canonical data produced by Plan, ready to be written.
type Result struct {
	Creators []model.Creator
	Sets     []model.ContentSet
	Cards    []model.ContentCard
	Report   Report
}

// Plan runs the transformation steps in their required order: creators,
// then set deduplication, then card filtering, then count recomputation. It
// does not touch any store.
func Plan(snap *Snapshot, policy OrphanPolicy) *Result {
	res := &Result{}
	res.Report.CreatorsIn = len(snap.Creators)
	res.Report.SetsIn = len(snap.Sets)
	res.Report.CardsIn = len(snap.Cards)
	res.Report.OrphanPolicy = string(policy)

	known := map[string]bool{}
	for _, lc := range snap.Creators {
		c := NormalizeCreator(lc)
		if known[c.CreatorID] {
			res.Report.CreatorsSkipped++
			continue
		}
		known[c.CreatorID] = true
		res.Creators = append(res.Creators, c)
	}

	candidates := make([]model.ContentSet, 0, len(snap.Sets))
	for _, ls := range snap.Sets {
		s := ls.ContentSet
		s.CreatedAt, s.UpdatedAt = ls.CreatedAt.Time, ls.UpdatedAt.Time
		if !known[s.CreatorID] {
			res.Report.SetsOrphaned++
			continue
		}
		candidates = append(candidates, s)
	}
	sets, winnerOf := DedupSets(candidates)
	res.Sets = sets
	res.Report.SetsAfterDedup = len(sets)
	res.Report.SetsDuplicate = len(candidates) - len(sets)

	res.Cards = migrateCards(snap.Cards, sets, winnerOf, known, policy, &res.Report)
	RecountSets(res.Sets, res.Cards)
	res.Report.CardsMigrated = len(res.Cards)
	res.Report.fillTotals(res.Creators, res.Sets, res.Cards)
	return res
}

// NormalizeCreator converts a legacy creator into the canonical shape. The
// platforms list is built from any platforms already present, then the
// legacy platform/platform_handle pair, then each social link whose handle is
// non-empty and not exactly the legacy handle. Migrated handles lose leading
// '@' characters, platform names are lowercased and exact repeats dropped.
func NormalizeCreator(lc LegacyCreator) model.Creator {
	c := lc.Creator
	c.CreatedAt, c.UpdatedAt = lc.CreatedAt.Time, lc.UpdatedAt.Time
	if c.CreatorID == "" {
		c.CreatorID = model.NewCreatorID(c.DisplayName, c.Platforms)
	}

	var platforms []model.Platform
	seen := map[model.Platform]bool{}
	add := func(platform, handle string) {
		p := model.Platform{
			Platform: strings.ToLower(strings.TrimSpace(platform)),
			Handle:   strings.TrimLeft(strings.TrimSpace(handle), "@"),
		}
		if p.Platform == "" || p.Handle == "" || seen[p] {
			return
		}
		seen[p] = true
		platforms = append(platforms, p)
	}
	for _, p := range lc.Creator.Platforms {
		add(p.Platform, p.Handle)
	}
	if lc.Platform != "" && lc.PlatformHandle != "" {
		add(lc.Platform, lc.PlatformHandle)
	}
	links := map[string]string{}
	if lc.SocialLinks != nil {
		for pair := lc.SocialLinks.Oldest(); pair != nil; pair = pair.Next() {
			links[pair.Key] = pair.Value
			if pair.Value == "" || pair.Value == lc.PlatformHandle {
				continue
			}
			add(pair.Key, pair.Value)
		}
	}
	c.Platforms = platforms
	c.SocialLinks = links
	c.ApplyDefaults()
	return c
}

type dedupKey struct {
	creatorID string
	prefix    string
}

func titlePrefix(title string) string {
	r := []rune(title)
	if len(r) > TitlePrefixLen {
		r = r[:TitlePrefixLen]
	}
	return string(r)
}

// DedupSets keeps one set per (creator_id, first 50 characters of title):
// the one with the highest card_count, the first encountered on a tie. Each
// group keeps the position of its first member. The returned map sends every
// discarded set_id to the set_id that replaced it.
func DedupSets(sets []model.ContentSet) ([]model.ContentSet, map[string]string) {
	var order []dedupKey
	winners := map[dedupKey]model.ContentSet{}
	members := map[dedupKey][]string{}
	for _, s := range sets {
		k := dedupKey{creatorID: s.CreatorID, prefix: titlePrefix(s.Title)}
		members[k] = append(members[k], s.SetID)
		w, ok := winners[k]
		if !ok {
			order = append(order, k)
			winners[k] = s
			continue
		}
		if s.CardCount > w.CardCount {
			winners[k] = s
		}
	}

	out := make([]model.ContentSet, 0, len(order))
	winnerOf := map[string]string{}
	for _, k := range order {
		w := winners[k]
		out = append(out, w)
		for _, id := range members[k] {
			if id != w.SetID {
				winnerOf[id] = w.SetID
			}
		}
	}
	return out, winnerOf
}

// migrateCards keeps cards whose set survived. Cards of a discarded
// duplicate are dropped or, under OrphanReassign, appended to the winner.
func migrateCards(legacy []LegacyCard, sets []model.ContentSet, winnerOf map[string]string,
	creators map[string]bool, policy OrphanPolicy, rep *Report) []model.ContentCard {
	surviving := make(map[string]bool, len(sets))
	for _, s := range sets {
		surviving[s.SetID] = true
	}

	var kept, moved []model.ContentCard
	seen := map[string]bool{}
	maxIndex := map[string]int{}
	for _, lc := range legacy {
		c := lc.ContentCard
		c.CreatedAt, c.UpdatedAt = lc.CreatedAt.Time, lc.UpdatedAt.Time
		switch {
		case c.CardID != "" && seen[c.CardID], !creators[c.CreatorID]:
			rep.CardsDropped++
			continue
		case surviving[c.SetID]:
			kept = append(kept, c)
			if c.OrderIndex > maxIndex[c.SetID] {
				maxIndex[c.SetID] = c.OrderIndex
			}
		case policy == OrphanReassign && winnerOf[c.SetID] != "":
			c.SetID = winnerOf[c.SetID]
			moved = append(moved, c)
		default:
			rep.CardsDropped++
			continue
		}
		seen[c.CardID] = true
	}

	for i := range moved {
		maxIndex[moved[i].SetID]++
		moved[i].OrderIndex = maxIndex[moved[i].SetID]
	}
	rep.CardsReassigned = len(moved)
	return append(kept, moved...)
}

// RecountSets overwrites every card_count with the number of cards that
// reference the set. Counts carried over from the source are never trusted.
func RecountSets(sets []model.ContentSet, cards []model.ContentCard) {
	counts := map[string]int{}
	for _, c := range cards {
		counts[c.SetID]++
	}
	for i := range sets {
		sets[i].CardCount = counts[sets[i].SetID]
	}
}
