package migrate_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/migrate"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/store"
)

const legacyCreators = `[
  {
    "creator_id": "ada",
    "display_name": "Ada Lovelace",
    "platform": "YouTube",
    "platform_handle": "@ada",
    "social_links": {"instagram": "ada.codes", "twitter": "@ada", "tiktok": "", "linkedin": "ada-l"},
    "created_at": "2024-01-02T03:04:05",
    "updated_at": "2024-01-02 03:04:05"
  },
  {
    "creator_id": "grace",
    "display_name": "Grace Hopper",
    "platforms": [{"platform": "website", "handle": "grace.dev"}],
    "created_at": "2024-01-03T00:00:00Z",
    "updated_at": "2024-01-03"
  }
]`

const legacySets = `[
  {"set_id": "s_small", "creator_id": "ada", "title": "Analytical engines explained", "category": "science", "card_count": 3, "created_at": "2024-01-05T00:00:00Z"},
  {"set_id": "s_big", "creator_id": "ada", "title": "Analytical engines explained", "category": "science", "card_count": 7, "created_at": "2024-01-06T00:00:00Z"},
  {"set_id": "s_grace", "creator_id": "grace", "title": "Compilers", "category": "technology", "card_count": 99, "created_at": "2024-01-07T00:00:00Z"},
  {"set_id": "s_ghost", "creator_id": "nobody", "title": "Lost", "category": "misc", "created_at": "2024-01-08T00:00:00Z"}
]`

const legacyCards = `[
  {"card_id": "c_small_1", "set_id": "s_small", "creator_id": "ada", "title": "Small one", "summary": "s", "order_index": 1},
  {"card_id": "c_small_2", "set_id": "s_small", "creator_id": "ada", "title": "Small two", "summary": "s", "order_index": 2},
  {"card_id": "c_big_1", "set_id": "s_big", "creator_id": "ada", "title": "Big one", "summary": "s", "order_index": 1},
  {"card_id": "c_big_2", "set_id": "s_big", "creator_id": "ada", "title": "Big two", "summary": "s", "order_index": 4},
  {"card_id": "c_grace_1", "set_id": "s_grace", "creator_id": "grace", "title": "Grace one", "summary": "s", "order_index": 1},
  {"card_id": "c_grace_1", "set_id": "s_grace", "creator_id": "grace", "title": "Repeated id", "summary": "s", "order_index": 2},
  {"card_id": "c_ghost", "set_id": "s_ghost", "creator_id": "nobody", "title": "Ghost", "summary": "s", "order_index": 1}
]`

func writeLegacyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		store.CreatorsFile: legacyCreators,
		store.SetsFile:     legacySets,
		store.CardsFile:    legacyCards,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func loadFixture(t *testing.T) *migrate.Snapshot {
	t.Helper()
	snap, err := migrate.LoadSnapshot(writeLegacyDir(t))
	require.NoError(t, err)
	return snap
}

func setIDs(sets []model.ContentSet) []string {
	ids := make([]string, 0, len(sets))
	for _, s := range sets {
		ids = append(ids, s.SetID)
	}
	return ids
}

func cardsBySet(cards []model.ContentCard) map[string][]string {
	out := map[string][]string{}
	for _, c := range cards {
		out[c.SetID] = append(out[c.SetID], c.CardID)
	}
	return out
}

func TestParseOrphanPolicy(t *testing.T) {
	for in, want := range map[string]migrate.OrphanPolicy{
		"":          migrate.OrphanDrop,
		"drop":      migrate.OrphanDrop,
		" Reassign": migrate.OrphanReassign,
	} {
		got, err := migrate.ParseOrphanPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := migrate.ParseOrphanPolicy("keep")
	assert.ErrorContains(t, err, "unknown orphan policy")
}

func TestTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, raw := range []string{
		`"2024-01-02T03:04:05Z"`,
		`"2024-01-02T03:04:05"`,
		`"2024-01-02 03:04:05"`,
		`"2024-01-02T04:04:05+01:00"`,
	} {
		var ts migrate.Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, want.Equal(ts.Time), raw)
		assert.Equal(t, time.UTC, ts.Location(), raw)
	}

	var ts migrate.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-02"`), &ts))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ts.Time)

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestNormalizeCreatorFoldsLegacyFields(t *testing.T) {
	snap := loadFixture(t)
	c := migrate.NormalizeCreator(snap.Creators[0])

	assert.Equal(t, "ada", c.CreatorID)
	assert.Equal(t, []model.Platform{
		{Platform: "youtube", Handle: "ada"},
		{Platform: "instagram", Handle: "ada.codes"},
		{Platform: "linkedin", Handle: "ada-l"},
	}, c.Platforms, "legacy pair first, then social links in file order minus the legacy handle and blanks")
	assert.Equal(t, "@ada", c.SocialLinks["twitter"])
	assert.Equal(t, model.DefaultCreatorStyle, c.ContentStyle)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), c.CreatedAt)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
}

func TestNormalizeCreatorKeepsExistingPlatforms(t *testing.T) {
	snap := loadFixture(t)
	c := migrate.NormalizeCreator(snap.Creators[1])

	assert.Equal(t, []model.Platform{{Platform: "website", Handle: "grace.dev"}}, c.Platforms)
	assert.NotNil(t, c.SocialLinks)
	assert.NotNil(t, c.Categories)
}

func TestNormalizeCreatorDropsExactRepeats(t *testing.T) {
	var lc migrate.LegacyCreator
	require.NoError(t, json.Unmarshal([]byte(`{
		"creator_id": "linus",
		"display_name": "Linus",
		"platforms": [{"platform": "GitHub", "handle": "torvalds"}],
		"platform": "github",
		"platform_handle": "torvalds",
		"social_links": {"twitter": "linus", "Twitter": "linus"}
	}`), &lc))

	c := migrate.NormalizeCreator(lc)
	assert.Equal(t, []model.Platform{
		{Platform: "github", Handle: "torvalds"},
		{Platform: "twitter", Handle: "linus"},
	}, c.Platforms)
}

func TestNormalizeCreatorAssignsMissingID(t *testing.T) {
	var lc migrate.LegacyCreator
	require.NoError(t, json.Unmarshal([]byte(`{"display_name": "José Núñez"}`), &lc))
	c := migrate.NormalizeCreator(lc)
	assert.Regexp(t, `^jose_nunez_[0-9a-f]{8}$`, c.CreatorID)
}

func TestDedupSetsKeepsHighestCount(t *testing.T) {
	long := "A very long title that shares its first fifty characters with another"
	sets := []model.ContentSet{
		{SetID: "a", CreatorID: "ada", Title: "Engines", CardCount: 3},
		{SetID: "other", CreatorID: "grace", Title: "Engines", CardCount: 1},
		{SetID: "b", CreatorID: "ada", Title: "Engines", CardCount: 7},
		{SetID: "c", CreatorID: "ada", Title: "Engines", CardCount: 7},
		{SetID: "d", CreatorID: "ada", Title: long + " one", CardCount: 2},
		{SetID: "e", CreatorID: "ada", Title: long + " two", CardCount: 2},
	}
	out, winnerOf := migrate.DedupSets(sets)

	assert.Equal(t, []string{"b", "other", "d"}, setIDs(out))
	assert.Equal(t, map[string]string{"a": "b", "c": "b", "e": "d"}, winnerOf)
}

func TestPlanDropsCardsOfDiscardedDuplicate(t *testing.T) {
	res := migrate.Plan(loadFixture(t), migrate.OrphanDrop)

	assert.Equal(t, []string{"s_big", "s_grace"}, setIDs(res.Sets))
	assert.Equal(t, map[string][]string{
		"s_big":   {"c_big_1", "c_big_2"},
		"s_grace": {"c_grace_1"},
	}, cardsBySet(res.Cards))
	for _, s := range res.Sets {
		assert.Equal(t, len(cardsBySet(res.Cards)[s.SetID]), s.CardCount, s.SetID)
	}

	rep := res.Report
	assert.Equal(t, "drop", rep.OrphanPolicy)
	assert.Equal(t, 2, rep.CreatorsIn)
	assert.Equal(t, 4, rep.SetsIn)
	assert.Equal(t, 1, rep.SetsOrphaned)
	assert.Equal(t, 1, rep.SetsDuplicate)
	assert.Equal(t, 2, rep.SetsAfterDedup)
	assert.Equal(t, 7, rep.CardsIn)
	assert.Equal(t, 3, rep.CardsMigrated)
	assert.Equal(t, 4, rep.CardsDropped)
	assert.Equal(t, 0, rep.CardsReassigned)
	assert.Equal(t, []migrate.CreatorTotal{
		{CreatorID: "ada", DisplayName: "Ada Lovelace", Platforms: 3, Sets: 1, Cards: 2},
		{CreatorID: "grace", DisplayName: "Grace Hopper", Platforms: 1, Sets: 1, Cards: 1},
	}, rep.Creators)
}

func TestPlanReassignAppendsAfterWinner(t *testing.T) {
	res := migrate.Plan(loadFixture(t), migrate.OrphanReassign)

	assert.Equal(t, map[string][]string{
		"s_big":   {"c_big_1", "c_big_2", "c_small_1", "c_small_2"},
		"s_grace": {"c_grace_1"},
	}, cardsBySet(res.Cards))

	order := map[string]int{}
	for _, c := range res.Cards {
		order[c.CardID] = c.OrderIndex
	}
	assert.Equal(t, 5, order["c_small_1"])
	assert.Equal(t, 6, order["c_small_2"])
	assert.Equal(t, 4, res.Sets[0].CardCount)
	assert.Equal(t, 2, res.Report.CardsReassigned)
	assert.Equal(t, 2, res.Report.CardsDropped)
}

func TestPlanSkipsRepeatedCreator(t *testing.T) {
	snap := loadFixture(t)
	snap.Creators = append(snap.Creators, snap.Creators[0])
	res := migrate.Plan(snap, migrate.OrphanDrop)
	assert.Len(t, res.Creators, 2)
	assert.Equal(t, 1, res.Report.CreatorsSkipped)
}

func TestLoadSnapshotMissingFiles(t *testing.T) {
	snap, err := migrate.LoadSnapshot(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, snap.Creators)
	assert.Empty(t, snap.Sets)
	assert.Empty(t, snap.Cards)

	_, err = migrate.LoadSnapshot(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.SetsFile), []byte(`{"not":"array"}`), 0o644))
	_, err = migrate.LoadSnapshot(dir)
	assert.ErrorContains(t, err, store.SetsFile)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	target, err := store.OpenMemory(logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { target.Close() })

	rep, err := migrate.New(target, migrate.Options{DryRun: true}, logger.Nop()).
		Run(context.Background(), writeLegacyDir(t))
	require.NoError(t, err)
	assert.True(t, rep.DryRun)
	assert.Equal(t, 3, rep.CardsMigrated)

	creators, err := target.Creators().List(context.Background(), store.CreatorFilter{})
	require.NoError(t, err)
	assert.Empty(t, creators)

	var buf bytes.Buffer
	rep.Print(&buf)
	assert.Contains(t, buf.String(), "Migration dry run (orphan policy: drop)")
	assert.Contains(t, buf.String(), "Ada Lovelace (ada): 3 platforms, 1 sets, 2 cards")
}

func TestRunAppliesIntoTarget(t *testing.T) {
	ctx := context.Background()
	target, err := store.OpenMemory(logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { target.Close() })
	dir := writeLegacyDir(t)

	rep, err := migrate.New(target, migrate.Options{Orphans: migrate.OrphanReassign}, logger.Nop()).Run(ctx, dir)
	require.NoError(t, err)
	assert.False(t, rep.DryRun)

	set, err := target.Sets().Get(ctx, "s_big")
	require.NoError(t, err)
	assert.Equal(t, 4, set.CardCount)
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), set.CreatedAt)

	grace, err := target.Sets().Get(ctx, "s_grace")
	require.NoError(t, err)
	assert.Equal(t, 1, grace.CardCount, "legacy count of 99 is recomputed")

	cards, err := target.Cards().List(ctx, store.CardFilter{SetID: "s_big"})
	require.NoError(t, err)
	require.Len(t, cards, 4)
	assert.Equal(t, "c_small_2", cards[3].CardID)

	_, err = target.Sets().Get(ctx, "s_small")
	assert.Error(t, err)

	// A second run without reset collides with the migrated records.
	_, err = migrate.New(target, migrate.Options{}, logger.Nop()).Run(ctx, dir)
	assert.Error(t, err)

	rep, err = migrate.New(target, migrate.Options{Reset: true}, logger.Nop()).Run(ctx, dir)
	require.NoError(t, err)
	assert.True(t, rep.Reset)
	cards, err = target.Cards().List(ctx, store.CardFilter{})
	require.NoError(t, err)
	assert.Len(t, cards, 3)
}

func TestRunIntoFileBackend(t *testing.T) {
	ctx := context.Background()
	target, err := store.NewFileBackend(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	_, err = migrate.New(target, migrate.Options{}, logger.Nop()).Run(ctx, writeLegacyDir(t))
	require.NoError(t, err)

	creator, err := target.Creators().Get(ctx, "ada")
	require.NoError(t, err)
	assert.Len(t, creator.Platforms, 3)
	sets, err := target.Sets().List(ctx, store.SetFilter{CreatorID: "ada"})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 2, sets[0].CardCount)
}
