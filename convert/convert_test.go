package convert_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/content-builder/convert"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/store"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func fixture() ([]model.Creator, []model.ContentSet, []model.ContentCard) {
	creators := []model.Creator{
		{CreatorID: "ada_lovelace_1f3c9e2a", DisplayName: "Ada Lovelace",
			Platforms:  []model.Platform{{Platform: "youtube", Handle: "ada"}},
			Categories: []string{"science_tech", "wellness"}},
		{CreatorID: "Grace-Hopper", DisplayName: "Grace", AvatarURL: "data/images/grace.png",
			FollowerCount: ptr(42)},
	}
	sets := []model.ContentSet{
		{SetID: "set_a", CreatorID: "ada_lovelace_1f3c9e2a", Title: "Engines", Category: "science_tech",
			Tags: []string{"1", "2", "3", "4", "5", "6"}},
		{SetID: "set_b", CreatorID: "Grace-Hopper", Title: "Conteúdo sobre compiladores", Category: "unknown_cat"},
		{SetID: "set_empty", CreatorID: "Grace-Hopper", Title: "Nothing yet", Category: "nutrition",
			LearningOutcomes: []string{"Keep"}},
	}
	cards := []model.ContentCard{
		{CardID: "b2", SetID: "set_b", CreatorID: "Grace-Hopper", Title: "Second", Summary: "s", OrderIndex: 2},
		{CardID: "a2", SetID: "set_a", CreatorID: "ada_lovelace_1f3c9e2a", Title: "Why?", Summary: strings.Repeat("x", 250),
			OrderIndex: 2, DomainData: map[string]any{"topic": "Gears"}},
		{CardID: "a1", SetID: "set_a", CreatorID: "ada_lovelace_1f3c9e2a", Title: "First?", Summary: "s", OrderIndex: 1,
			Tags: []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"}},
		{CardID: "b1", SetID: "set_b", CreatorID: "Grace-Hopper", Title: "Opening?", Summary: "s", OrderIndex: 1},
		{CardID: "x1", SetID: "set_gone", CreatorID: "Grace-Hopper", Title: "Stray?", Summary: "s", OrderIndex: 1},
	}
	return creators, sets, cards
}

func ptr[T any](v T) *T { return &v }

func TestConvertIsDeterministicForSeed(t *testing.T) {
	c1, s1, k1 := fixture()
	c2, s2, k2 := fixture()
	a := convert.NewSeeded(7, fixedNow).Convert(c1, s1, k1)
	b := convert.NewSeeded(7, fixedNow).Convert(c2, s2, k2)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestConvertNumbering(t *testing.T) {
	out := convert.NewSeeded(1, fixedNow).Convert(fixture())

	require.Len(t, out.Sets, 3)
	assert.Equal(t, "s001", out.Sets[0].SetNumber)
	assert.Equal(t, "s002", out.Sets[1].SetNumber)
	assert.Equal(t, "s003", out.Sets[2].SetNumber)
	assert.Equal(t, "./images/sets/s002/thumbnail.jpg", out.Sets[1].ThumbnailURL)

	type numbered struct{ id, card, set string }
	var got []numbered
	for _, c := range out.Cards {
		got = append(got, numbered{c.CardID, c.CardNumber, c.SetID})
	}
	assert.Equal(t, []numbered{
		{"b1", "c001", "set_b"},
		{"b2", "c002", "set_b"},
		{"a1", "c001", "set_a"},
		{"a2", "c002", "set_a"},
		{"x1", "c001", "set_gone"},
	}, got)

	assert.Equal(t, 2, out.Sets[0].CardCount)
	assert.Equal(t, 2, out.Sets[1].CardCount)
	assert.Equal(t, 0, out.Sets[2].CardCount)
	for _, c := range out.Cards[:4] {
		assert.Equal(t, 2, c.NavigationContexts["thematic"].TotalItems, c.CardID)
	}
	for _, m := range out.Cards[4].Media {
		assert.True(t, strings.HasPrefix(m.URL, "./images/sets/s000/"), m.URL)
	}
}

func TestConvertCreators(t *testing.T) {
	out := convert.NewSeeded(3, fixedNow).Convert(fixture())

	ada, grace := out.Creators[0], out.Creators[1]
	assert.Equal(t, "ada_lovelace", ada.CreatorID)
	assert.Equal(t, "youtube", ada.Platform)
	assert.Equal(t, "ada", ada.PlatformHandle)
	assert.Equal(t, "https://placehold.co/100x100/6366F1/FFF?text=A", ada.AvatarURL)
	assert.Equal(t, "https://placehold.co/600x200/6366F1/FFF?text=Ada Lovelace", ada.BannerURL)
	assert.GreaterOrEqual(t, ada.FollowerCount, 1000)
	assert.LessOrEqual(t, ada.FollowerCount, 100000)
	assert.Equal(t, []string{"Ciência", "Tecnologia", "Inovação"}, ada.ExpertiseAreas)

	assert.Equal(t, "gracehopper", grace.CreatorID)
	assert.Equal(t, "multi", grace.Platform)
	assert.Equal(t, "./images/creators/gracehopper/avatar.jpg", grace.AvatarURL)
	assert.Equal(t, 42, grace.FollowerCount)
	assert.Equal(t, []string{}, grace.ExpertiseAreas)

	assert.Equal(t, "ada_lovelace", out.Sets[0].CreatorID)
	assert.Equal(t, "gracehopper", out.Cards[0].CreatorID)
}

func TestConvertSets(t *testing.T) {
	out := convert.NewSeeded(5, fixedNow).Convert(fixture())

	a, b, empty := out.Sets[0], out.Sets[1], out.Sets[2]
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, a.Tags)
	assert.Equal(t, "#3B82F6", a.ColorScheme.Primary)
	assert.Equal(t, []string{"Ciência", "Tecnologia"}, a.TagLabels[:2])
	assert.LessOrEqual(t, len(a.TagLabels), 3)
	assert.Equal(t, "Engines", a.Title)
	assert.Len(t, a.LearningOutcomes, 2)

	assert.Contains(t, []string{"Conteúdo Educativo", "Aprendizado Interativo"}, b.Title)
	assert.Equal(t, "#6366F1", b.ColorScheme.Primary)
	assert.Equal(t, []string{"Conteúdo", "Educativo"}, b.TagLabels[:2])
	assert.ElementsMatch(t, []string{"Adquirir novos conhecimentos", "Aplicar conceitos na prática"}, b.LearningOutcomes)

	assert.Equal(t, []string{"Keep"}, empty.LearningOutcomes)
	for _, s := range out.Sets {
		assert.GreaterOrEqual(t, s.Stats.Views, 100)
		assert.LessOrEqual(t, s.Stats.Views, 5000)
		assert.GreaterOrEqual(t, s.Stats.CompletionRate, 0.6)
		assert.LessOrEqual(t, s.Stats.CompletionRate, 0.95)
		assert.Equal(t, []string{"thematic", "random"}, s.SupportedNavigation)
	}
}

func TestConvertCards(t *testing.T) {
	out := convert.NewSeeded(9, fixedNow).Convert(fixture())
	byID := map[string]convert.Card{}
	for _, c := range out.Cards {
		byID[c.CardID] = c
	}

	a1, a2 := byID["a1"], byID["a2"]
	assert.Equal(t, "First?", a1.Title, "question titles are left alone")
	assert.Len(t, a1.Tags, 7)
	assert.Equal(t, []string{"t1", "t2", "t3"}, a1.DomainData["related_concepts"])
	assert.Equal(t, []string{"conceito1", "conceito2", "conceito3"}, a2.DomainData["related_concepts"])
	assert.Len(t, a2.Summary, 200)
	assert.Equal(t, "Gears", a2.NavigationContexts["thematic"].ContextData["theme"])
	assert.Equal(t, "Tema Geral", a1.NavigationContexts["thematic"].ContextData["theme"])
	assert.Equal(t, 2, a2.NavigationContexts["thematic"].Position)

	for _, c := range out.Cards {
		for _, m := range c.Media {
			assert.Equal(t, "2024-05-01T12:00:00Z", m.LastChecked)
			assert.Equal(t, "./images/sets/"+setNumber(out, c.SetID)+"/cards/"+c.CardNumber+".jpg", m.URL)
		}
		assert.NotNil(t, c.Media)
	}
}

func setNumber(out *convert.Output, setID string) string {
	for _, s := range out.Sets {
		if s.SetID == setID {
			return s.SetNumber
		}
	}
	return "s000"
}

func TestQuestionTitle(t *testing.T) {
	for in, want := range map[string]string{
		"Engines: How They Work": "Como how they work?",
		"O Motor Analítico":      "O que é o motor analítico?",
		"Gears":                  "Como entender gears?",
		"":                       "",
	} {
		assert.Equal(t, want, convert.QuestionTitle(in), in)
	}
}

func TestCleanCreatorID(t *testing.T) {
	c := convert.NewSeeded(0, fixedNow)
	assert.Equal(t, "ada_lovelace", c.CleanCreatorID("ada_lovelace_1f3c9e2a"))
	assert.Equal(t, "ada_lovelace_zz", c.CleanCreatorID("Ada_Lovelace_ZZ"))
	assert.Equal(t, "bob", c.CleanCreatorID("bob!"))
}

func TestConvertDir(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	b, err := store.NewFileBackend(src, logger.Nop())
	require.NoError(t, err)
	creators, sets, cards := fixture()
	for i := range creators {
		_, err := b.Creators().Create(ctx, &creators[i])
		require.NoError(t, err)
	}
	for i := range sets {
		_, err := b.Sets().Create(ctx, &sets[i])
		require.NoError(t, err)
	}
	for i := range cards[:4] {
		_, err := b.Cards().Create(ctx, &cards[i])
		require.NoError(t, err)
	}

	outDir := filepath.Join(t.TempDir(), "viewer")
	res, err := convert.ConvertDir(ctx, src, outDir, 11, fixedNow, logger.Nop())
	require.NoError(t, err)
	assert.Len(t, res.Cards, 4)

	again, err := convert.ConvertDir(ctx, src, filepath.Join(t.TempDir(), "again"), 11, fixedNow, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, res, again)

	for _, name := range []string{store.CreatorsFile, store.SetsFile, store.CardsFile} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		var arr []map[string]any
		require.NoError(t, json.Unmarshal(data, &arr), name)
		assert.NotEmpty(t, arr, name)
	}
	data, err := os.ReadFile(filepath.Join(outDir, store.SetsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags_pt": [
      "Ciência",`)

	_, err = convert.ConvertDir(ctx, filepath.Join(src, "missing"), outDir, 1, fixedNow, logger.Nop())
	assert.Error(t, err)
}
