// Package convert reshapes canonical records into the display format read by
// the viewer: sequential set and card numbers, palettes and tag labels by
// category, placeholder artwork and filled-in learning outcomes. Cosmetic
// choices draw from a seeded source so a given seed always yields the same
// output.
package convert

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stevemurr/content-builder/model"
)

const (
	maxSetTags     = 5
	maxCardTags    = 7
	maxSummaryLen  = 200
	maxTitleLen    = 100
	heroRate       = 0.2
	mediaRate      = 0.8
	questionRate   = 0.7
	fallbackNumber = "s000"
)

var hexSuffixRe = regexp.MustCompile(`_[a-f0-9]{8}$`)

// Creator is the display form of a creator.
type Creator struct {
	CreatorID      string            `json:"creator_id"`
	DisplayName    string            `json:"display_name"`
	Platform       string            `json:"platform"`
	PlatformHandle string            `json:"platform_handle"`
	Platforms      []model.Platform  `json:"platforms"`
	AvatarURL      string            `json:"avatar_url"`
	BannerURL      string            `json:"banner_url"`
	Description    string            `json:"description"`
	Categories     []string          `json:"categories"`
	FollowerCount  int               `json:"follower_count"`
	Verified       bool              `json:"verified"`
	SocialLinks    map[string]string `json:"social_links"`
	ExpertiseAreas []string          `json:"expertise_areas"`
	ContentStyle   string            `json:"content_style"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// SetStats are the sample engagement figures shown on a set.
type SetStats struct {
	Views          int     `json:"views"`
	CompletionRate float64 `json:"completion_rate"`
}

// Set is the display form of a content set.
type Set struct {
	SetID                string      `json:"set_id"`
	SetNumber            string      `json:"set_number"`
	CreatorID            string      `json:"creator_id"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Category             string      `json:"category"`
	ThumbnailURL         string      `json:"thumbnail_url"`
	BannerURL            string      `json:"banner_url"`
	CardCount            int         `json:"card_count"`
	EstimatedTimeMinutes int         `json:"estimated_time_minutes"`
	DifficultyLevel      string      `json:"difficulty_level"`
	TargetAudience       string      `json:"target_audience"`
	SupportedNavigation  []string    `json:"supported_navigation"`
	ContentStyle         string      `json:"content_style"`
	Tags                 []string    `json:"tags"`
	TagLabels            []string    `json:"tags_pt"`
	IsHero               bool        `json:"is_hero"`
	Prerequisites        []string    `json:"prerequisites"`
	LearningOutcomes     []string    `json:"learning_outcomes"`
	ColorScheme          ColorScheme `json:"color_scheme"`
	Stats                SetStats    `json:"stats"`
	Status               string      `json:"status"`
	Language             string      `json:"language"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// Card is the display form of a content card.
type Card struct {
	CardID             string                             `json:"card_id"`
	CardNumber         string                             `json:"card_number"`
	SetID              string                             `json:"set_id"`
	CreatorID          string                             `json:"creator_id"`
	Title              string                             `json:"title"`
	Summary            string                             `json:"summary"`
	DetailedContent    string                             `json:"detailed_content"`
	OrderIndex         int                                `json:"order_index"`
	NavigationContexts map[string]model.NavigationContext `json:"navigation_contexts"`
	Media              []model.Media                      `json:"media"`
	DomainData         map[string]any                     `json:"domain_data"`
	Tags               []string                           `json:"tags"`
	CreatedAt          time.Time                          `json:"created_at"`
	UpdatedAt          time.Time                          `json:"updated_at"`
}

// Output is the result of one conversion run.
type Output struct {
	Creators []Creator
	Sets     []Set
	Cards    []Card
}

// Converter holds the state of one conversion run: the random source, the
// clock used for media check stamps, the set counter and the creator id map.
// It is not safe for concurrent use.
type Converter struct {
	rng        *rand.Rand
	now        func() time.Time
	setSeq     int
	creatorIDs map[string]string
}

// New returns a Converter drawing from rng. A nil clock means model.Now.
func New(rng *rand.Rand, now func() time.Time) *Converter {
	if now == nil {
		now = model.Now
	}
	return &Converter{rng: rng, now: now, creatorIDs: map[string]string{}}
}

// NewSeeded returns a Converter with a PCG source seeded from seed.
func NewSeeded(seed uint64, now func() time.Time) *Converter {
	return New(rand.New(rand.NewPCG(seed, seed)), now)
}

// Convert converts creators, then sets, then cards. Set numbers run s001,
// s002 across the run; card numbers restart at c001 for each set, following
// order_index. Card counts and navigation totals are recomputed from the
// converted cards.
func (c *Converter) Convert(creators []model.Creator, sets []model.ContentSet, cards []model.ContentCard) *Output {
	out := &Output{
		Creators: make([]Creator, 0, len(creators)),
		Sets:     make([]Set, 0, len(sets)),
		Cards:    make([]Card, 0, len(cards)),
	}
	for i := range creators {
		out.Creators = append(out.Creators, c.creator(&creators[i]))
	}

	numbers := map[string]string{}
	for i := range sets {
		n := c.nextSetNumber()
		numbers[sets[i].SetID] = n
		out.Sets = append(out.Sets, c.set(&sets[i], n))
	}

	var order []string
	bySet := map[string][]model.ContentCard{}
	for _, card := range cards {
		if _, ok := bySet[card.SetID]; !ok {
			order = append(order, card.SetID)
		}
		bySet[card.SetID] = append(bySet[card.SetID], card)
	}
	counts := map[string]int{}
	for _, setID := range order {
		group := bySet[setID]
		sortByOrderIndex(group)
		setNumber, ok := numbers[setID]
		if !ok {
			setNumber = fallbackNumber
		}
		for i := range group {
			out.Cards = append(out.Cards, c.card(&group[i], fmt.Sprintf("c%03d", i+1), setNumber))
		}
		counts[setID] = len(group)
	}

	for i := range out.Sets {
		out.Sets[i].CardCount = counts[out.Sets[i].SetID]
	}
	for i := range out.Cards {
		nav := out.Cards[i].NavigationContexts["thematic"]
		nav.TotalItems = counts[out.Cards[i].SetID]
		out.Cards[i].NavigationContexts["thematic"] = nav
	}
	return out
}

func (c *Converter) nextSetNumber() string {
	c.setSeq++
	return fmt.Sprintf("s%03d", c.setSeq)
}

// CleanCreatorID strips a trailing "_<8 hex>" suffix and keeps only
// [a-z0-9_]. Results are memoised for the run.
func (c *Converter) CleanCreatorID(id string) string {
	if v, ok := c.creatorIDs[id]; ok {
		return v
	}
	clean := hexSuffixRe.ReplaceAllString(id, "")
	clean = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return -1
	}, strings.ToLower(clean))
	c.creatorIDs[id] = clean
	return clean
}

func (c *Converter) creator(in *model.Creator) Creator {
	id := c.CleanCreatorID(in.CreatorID)
	out := Creator{
		CreatorID:      id,
		DisplayName:    in.DisplayName,
		Platform:       "multi",
		Platforms:      nonNil(in.Platforms),
		AvatarURL:      in.AvatarURL,
		BannerURL:      in.BannerURL,
		Description:    in.Description,
		Categories:     nonNil(in.Categories),
		Verified:       in.Verified,
		SocialLinks:    in.SocialLinks,
		ExpertiseAreas: nonNil(in.ExpertiseAreas),
		ContentStyle:   orDefault(in.ContentStyle, model.DefaultCreatorStyle),
		CreatedAt:      in.CreatedAt,
		UpdatedAt:      in.UpdatedAt,
	}
	if len(in.Platforms) == 1 {
		out.Platform = in.Platforms[0].Platform
	}
	if len(in.Platforms) > 0 {
		out.PlatformHandle = in.Platforms[0].Handle
	}
	if out.SocialLinks == nil {
		out.SocialLinks = map[string]string{}
	}

	initial := "C"
	if r, _ := utf8.DecodeRuneInString(id); r != utf8.RuneError {
		initial = strings.ToUpper(string(r))
	}
	switch {
	case strings.HasPrefix(out.AvatarURL, "data/images/"):
		out.AvatarURL = "./images/creators/" + id + "/avatar.jpg"
	case out.AvatarURL == "":
		out.AvatarURL = "https://placehold.co/100x100/6366F1/FFF?text=" + initial
	}
	switch {
	case strings.HasPrefix(out.BannerURL, "data/images/"):
		out.BannerURL = "./images/creators/" + id + "/banner.jpg"
	case out.BannerURL == "":
		out.BannerURL = "https://placehold.co/600x200/6366F1/FFF?text=" + orDefault(in.DisplayName, "Creator")
	}

	if in.FollowerCount != nil && *in.FollowerCount > 0 {
		out.FollowerCount = *in.FollowerCount
	} else {
		out.FollowerCount = 1000 + c.rng.IntN(99001)
	}
	if len(out.ExpertiseAreas) == 0 {
		out.ExpertiseAreas = expertiseFor(in.Categories)
	}
	return out
}

// expertiseFor collects up to three distinct areas from the categories.
func expertiseFor(categories []string) []string {
	areas := []string{}
	seen := map[string]bool{}
	for _, cat := range categories {
		for _, a := range expertiseByCategory[cat] {
			if len(areas) == 3 {
				return areas
			}
			if !seen[a] {
				seen[a] = true
				areas = append(areas, a)
			}
		}
	}
	return areas
}

func (c *Converter) set(in *model.ContentSet, number string) Set {
	category := orDefault(in.Category, "general")
	out := Set{
		SetID:                in.SetID,
		SetNumber:            number,
		CreatorID:            c.CleanCreatorID(in.CreatorID),
		Title:                in.Title,
		Description:          in.Description,
		Category:             category,
		ThumbnailURL:         "./images/sets/" + number + "/thumbnail.jpg",
		BannerURL:            "./images/sets/" + number + "/banner.jpg",
		EstimatedTimeMinutes: in.EstimatedTimeMinutes,
		DifficultyLevel:      orDefault(in.DifficultyLevel, "beginner"),
		TargetAudience:       orDefault(in.TargetAudience, "Público geral"),
		SupportedNavigation:  in.SupportedNavigation,
		ContentStyle:         orDefault(in.ContentStyle, "story_driven"),
		Tags:                 truncate(in.Tags, maxSetTags),
		Prerequisites:        nonNil(in.Prerequisites),
		LearningOutcomes:     in.LearningOutcomes,
		ColorScheme:          lookup(categoryColors, category, defaultColors),
		Status:               orDefault(in.Status, "published"),
		Language:             orDefault(in.Language, model.DefaultLanguage),
		CreatedAt:            in.CreatedAt,
		UpdatedAt:            in.UpdatedAt,
	}
	if out.EstimatedTimeMinutes == 0 {
		out.EstimatedTimeMinutes = model.DefaultEstimatedMinutes
	}
	if len(out.SupportedNavigation) == 0 {
		out.SupportedNavigation = []string{"thematic", "random"}
	}
	if utf8.RuneCountInString(out.Title) > maxTitleLen || strings.Contains(out.Title, "Conteúdo sobre") {
		out.Title = c.pick(lookup(titlesByCategory, category, defaultTitles))
	}
	out.TagLabels = c.tagLabels(category)
	out.IsHero = c.rng.Float64() < heroRate
	if len(out.LearningOutcomes) == 0 {
		out.LearningOutcomes = c.sample(lookup(outcomesByCategory, category, defaultOutcomes), 2)
	}
	out.Stats = SetStats{
		Views:          100 + c.rng.IntN(4901),
		CompletionRate: math.Round((0.6+c.rng.Float64()*0.35)*100) / 100,
	}
	return out
}

// tagLabels returns the first two labels of the category plus at most one
// highlight label.
func (c *Converter) tagLabels(category string) []string {
	base := lookup(categoryTagLabels, category, defaultTagLabels)
	labels := append([]string{}, base[:min(2, len(base))]...)
	var extra []string
	if c.rng.Float64() < 0.3 {
		extra = append(extra, "Destaque Principal")
	}
	if c.rng.Float64() < 0.5 {
		extra = append(extra, "Populares")
	}
	if c.rng.Float64() < 0.3 {
		extra = append(extra, "Novo")
	}
	if len(extra) > 0 {
		labels = append(labels, extra[0])
	}
	return labels
}

func (c *Converter) card(in *model.ContentCard, number, setNumber string) Card {
	id := c.CleanCreatorID(in.CreatorID)
	title := in.Title
	if !strings.HasSuffix(title, "?") && c.rng.Float64() < questionRate {
		title = QuestionTitle(title)
	}

	theme := "Tema Geral"
	if topic, ok := in.DomainData["topic"].(string); ok && topic != "" {
		theme = topic
	}
	position := in.OrderIndex
	if position <= 0 {
		position = 1
	}

	media := []model.Media{}
	if c.rng.Float64() < mediaRate {
		media = append(media, model.Media{
			MediaType:        "image",
			URL:              "./images/sets/" + setNumber + "/cards/" + number + ".jpg",
			AltText:          "Ilustração para " + title,
			Source:           id,
			License:          "Educational Use",
			ValidationStatus: "verified",
			LastChecked:      c.now().UTC().Format(time.RFC3339),
		})
	}

	related := truncate(in.Tags, 3)
	if len(related) == 0 {
		related = []string{"conceito1", "conceito2", "conceito3"}
	}

	return Card{
		CardID:          in.CardID,
		CardNumber:      number,
		SetID:           in.SetID,
		CreatorID:       id,
		Title:           title,
		Summary:         truncateRunes(in.Summary, maxSummaryLen),
		DetailedContent: in.DetailedContent,
		OrderIndex:      position,
		NavigationContexts: map[string]model.NavigationContext{
			"thematic": {Position: position, ContextData: map[string]any{"theme": theme}},
		},
		Media:      media,
		DomainData: map[string]any{"related_concepts": related},
		Tags:       truncate(in.Tags, maxCardTags),
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  in.UpdatedAt,
	}
}

// QuestionTitle turns a statement title into a question: "X: Y" becomes
// "Como y?", a leading article becomes "O que é ...?", anything else
// "Como entender ...?".
func QuestionTitle(title string) string {
	if _, after, ok := strings.Cut(title, ":"); ok {
		return "Como " + strings.ToLower(strings.TrimSpace(after)) + "?"
	}
	words := strings.Fields(strings.ToLower(title))
	if len(words) == 0 {
		return title
	}
	switch words[0] {
	case "o", "a", "os", "as":
		return "O que é " + strings.Join(words, " ") + "?"
	}
	return "Como entender " + strings.ToLower(title) + "?"
}

func (c *Converter) pick(options []string) string {
	return options[c.rng.IntN(len(options))]
}

// sample returns k distinct elements of options in random order.
func (c *Converter) sample(options []string, k int) []string {
	perm := c.rng.Perm(len(options))
	out := make([]string, 0, k)
	for _, i := range perm[:min(k, len(perm))] {
		out = append(out, options[i])
	}
	return out
}

func sortByOrderIndex(cards []model.ContentCard) {
	slices.SortStableFunc(cards, func(a, b model.ContentCard) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
}

func truncate(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string{}, s...)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
