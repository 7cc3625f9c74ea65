// Package generate drafts content cards for a topic with a language model and
// stores them as a new draft set. A batch succeeds partially: a card the
// provider fails to produce is logged and skipped.
package generate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/store"
)

const (
	DefaultNumCards = 5
	MaxNumCards     = 20
	minutesPerCard  = 5
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("content generation is not available; check AI provider configuration")

// Request is the body of a generation call.
type Request struct {
	CreatorID   string `json:"creator_id"`
	Topic       string `json:"topic"`
	NumCards    int    `json:"num_cards"`
	Style       string `json:"style"`
	ContentType string `json:"content_type"`
	LLMProvider string `json:"llm_provider"`
}

// Response reports a generation batch.
type Response struct {
	Success        bool     `json:"success"`
	SetID          string   `json:"set_id,omitempty"`
	CardsRequested int      `json:"cards_requested"`
	CardsGenerated int      `json:"cards_generated"`
	Message        string   `json:"message"`
	Errors         []string `json:"errors"`
}

// CardPrompt is what a provider is asked to write.
type CardPrompt struct {
	Topic       string
	ContentType string
	Style       string
	Index       int
	Total       int
}

// CardDraft is the structured answer of a provider.
type CardDraft struct {
	Title           string   `json:"title" jsonschema_description:"Short, engaging card title"`
	Summary         string   `json:"summary" jsonschema_description:"One or two sentence summary shown on the card face"`
	DetailedContent string   `json:"detailed_content" jsonschema_description:"Full explanation shown when the card is opened"`
	Difficulty      string   `json:"difficulty" jsonschema:"enum=beginner,enum=intermediate,enum=advanced"`
	Guidance        string   `json:"guidance" jsonschema_description:"A practical tip for the reader"`
	Tags            []string `json:"tags" jsonschema_description:"Up to five lowercase keywords"`
}

// Provider writes one card at a time.
type Provider interface {
	Name() string
	GenerateCard(ctx context.Context, p CardPrompt) (*CardDraft, error)
}

// Service runs generation batches against a data manager.
type Service struct {
	data      *store.DataManager
	providers map[string]Provider
	fallback  string
	log       *logger.Logger
}

// NewService registers providers by name. The first one is used when a
// request names none.
func NewService(data *store.DataManager, log *logger.Logger, providers ...Provider) *Service {
	s := &Service{
		data:      data,
		providers: map[string]Provider{},
		log:       log.With("component", "generate"),
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if s.fallback == "" {
			s.fallback = p.Name()
		}
		s.providers[strings.ToLower(p.Name())] = p
	}
	return s
}

// Available reports whether at least one provider is configured.
func (s *Service) Available() bool { return len(s.providers) > 0 }

func (s *Service) providerNames() []string {
	names := make([]string, 0, len(s.providers))
	for n := range s.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Service) provider(name string) (Provider, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	if name == "" {
		name = s.fallback
	}
	p, ok := s.providers[strings.ToLower(name)]
	if !ok {
		return nil, apperr.Validation("llm_provider", name, fmt.Sprintf(
			"provider %q is not available. Available providers: %s", name, strings.Join(s.providerNames(), ", ")))
	}
	return p, nil
}

// Generate checks the creator exists, creates a draft set titled
// "Generated: <topic>" and asks the provider for each card in turn. Cards
// that fail are reported in Errors and skipped.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, apperr.Validation("topic", req.Topic, "topic is required")
	}
	if req.NumCards == 0 {
		req.NumCards = DefaultNumCards
	}
	if req.NumCards < 1 || req.NumCards > MaxNumCards {
		return nil, apperr.Validation("num_cards", req.NumCards,
			fmt.Sprintf("num_cards must be between 1 and %d", MaxNumCards))
	}
	if req.ContentType == "" {
		req.ContentType = "general"
	}
	if req.Style == "" {
		req.Style = model.DefaultCreatorStyle
	}

	provider, err := s.provider(req.LLMProvider)
	if err != nil {
		return nil, err
	}
	if _, err := s.data.Creators().Get(ctx, req.CreatorID); err != nil {
		return nil, err
	}

	set, err := s.data.Sets().Create(ctx, &model.ContentSet{
		CreatorID:            req.CreatorID,
		Title:                "Generated: " + req.Topic,
		Description:          "AI-generated content about: " + req.Topic,
		Category:             req.ContentType,
		DifficultyLevel:      model.DefaultDifficulty,
		TargetAudience:       model.DefaultTargetAudience,
		ContentStyle:         req.Style,
		EstimatedTimeMinutes: req.NumCards * minutesPerCard,
		Status:               model.DefaultSetStatus,
		Language:             model.DefaultLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("create generated set: %w", err)
	}
	log := s.log.With("set_id", set.SetID, "provider", provider.Name(), "topic", req.Topic)

	resp := &Response{SetID: set.SetID, CardsRequested: req.NumCards, Errors: []string{}}
	for i := 1; i <= req.NumCards; i++ {
		if err := s.generateCard(ctx, provider, req, set.SetID, i); err != nil {
			log.Warn("card generation failed", "card", i, "error", err)
			resp.Errors = append(resp.Errors, fmt.Sprintf("card %d: %v", i, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		resp.CardsGenerated++
	}

	resp.Success = resp.CardsGenerated > 0
	if resp.Success {
		resp.Message = fmt.Sprintf("Successfully generated %d cards for '%s'", resp.CardsGenerated, req.Topic)
	} else {
		resp.Message = "Content generation failed"
	}
	log.Info("generation finished", "requested", resp.CardsRequested, "generated", resp.CardsGenerated)
	return resp, nil
}

func (s *Service) generateCard(ctx context.Context, p Provider, req Request, setID string, i int) error {
	draft, err := p.GenerateCard(ctx, CardPrompt{
		Topic:       req.Topic,
		ContentType: req.ContentType,
		Style:       req.Style,
		Index:       i,
		Total:       req.NumCards,
	})
	if err != nil {
		return err
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = fmt.Sprintf("Card %d: %s", i, req.Topic)
	}
	if strings.TrimSpace(draft.Summary) == "" {
		return errors.New("provider returned an empty summary")
	}
	difficulty := draft.Difficulty
	if difficulty == "" {
		difficulty = model.DefaultDifficulty
	}
	_, err = s.data.Cards().Create(ctx, &model.ContentCard{
		SetID:           setID,
		CreatorID:       req.CreatorID,
		Title:           title,
		Summary:         draft.Summary,
		DetailedContent: draft.DetailedContent,
		OrderIndex:      i,
		DomainData: map[string]any{
			"topic":                req.Topic,
			"difficulty":           difficulty,
			"guidance":             draft.Guidance,
			"ai_provider":          p.Name(),
			"generation_timestamp": model.Now().Format(time.RFC3339Nano),
		},
		Tags: draft.Tags,
	})
	return err
}
