package generate_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/generate"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/store"
)

// fakeProvider fails on the card indices listed in failOn.
type fakeProvider struct {
	failOn  map[int]bool
	prompts []generate.CardPrompt
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GenerateCard(ctx context.Context, p generate.CardPrompt) (*generate.CardDraft, error) {
	f.prompts = append(f.prompts, p)
	if f.failOn[p.Index] {
		return nil, errors.New("model overloaded")
	}
	return &generate.CardDraft{
		Title:   fmt.Sprintf("Card %d", p.Index),
		Summary: "About " + p.Topic,
		Tags:    []string{"tag"},
	}, nil
}

func newData(t *testing.T) *store.DataManager {
	t.Helper()
	b, err := store.OpenMemory(logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	dm := store.NewDataManager(b, logger.Nop())
	_, err = dm.Creators().Create(context.Background(), &model.Creator{CreatorID: "ada", DisplayName: "Ada"})
	require.NoError(t, err)
	return dm
}

func TestGeneratePartialSuccess(t *testing.T) {
	ctx := context.Background()
	dm := newData(t)
	fake := &fakeProvider{failOn: map[int]bool{2: true}}
	svc := generate.NewService(dm, logger.Nop(), fake)

	resp, err := svc.Generate(ctx, generate.Request{CreatorID: "ada", Topic: " Engines ", NumCards: 3})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.CardsRequested)
	assert.Equal(t, 2, resp.CardsGenerated)
	assert.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "card 2: model overloaded")
	assert.Equal(t, "Successfully generated 2 cards for 'Engines'", resp.Message)

	set, err := dm.Sets().Get(ctx, resp.SetID)
	require.NoError(t, err)
	assert.Equal(t, "Generated: Engines", set.Title)
	assert.Equal(t, "draft", set.Status)
	assert.Equal(t, "general", set.Category)
	assert.Equal(t, 15, set.EstimatedTimeMinutes)
	assert.Equal(t, 2, set.CardCount)

	cards, err := dm.Cards().List(ctx, store.CardFilter{SetID: resp.SetID})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, 1, cards[0].OrderIndex)
	assert.Equal(t, 3, cards[1].OrderIndex)
	assert.Equal(t, "Engines", cards[0].DomainData["topic"])
	assert.Equal(t, "fake", cards[0].DomainData["ai_provider"])
	assert.Equal(t, model.DefaultDifficulty, cards[0].DomainData["difficulty"])

	require.Len(t, fake.prompts, 3)
	assert.Equal(t, generate.CardPrompt{Topic: "Engines", ContentType: "general", Style: "educational", Index: 3, Total: 3}, fake.prompts[2])
}

func TestGenerateAllCardsFail(t *testing.T) {
	dm := newData(t)
	svc := generate.NewService(dm, logger.Nop(), &fakeProvider{failOn: map[int]bool{1: true}})

	resp, err := svc.Generate(context.Background(), generate.Request{CreatorID: "ada", Topic: "x", NumCards: 1})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Content generation failed", resp.Message)
	assert.NotEmpty(t, resp.SetID)
}

func TestGenerateErrors(t *testing.T) {
	ctx := context.Background()
	dm := newData(t)

	_, err := generate.NewService(dm, logger.Nop()).Generate(ctx, generate.Request{CreatorID: "ada", Topic: "x"})
	assert.ErrorIs(t, err, generate.ErrUnavailable)

	svc := generate.NewService(dm, logger.Nop(), &fakeProvider{})
	_, err = svc.Generate(ctx, generate.Request{CreatorID: "nobody", Topic: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Generate(ctx, generate.Request{CreatorID: "ada", Topic: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Generate(ctx, generate.Request{CreatorID: "ada", Topic: "x", NumCards: generate.MaxNumCards + 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Generate(ctx, generate.Request{CreatorID: "ada", Topic: "x", LLMProvider: "claude"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.ErrorContains(t, err, "Available providers: fake")

	sets, err := dm.Sets().List(ctx, store.SetFilter{})
	require.NoError(t, err)
	assert.Empty(t, sets, "no set is created when the request is rejected")
}

func TestGenerateDefaultsNumCards(t *testing.T) {
	dm := newData(t)
	fake := &fakeProvider{}
	resp, err := generate.NewService(dm, logger.Nop(), fake).
		Generate(context.Background(), generate.Request{CreatorID: "ada", Topic: "x", LLMProvider: "FAKE"})
	require.NoError(t, err)
	assert.Equal(t, generate.DefaultNumCards, resp.CardsGenerated)
}

func TestOpenAIProvider(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		content, _ := json.Marshal(generate.CardDraft{
			Title: "Gears", Summary: "Gears mesh.", Difficulty: "beginner", Tags: []string{"gears"},
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": string(content)},
			}},
		})
	}))
	defer srv.Close()

	p := generate.NewOpenAIProvider("sk-test", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	draft, err := p.GenerateCard(context.Background(), generate.CardPrompt{Topic: "Engines", Index: 1, Total: 2})
	require.NoError(t, err)
	assert.Equal(t, "Gears", draft.Title)
	assert.Equal(t, []string{"gears"}, draft.Tags)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "content_card", schema["name"])
	assert.Equal(t, true, schema["strict"])
}

func TestOpenAIProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := generate.NewOpenAIProvider("sk-bad", "gpt-4o", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	_, err := p.GenerateCard(context.Background(), generate.CardPrompt{Topic: "x", Index: 1, Total: 1})
	assert.ErrorContains(t, err, "openai")
}
