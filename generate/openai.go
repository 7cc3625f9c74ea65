package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

var cardDraftSchema = reflectSchema[CardDraft]()

func reflectSchema[T any]() any {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// OpenAIProvider drafts cards with the chat completions API using a strict
// JSON schema response format.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider builds a provider for apiKey. Extra options (base URL,
// HTTP client) are passed to the client.
func NewOpenAIProvider(apiKey, model string, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIProvider{client: openai.NewClient(opts...), model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) GenerateCard(ctx context.Context, cp CardPrompt) (*CardDraft, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You write short educational content cards in Brazilian Portuguese."),
			openai.UserMessage(cardPrompt(cp)),
		},
		Model: openai.ChatModel(p.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "content_card",
					Description: openai.String("One educational content card"),
					Schema:      cardDraftSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}
	raw := completion.Choices[0].Message.Content
	var draft CardDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("openai: decode card: %w", err)
	}
	return &draft, nil
}

func cardPrompt(cp CardPrompt) string {
	return fmt.Sprintf(`Write card %d of %d in a series about "%s".
Content type: %s. Writing style: %s.
Each card should cover a different aspect of the topic than the others in the series.
Keep the summary under 200 characters and use at most five tags.`,
		cp.Index, cp.Total, cp.Topic, cp.ContentType, cp.Style)
}
