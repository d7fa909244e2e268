package extract

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"payment-offers-api/internal/models"
)

const systemPrompt = "You are a promotional-offer parsing assistant. " +
	"You read one offer summary and reply with JSON only."

const extractionPrompt = `Extract the discount terms from this offer summary.
Reply with a single JSON object with exactly these numeric fields, using 0
for any field that is absent:
{"flat_discount": 0, "percent_discount": 0, "max_cap": 0, "min_order_value": 0}

Offer summary: `

// chatCompleter is the slice of the OpenAI client the extractor needs.
// *openai.Client satisfies it; tests substitute a fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMExtractor is the text-understanding extraction strategy. Unlike the
// regex pass it can populate all four term fields, at the cost of latency
// and nondeterminism. Every failure mode — timeout, API error, malformed
// or non-numeric output — resolves to the zero-valued default.
type LLMExtractor struct {
	client  chatCompleter
	model   string
	timeout time.Duration
}

// NewLLMExtractor builds a text-understanding extractor with its own
// client. The timeout bounds each extraction call; expiry counts as
// extraction failure, never as a caller-visible error.
func NewLLMExtractor(apiKey, model string, timeout time.Duration) *LLMExtractor {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LLMExtractor{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

// Extract sends the summary with a fixed extraction prompt and parses the
// response as a structured term set.
func (e *LLMExtractor) Extract(ctx context.Context, summary string) models.DiscountTerms {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: extractionPrompt + summary},
		},
		Temperature: 0.1,
	})
	if err != nil {
		log.Printf("extract: completion failed, falling back to zero terms: %v", err)
		return models.DiscountTerms{}
	}
	if len(resp.Choices) == 0 {
		log.Printf("extract: completion returned no choices, falling back to zero terms")
		return models.DiscountTerms{}
	}

	terms, err := parseTerms(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("extract: unparseable completion, falling back to zero terms: %v", err)
		return models.DiscountTerms{}
	}

	return terms
}

// parseTerms strips any non-JSON wrapping (markdown fences, prose) from
// the model output and decodes the term set. Negative values are coerced
// to 0 to preserve the all-nonnegative contract.
func parseTerms(raw string) (models.DiscountTerms, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return models.DiscountTerms{}, errors.New("no JSON object in completion")
	}

	var terms models.DiscountTerms
	if err := json.Unmarshal([]byte(raw[start:end+1]), &terms); err != nil {
		return models.DiscountTerms{}, err
	}

	if terms.FlatDiscount < 0 {
		terms.FlatDiscount = 0
	}
	if terms.PercentDiscount < 0 {
		terms.PercentDiscount = 0
	}
	if terms.MaxCap < 0 {
		terms.MaxCap = 0
	}
	if terms.MinOrderValue < 0 {
		terms.MinOrderValue = 0
	}

	return terms, nil
}
