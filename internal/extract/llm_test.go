package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// fakeCompleter returns a canned completion or error.
type fakeCompleter struct {
	content string
	err     error
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestLLMExtractor(f *fakeCompleter) *LLMExtractor {
	return &LLMExtractor{
		client:  f,
		model:   openai.GPT4oMini,
		timeout: time.Second,
	}
}

func TestLLMExtractor_StructuredTerms(t *testing.T) {
	e := newTestLLMExtractor(&fakeCompleter{
		content: `{"flat_discount": 0, "percent_discount": 10, "max_cap": 1000, "min_order_value": 5000}`,
	})

	terms := e.Extract(context.Background(), "10% off up to ₹1000 on orders above ₹5000")

	if terms.PercentDiscount != 10 {
		t.Errorf("Expected percent discount 10, got %v", terms.PercentDiscount)
	}
	if terms.MaxCap != 1000 {
		t.Errorf("Expected max cap 1000, got %v", terms.MaxCap)
	}
	if terms.MinOrderValue != 5000 {
		t.Errorf("Expected min order value 5000, got %v", terms.MinOrderValue)
	}
}

func TestLLMExtractor_StripsNonJSONWrapping(t *testing.T) {
	e := newTestLLMExtractor(&fakeCompleter{
		content: "Sure, here are the extracted terms:\n```json\n" +
			`{"flat_discount": 500, "percent_discount": 0, "max_cap": 0, "min_order_value": 2000}` +
			"\n```\nLet me know if you need anything else.",
	})

	terms := e.Extract(context.Background(), "Flat ₹500 off on orders above ₹2000")

	if terms.FlatDiscount != 500 {
		t.Errorf("Expected flat discount 500, got %v", terms.FlatDiscount)
	}
	if terms.MinOrderValue != 2000 {
		t.Errorf("Expected min order value 2000, got %v", terms.MinOrderValue)
	}
}

func TestLLMExtractor_CompletionError_ZeroDefault(t *testing.T) {
	e := newTestLLMExtractor(&fakeCompleter{err: errors.New("upstream timeout")})

	terms := e.Extract(context.Background(), "10% off on HDFC cards")

	if !terms.IsZero() {
		t.Errorf("Expected zero terms on completion error, got %+v", terms)
	}
}

func TestLLMExtractor_MalformedOutput_ZeroDefault(t *testing.T) {
	cases := []string{
		"I could not find any discount terms in that text.",
		`{"flat_discount": "five hundred"}`,
		"{broken json",
		"",
	}

	for _, content := range cases {
		e := newTestLLMExtractor(&fakeCompleter{content: content})

		terms := e.Extract(context.Background(), "some summary")

		if !terms.IsZero() {
			t.Errorf("Expected zero terms for output %q, got %+v", content, terms)
		}
	}
}

func TestLLMExtractor_NoChoices_ZeroDefault(t *testing.T) {
	e := &LLMExtractor{
		client:  &emptyCompleter{},
		model:   openai.GPT4oMini,
		timeout: time.Second,
	}

	terms := e.Extract(context.Background(), "some summary")

	if !terms.IsZero() {
		t.Errorf("Expected zero terms when completion has no choices, got %+v", terms)
	}
}

type emptyCompleter struct{}

func (e *emptyCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

func TestLLMExtractor_NegativeValuesCoerced(t *testing.T) {
	e := newTestLLMExtractor(&fakeCompleter{
		content: `{"flat_discount": -100, "percent_discount": 15, "max_cap": -1, "min_order_value": 0}`,
	})

	terms := e.Extract(context.Background(), "15% off")

	if terms.FlatDiscount != 0 {
		t.Errorf("Expected negative flat discount coerced to 0, got %v", terms.FlatDiscount)
	}
	if terms.MaxCap != 0 {
		t.Errorf("Expected negative max cap coerced to 0, got %v", terms.MaxCap)
	}
	if terms.PercentDiscount != 15 {
		t.Errorf("Expected percent discount 15, got %v", terms.PercentDiscount)
	}
}
