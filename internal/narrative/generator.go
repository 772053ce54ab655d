// Package narrative writes the appeal narrative, using an LLM when one is
// configured and a template otherwise.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = string(anthropic.ModelClaudeSonnet4_20250514)

const maxTokens = 2048

// Narrative is a generated appeal narrative.
type Narrative struct {
	Text          string    `json:"text"`
	Synthetic     bool      `json:"synthetic"`
	PromptVersion string    `json:"prompt_version"`
	Cached        bool      `json:"cached"`
	CreatedAt     time.Time `json:"created_at"`
}

// AnthropicMessager is the part of the Anthropic client the generator uses.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClientCreator builds a messager for an API key.
type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// Generator produces narratives.
type Generator struct {
	messages AnthropicMessager
	model    string
	cache    *Cache
	now      func() time.Time
}

// NewGenerator creates a generator. With an empty apiKey every narrative is
// a template fallback. cache may be nil.
func NewGenerator(apiKey, model string, cache *Cache) *Generator {
	g := &Generator{model: model, cache: cache, now: time.Now}
	if g.model == "" {
		g.model = DefaultModel
	}
	if key := strings.TrimSpace(apiKey); key != "" {
		g.messages = newAnthropicClient(key)
	}
	return g
}

// ModelName returns the configured model.
func (g *Generator) ModelName() string { return g.model }

// Generate returns the narrative for req. Cached LLM narratives are reused.
// Any failure yields a template narrative marked Synthetic.
func (g *Generator) Generate(ctx context.Context, req Request) Narrative {
	prompt := Prompt(req)
	version := PromptVersion(prompt)

	if g.cache != nil {
		n, ok, err := g.cache.Get(ctx, req.PropertyID, version)
		if err != nil {
			slog.Warn("narrative cache read failed", "property_id", req.PropertyID, "error", err)
		}
		if ok {
			return n
		}
	}

	text, err := g.complete(ctx, prompt)
	if err != nil {
		slog.Warn("narrative generation failed, using template", "property_id", req.PropertyID, "error", err)
		return Narrative{
			Text:          Fallback(req),
			Synthetic:     true,
			PromptVersion: version,
			CreatedAt:     g.now(),
		}
	}

	n := Narrative{Text: text, PromptVersion: version, CreatedAt: g.now()}
	if g.cache != nil {
		if err := g.cache.Put(ctx, req.PropertyID, n); err != nil {
			slog.Warn("narrative cache write failed", "property_id", req.PropertyID, "error", err)
		}
	}
	return n
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	if g.messages == nil {
		return "", errors.New("ANTHROPIC_API_KEY not configured")
	}

	resp, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", g.model, err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
