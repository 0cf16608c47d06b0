// Package llm generates draft health tips with the OpenAI API. Drafts are
// reviewed by an admin before publication; nothing here writes to storage.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// GeneratedTip is a draft produced by the model.
type GeneratedTip struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TipGenerator defines the methods required by the health tip service.
type TipGenerator interface {
	GenerateTip(ctx context.Context, category, language string) (*GeneratedTip, error)
}

// languageNames maps supported language codes to the names used in prompts.
var languageNames = map[string]string{
	"en": "English",
	"tw": "Twi",
	"ee": "Ewe",
	"ga": "Ga",
	"ha": "Hausa",
}

// OpenAIGenerator calls the OpenAI chat completion API to draft health tips.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator constructs an OpenAI-backed tip generator. An empty
// model falls back to a modern small model.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

const tipSystemPrompt = "You are a public health educator writing short, " +
	"practical health tips for a telehealth audience. Respond with a JSON " +
	`object of the form {"title": "...", "content": "..."}. The content must ` +
	"be two to four sentences, actionable, and free of medical jargon."

// GenerateTip drafts a single tip for the given category in the given
// language. Unknown language codes fall back to English.
func (g *OpenAIGenerator) GenerateTip(ctx context.Context, category, language string) (*GeneratedTip, error) {
	if g.client == nil {
		return nil, errors.New("openai client not initialized")
	}

	langName, ok := languageNames[language]
	if !ok {
		langName = languageNames["en"]
	}

	user := fmt.Sprintf("Write one health tip about %s, in %s.", category, langName)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: tipSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("generate tip: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("generate tip: empty response")
	}

	return parseTip(resp.Choices[0].Message.Content)
}

// parseTip decodes the model's JSON output, tolerating surrounding prose or
// markdown fences.
func parseTip(raw string) (*GeneratedTip, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("generate tip: no JSON object in response")
	}

	var tip GeneratedTip
	if err := json.Unmarshal([]byte(raw[start:end+1]), &tip); err != nil {
		return nil, fmt.Errorf("generate tip: decode response: %w", err)
	}
	if tip.Title == "" || tip.Content == "" {
		return nil, fmt.Errorf("generate tip: incomplete draft")
	}
	return &tip, nil
}
