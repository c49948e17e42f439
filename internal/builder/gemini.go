package builder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/hpungsan/studio/internal/config"
)

// contentGenerator is the part of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiSuggester asks a Gemini model for copy.
type GeminiSuggester struct {
	models contentGenerator
	model  string
}

const suggestInstruction = `You write short marketing copy for small business websites.
Reply with exactly one sentence of plain text. No quotes, no markdown, no lists.`

// Suggest implements Suggester.
func (g *GeminiSuggester) Suggest(ctx context.Context, in SuggestInput) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(suggestPrompt(in)), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: suggestInstruction}}},
		Temperature:       genai.Ptr[float32](0.8),
		MaxOutputTokens:   256,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func suggestPrompt(in SuggestInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business name: %s\n", in.BusinessName)
	fmt.Fprintf(&b, "Business type: %s\n", in.BusinessType)
	fmt.Fprintf(&b, "Tone: %s\n", in.Tone)
	if len(in.Services) > 0 {
		fmt.Fprintf(&b, "Services: %s\n", strings.Join(in.Services, ", "))
	}
	if len(in.Locations) > 0 {
		fmt.Fprintf(&b, "Locations: %s\n", strings.Join(in.Locations, ", "))
	}
	if t := strings.TrimSpace(in.Text); t != "" {
		fmt.Fprintf(&b, "Improve this draft: %s\n", t)
	}
	fmt.Fprintf(&b, "Keep it under %d characters.", in.CharLimit)
	return b.String()
}

// NewSuggester returns a Gemini-backed suggester with template fallback when
// cfg has an API key, and the template suggester otherwise.
func NewSuggester(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Suggester, error) {
	tpl := TemplateSuggester{}
	if cfg.GeminiAPIKey == "" {
		return tpl, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	g := &GeminiSuggester{models: client.Models, model: cfg.GeminiModel}
	return WithFallback(g, tpl, logger), nil
}
