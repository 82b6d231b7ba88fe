package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/novelvip/novelsync/internal/config"
	"google.golang.org/genai"
)

type GeminiTranslator struct {
	apiKey string
	model  string
}

var _ Translator = (*GeminiTranslator)(nil)

func NewGeminiTranslator(cfg *config.Config) *GeminiTranslator {
	return &GeminiTranslator{
		apiKey: cfg.Translation.GeminiApiKey,
		model:  cfg.Translation.GeminiModel,
	}
}

func (t *GeminiTranslator) TranslateText(ctx context.Context, text string) (string, error) {
	return t.generate(ctx, fmt.Sprintf(textPrompt, text))
}

func (t *GeminiTranslator) TranslateHtmlToVietnamese(ctx context.Context, html string) (string, error) {
	return t.generate(ctx, fmt.Sprintf(htmlPrompt, html))
}

func (t *GeminiTranslator) generate(ctx context.Context, prompt string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  t.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(
		ctx,
		t.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}
