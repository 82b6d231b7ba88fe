package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/novelvip/novelsync/internal/config"
)

// GroqTranslator calls Groq's OpenAI-compatible chat completions API.
type GroqTranslator struct {
	client *resty.Client
	model  string
}

var _ Translator = (*GroqTranslator)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewGroqTranslator(cfg *config.Config) *GroqTranslator {
	client := resty.New().
		SetBaseURL(cfg.Translation.GroqBaseUrl).
		SetAuthToken(cfg.Translation.GroqApiKey).
		SetRetryCount(2)

	return &GroqTranslator{
		client: client,
		model:  cfg.Translation.GroqModel,
	}
}

func (t *GroqTranslator) TranslateText(ctx context.Context, text string) (string, error) {
	return t.complete(ctx, fmt.Sprintf(textPrompt, text))
}

func (t *GroqTranslator) TranslateHtmlToVietnamese(ctx context.Context, html string) (string, error) {
	return t.complete(ctx, fmt.Sprintf(htmlPrompt, html))
}

func (t *GroqTranslator) complete(ctx context.Context, prompt string) (string, error) {
	var out chatResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       t.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: 0.3,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("calling groq: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return "", fmt.Errorf("groq: %s", out.Error.Message)
		}
		return "", fmt.Errorf("groq: status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("groq: empty completion")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
