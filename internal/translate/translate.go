// Package translate renders source-language chapters into Vietnamese.
// One provider is active at a time, selected by configuration.
package translate

import (
	"context"
	"fmt"

	"github.com/novelvip/novelsync/internal/config"
)

// Translator is the collaborator interface the import pipeline depends
// on. Both calls hit a remote model and may fail; callers decide whether a
// failure is fatal for the item being processed.
type Translator interface {
	TranslateText(ctx context.Context, text string) (string, error)
	TranslateHtmlToVietnamese(ctx context.Context, html string) (string, error)
}

const (
	textPrompt = "Translate the following text to Vietnamese. " +
		"Return only the translation, no explanations:\n\n%s"
	htmlPrompt = "Translate the following HTML chapter of a Chinese web novel to Vietnamese. " +
		"Keep all HTML tags intact, translate only the text content. " +
		"Put the translated chapter title in the first <p> element. " +
		"Return only the translated HTML:\n\n%s"
)

// New selects the configured provider.
func New(cfg *config.Config) (Translator, error) {
	switch cfg.Translation.Provider {
	case "groq":
		return NewGroqTranslator(cfg), nil
	case "gemini":
		return NewGeminiTranslator(cfg), nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Translation.Provider)
	}
}
