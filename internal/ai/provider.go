package ai

import (
	"context"

	"github.com/kiliankoe/aivision/internal/imagedata"
)

// Result is the normalized reply of any upstream call. Model and TokensUsed
// are zero when the provider does not report them.
type Result struct {
	Text       string
	Model      string
	TokensUsed int
}

type VisionProvider interface {
	AnalyzeImage(ctx context.Context, img imagedata.Image, prompt string) (Result, error)
}

type TextProvider interface {
	AnalyzeText(ctx context.Context, text string) (Result, error)
}

type ModelInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SupportsVision bool   `json:"supports_vision"`
}

type ModelCatalog interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// Options are the generation settings shared by all chat-style providers.
type Options struct {
	MaxTokens    int
	Temperature  float32
	SystemPrompt string
}
