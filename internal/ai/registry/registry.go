// Package registry picks the provider variant named in the configuration.
package registry

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/ai/gemini"
	"github.com/kiliankoe/aivision/internal/ai/ollama"
	"github.com/kiliankoe/aivision/internal/ai/openai"
	"github.com/kiliankoe/aivision/internal/config"
)

// Set is what the service runs against. A Set with a non-nil Err or without a
// vision provider is not ready, and nothing is sent upstream.
type Set struct {
	Name    string
	Vision  ai.VisionProvider
	Text    ai.TextProvider
	Catalog ai.ModelCatalog
	Err     error
	closer  io.Closer
}

func (s Set) Ready() bool { return s.Vision != nil && s.Err == nil }

func (s Set) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// DisplayName is the human name used in error messages and health output.
func (s Set) DisplayName() string {
	switch s.Name {
	case gemini.Name:
		return "Gemini"
	case openai.Name:
		return "Gateway"
	case ollama.Name:
		return "Ollama"
	}
	return s.Name
}

func Build(ctx context.Context, cfg config.Config) Set {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = gemini.Name
	}
	opts := ai.Options{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature, SystemPrompt: cfg.SystemPrompt}

	switch name {
	case gemini.Name:
		c, err := gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, Options: opts})
		if err != nil {
			return Set{Name: name, Err: err}
		}
		return Set{Name: name, Vision: c, closer: c}

	case openai.Name, "gateway", "openrouter":
		c, err := openai.New(openai.Config{
			APIKey:      cfg.GatewayAPIKey,
			BaseURL:     cfg.GatewayBaseURL,
			VisionModel: cfg.VisionModel,
			TextModel:   cfg.TextModel,
			Timeout:     cfg.UpstreamTimeout,
			Options:     opts,
		})
		if err != nil {
			return Set{Name: openai.Name, Err: err}
		}
		return Set{Name: openai.Name, Vision: c, Text: c, Catalog: c}

	case ollama.Name:
		c, err := ollama.New(ollama.Config{
			Host:        cfg.OllamaHost,
			VisionModel: cfg.OllamaVisionModel,
			TextModel:   cfg.OllamaTextModel,
			Timeout:     cfg.UpstreamTimeout,
			Options:     opts,
		})
		if err != nil {
			return Set{Name: name, Err: err}
		}
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Ping(pctx); err != nil {
			return Set{Name: name, Err: fmt.Errorf("ollama unreachable at %s: %w", cfg.OllamaHost, err)}
		}
		return Set{Name: name, Vision: c, Text: c, Catalog: c}
	}
	return Set{Name: name, Err: fmt.Errorf("unknown provider %q (want gemini, openai or ollama)", cfg.Provider)}
}
