package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/imagedata"
	"github.com/ollama/ollama/api"
)

const Name = "ollama"

const DefaultHost = "http://localhost:11434"

type Config struct {
	Host        string
	VisionModel string
	TextModel   string
	Timeout     time.Duration
	ai.Options
}

type Client struct {
	api         *api.Client
	visionModel string
	textModel   string
	opts        ai.Options
}

func New(cfg Config) (*Client, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	u, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST: %w", err)
	}
	if cfg.VisionModel == "" {
		return nil, errors.New("missing OLLAMA_VISION_MODEL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	textModel := cfg.TextModel
	if textModel == "" {
		textModel = cfg.VisionModel
	}
	base := &url.URL{Scheme: u.Scheme, Host: u.Host}
	return &Client{
		api:         api.NewClient(base, &http.Client{Timeout: timeout}),
		visionModel: cfg.VisionModel,
		textModel:   textModel,
		opts:        cfg.Options,
	}, nil
}

// Ping checks that the ollama server answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.api.Heartbeat(ctx)
}

func (c *Client) AnalyzeImage(ctx context.Context, img imagedata.Image, prompt string) (ai.Result, error) {
	return c.chat(ctx, c.visionModel, []api.Message{{
		Role:    "user",
		Content: prompt,
		Images:  []api.ImageData{api.ImageData(img.Data)},
	}})
}

func (c *Client) AnalyzeText(ctx context.Context, text string) (ai.Result, error) {
	var msgs []api.Message
	if c.opts.SystemPrompt != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: c.opts.SystemPrompt})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: text})
	return c.chat(ctx, c.textModel, msgs)
}

func (c *Client) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	list, err := c.api.List(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]ai.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, ai.ModelInfo{ID: m.Model, Name: m.Name, SupportsVision: supportsVision(m.Name, m.Details)})
	}
	return out, nil
}

func (c *Client) chat(ctx context.Context, model string, msgs []api.Message) (ai.Result, error) {
	stream := false
	opts := map[string]any{"temperature": c.opts.Temperature}
	if c.opts.MaxTokens > 0 {
		opts["num_predict"] = c.opts.MaxTokens
	}
	req := &api.ChatRequest{Model: model, Messages: msgs, Stream: &stream, Options: opts}

	var last api.ChatResponse
	var sb strings.Builder
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		last = resp
		return nil
	})
	if err != nil {
		return ai.Result{}, classify(err)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return ai.Result{}, ai.Empty(Name)
	}
	used := last.Model
	if used == "" {
		used = model
	}
	return ai.Result{Text: text, Model: used, TokensUsed: last.PromptEvalCount + last.EvalCount}, nil
}

func classify(err error) error {
	var se api.StatusError
	if errors.As(err, &se) {
		return ai.ClassifyStatus(Name, se.StatusCode, err)
	}
	return ai.Classify(Name, err)
}

func supportsVision(name string, d api.ModelDetails) bool {
	for _, f := range append([]string{d.Family}, d.Families...) {
		switch strings.ToLower(f) {
		case "clip", "mllama", "gemma3", "qwen25vl":
			return true
		}
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, "llava") || strings.Contains(lower, "vision") || strings.Contains(lower, "-vl") || strings.Contains(lower, "minicpm-v")
}
