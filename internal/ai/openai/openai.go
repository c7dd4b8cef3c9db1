// Package openai talks to an OpenAI-compatible multi-model gateway. Vision
// requests go to one model, text-only requests to another.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/imagedata"
	"github.com/sashabaranov/go-openai"
)

const Name = "openai"

const DefaultBaseURL = "https://openrouter.ai/api/v1"

type Config struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	TextModel   string
	Timeout     time.Duration
	ai.Options
}

type Client struct {
	api         *openai.Client
	visionModel string
	textModel   string
	opts        ai.Options

	// catalogURL is set for OpenRouter, whose model list reports input
	// modalities that go-openai does not decode.
	catalogURL string
	apiKey     string
	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing GATEWAY_API_KEY")
	}
	if cfg.VisionModel == "" {
		return nil, errors.New("missing vision model")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	oc.HTTPClient = hc
	textModel := cfg.TextModel
	if textModel == "" {
		textModel = cfg.VisionModel
	}
	c := &Client{
		api:         openai.NewClientWithConfig(oc),
		visionModel: cfg.VisionModel,
		textModel:   textModel,
		opts:        cfg.Options,
		apiKey:      cfg.APIKey,
		httpClient:  hc,
	}
	if isOpenRouter(oc.BaseURL) {
		c.catalogURL = oc.BaseURL + "/models"
	}
	return c, nil
}

func isOpenRouter(base string) bool {
	u, err := url.Parse(base)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "openrouter.ai" || strings.HasSuffix(host, ".openrouter.ai")
}

func (c *Client) AnalyzeImage(ctx context.Context, img imagedata.Image, prompt string) (ai.Result, error) {
	req := c.request(c.visionModel)
	req.Messages = []openai.ChatCompletionMessage{{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    img.DataURL(),
				Detail: openai.ImageURLDetailAuto,
			}},
		},
	}}
	return c.complete(ctx, req)
}

func (c *Client) AnalyzeText(ctx context.Context, text string) (ai.Result, error) {
	req := c.request(c.textModel)
	if c.opts.SystemPrompt != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.opts.SystemPrompt})
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})
	return c.complete(ctx, req)
}

func (c *Client) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	if c.catalogURL != "" {
		return c.listOpenRouter(ctx)
	}
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]ai.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, ai.ModelInfo{ID: m.ID, Name: displayName(m.ID), SupportsVision: SupportsVision(m.ID)})
	}
	return out, nil
}

type openRouterModel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Architecture struct {
		InputModalities []string `json:"input_modalities"`
	} `json:"architecture"`
}

func (c *Client) listOpenRouter(ctx context.Context) ([]ai.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.catalogURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ai.Classify(Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, ai.ClassifyStatus(Name, resp.StatusCode,
			fmt.Errorf("status code: %d, message: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var list struct {
		Data []openRouterModel `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, ai.Classify(Name, fmt.Errorf("decode model list: %w", err))
	}
	out := make([]ai.ModelInfo, 0, len(list.Data))
	for _, m := range list.Data {
		name := m.Name
		if name == "" {
			name = displayName(m.ID)
		}
		vision := SupportsVision(m.ID)
		if mods := m.Architecture.InputModalities; len(mods) > 0 {
			vision = slices.Contains(mods, "image")
		}
		out = append(out, ai.ModelInfo{ID: m.ID, Name: name, SupportsVision: vision})
	}
	return out, nil
}

func (c *Client) request(model string) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{Model: model, Temperature: c.opts.Temperature}
	// reasoning models reject max_tokens
	if isReasoningModel(model) {
		req.MaxCompletionTokens = c.opts.MaxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = c.opts.MaxTokens
	}
	return req
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (ai.Result, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return ai.Result{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return ai.Result{}, ai.Empty(Name)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return ai.Result{}, ai.Empty(Name)
	}
	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return ai.Result{Text: text, Model: model, TokensUsed: resp.Usage.TotalTokens}, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return ai.ClassifyStatus(Name, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return ai.ClassifyStatus(Name, reqErr.HTTPStatusCode, err)
	}
	return ai.Classify(Name, err)
}

func isReasoningModel(model string) bool {
	m := model
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5")
}

var visionHints = []string{"vision", "gpt-4o", "gpt-4.1", "gpt-5", "gemini", "claude-3", "claude-sonnet", "claude-opus", "llava", "-vl", "pixtral", "llama-3.2-11b", "llama-3.2-90b", "qwen2.5-vl", "grok-2-vision"}

// SupportsVision guesses from the model ID whether it accepts image input.
// It is the fallback when the catalog does not report input modalities.
func SupportsVision(id string) bool {
	lower := strings.ToLower(id)
	for _, h := range visionHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// displayName turns "vendor/model-name" into "model-name (vendor)".
func displayName(id string) string {
	vendor, model, ok := strings.Cut(id, "/")
	if !ok {
		return id
	}
	return model + " (" + vendor + ")"
}
