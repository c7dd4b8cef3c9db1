// Package gemini is the single-vendor vision provider: one GenerateContent
// call with the image and the prompt.
package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/imagedata"
	"google.golang.org/api/option"
)

const Name = "gemini"

const DefaultModel = "gemini-1.5-flash"

type Config struct {
	APIKey string
	Model  string
	ai.Options
}

// generator is the slice of *genai.GenerativeModel the client needs.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	client *genai.Client
	model  generator
	name   string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}
	m := cl.GenerativeModel(name)
	if cfg.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	m.SetTemperature(cfg.Temperature)
	return &Client{client: cl, model: m, name: name}, nil
}

func (c *Client) AnalyzeImage(ctx context.Context, img imagedata.Image, prompt string) (ai.Result, error) {
	mt := img.MIMEType
	if mt == "" {
		mt = imagedata.FallbackMIMEType
	}
	resp, err := c.model.GenerateContent(ctx, genai.Blob{MIMEType: mt, Data: img.Data}, genai.Text(prompt))
	if err != nil {
		return ai.Result{}, ai.Classify(Name, err)
	}
	text := responseText(resp)
	if text == "" {
		return ai.Result{}, ai.Empty(Name)
	}
	res := ai.Result{Text: text, Model: c.name}
	if resp.UsageMetadata != nil {
		res.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return res, nil
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}
