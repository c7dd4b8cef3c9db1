package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/imagedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	parts []genai.Part
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func reply(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
		UsageMetadata: &genai.UsageMetadata{TotalTokenCount: 77},
	}
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestAnalyzeImage(t *testing.T) {
	fm := &fakeModel{resp: reply(genai.Text("Coffee mug on the left, "), genai.Text("laptop in center\n"))}
	c := &Client{model: fm, name: DefaultModel}

	res, err := c.AnalyzeImage(context.Background(), imagedata.Image{Data: []byte{0xff, 0xd8}}, "list objects")
	require.NoError(t, err)
	assert.Equal(t, "Coffee mug on the left, laptop in center", res.Text)
	assert.Equal(t, DefaultModel, res.Model)
	assert.Equal(t, 77, res.TokensUsed)

	require.Len(t, fm.parts, 2)
	blob, ok := fm.parts[0].(genai.Blob)
	require.True(t, ok, "image goes first")
	assert.Equal(t, "image/jpeg", blob.MIMEType)
	assert.Equal(t, []byte{0xff, 0xd8}, blob.Data)
	assert.Equal(t, genai.Text("list objects"), fm.parts[1])
}

func TestAnalyzeImageUpstreamError(t *testing.T) {
	fm := &fakeModel{err: errors.New("googleapi: Error 400: API key not valid. Please pass a valid API key.")}
	c := &Client{model: fm, name: DefaultModel}

	_, err := c.AnalyzeImage(context.Background(), imagedata.Image{Data: []byte{1}, MIMEType: "image/png"}, "p")
	var ue *ai.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ai.KindAuth, ue.Kind)
	assert.Equal(t, Name, ue.Provider)
}

func TestAnalyzeImageEmpty(t *testing.T) {
	c := &Client{model: &fakeModel{resp: &genai.GenerateContentResponse{}}, name: DefaultModel}
	_, err := c.AnalyzeImage(context.Background(), imagedata.Image{Data: []byte{1}}, "p")
	var ue *ai.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ai.KindEmpty, ue.Kind)
}

func TestCloseWithoutClient(t *testing.T) {
	assert.NoError(t, (&Client{}).Close())
}
