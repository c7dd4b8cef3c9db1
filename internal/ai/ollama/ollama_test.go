package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/imagedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := New(Config{Host: srv.URL, VisionModel: "llava", TextModel: "llama3.2", Options: ai.Options{SystemPrompt: "short answers", MaxTokens: 200}})
	require.NoError(t, err)
	return c
}

func TestNewRequiresVisionModel(t *testing.T) {
	_, err := New(Config{Host: DefaultHost})
	assert.Error(t, err)
}

func TestAnalyzeImage(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string   `json:"role"`
			Content string   `json:"content"`
			Images  []string `json:"images"`
		} `json:"messages"`
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"llava:latest","message":{"role":"assistant","content":" Door ahead, chair on the right "},"done":true,"prompt_eval_count":30,"eval_count":12}` + "\n"))
	})
	c := newTestClient(t, mux)

	res, err := c.AnalyzeImage(context.Background(), imagedata.Image{Data: []byte{1, 2, 3}}, "what is here")
	require.NoError(t, err)
	assert.Equal(t, "Door ahead, chair on the right", res.Text)
	assert.Equal(t, "llava:latest", res.Model)
	assert.Equal(t, 42, res.TokensUsed)

	assert.Equal(t, "llava", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, []string{"AQID"}, got.Messages[0].Images)
}

func TestAnalyzeTextWithSystemPrompt(t *testing.T) {
	var roles []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3.2", body.Model)
		for _, m := range body.Messages {
			roles = append(roles, m.Role)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Yes."},"done":true}` + "\n"))
	})
	c := newTestClient(t, mux)

	res, err := c.AnalyzeText(context.Background(), "is it raining")
	require.NoError(t, err)
	assert.Equal(t, "Yes.", res.Text)
	assert.Equal(t, "llama3.2", res.Model)
	assert.Equal(t, []string{"system", "user"}, roles)
}

func TestModelNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llava\" not found, try pulling it first"}`))
	})
	c := newTestClient(t, mux)

	_, err := c.AnalyzeImage(context.Background(), imagedata.Image{Data: []byte{1}}, "p")
	var ue *ai.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ai.KindSchema, ue.Kind)
	assert.Equal(t, Name, ue.Provider)
}

func TestListModels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[
			{"name":"llava:latest","model":"llava:latest","details":{"family":"llama","families":["llama","clip"]}},
			{"name":"llama3.2:latest","model":"llama3.2:latest","details":{"family":"llama","families":["llama"]}}
		]}`))
	})
	c := newTestClient(t, mux)

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.True(t, models[0].SupportsVision)
	assert.False(t, models[1].SupportsVision)
	assert.Equal(t, "llama3.2:latest", models[1].ID)
}

func TestPing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Ollama is running"))
	})
	c := newTestClient(t, mux)
	assert.NoError(t, c.Ping(context.Background()))
}
