package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"CONFIG_FILE", "PORT", "PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "GATEWAY_API_KEY",
	"GATEWAY_BASE_URL", "VISION_MODEL", "TEXT_MODEL", "OLLAMA_HOST", "OLLAMA_VISION_MODEL",
	"OLLAMA_TEXT_MODEL", "SYSTEM_PROMPT", "MAX_TOKENS", "TEMPERATURE", "UPSTREAM_TIMEOUT",
	"MAX_BODY_BYTES", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "gemini", c.Provider)
	assert.Empty(t, c.GeminiAPIKey, "credentials never have a default")
	assert.Equal(t, 500, c.MaxTokens)
	assert.Equal(t, 60*time.Second, c.UpstreamTimeout)
	assert.Equal(t, int64(10<<20), c.MaxBodyBytes)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5000")
	t.Setenv("PROVIDER", "openai")
	t.Setenv("GATEWAY_API_KEY", "fake-gateway-key")
	t.Setenv("VISION_MODEL", "google/gemini-flash-1.5")
	t.Setenv("MAX_TOKENS", "128")
	t.Setenv("TEMPERATURE", "0.9")
	t.Setenv("UPSTREAM_TIMEOUT", "15s")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "5000", c.Port)
	assert.Equal(t, "openai", c.Provider)
	assert.Equal(t, "fake-gateway-key", c.GatewayAPIKey)
	assert.Equal(t, "google/gemini-flash-1.5", c.VisionModel)
	assert.Equal(t, 128, c.MaxTokens)
	assert.InDelta(t, 0.9, c.Temperature, 0.0001)
	assert.Equal(t, 15*time.Second, c.UpstreamTimeout)
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_TOKENS", "lots")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvRejectsNonPositiveTimeout(t *testing.T) {
	for _, v := range []string{"0", "0s", "-5s"} {
		clearEnv(t)
		t.Setenv("UPSTREAM_TIMEOUT", v)
		_, err := FromEnv()
		assert.ErrorContains(t, err, "UPSTREAM_TIMEOUT", v)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upstreamTimeout: 0s\n"), 0o600))
	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	_, err := FromEnv()
	assert.ErrorContains(t, err, "UPSTREAM_TIMEOUT")
}

func TestFromEnvFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
provider: ollama
ollamaHost: http://gpu-box:11434
ollamaVisionModel: llava:13b
upstreamTimeout: 2m
maxTokens: 256
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OLLAMA_VISION_MODEL", "llava:7b")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Provider)
	assert.Equal(t, "http://gpu-box:11434", c.OllamaHost)
	assert.Equal(t, "llava:7b", c.OllamaVisionModel, "env wins over the file")
	assert.Equal(t, 2*time.Minute, c.UpstreamTimeout)
	assert.Equal(t, 256, c.MaxTokens)
	assert.Equal(t, "8080", c.Port, "defaults survive a partial file")
}

func TestFromEnvMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := FromEnv()
	assert.Error(t, err)
}
