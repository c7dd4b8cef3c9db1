package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultSystemPrompt = "You assist a blind or visually impaired person. Your answer is read aloud, so reply in plain sentences without markdown, lists or emoji, and keep it short."

type Config struct {
	Port     string `yaml:"port"`
	Provider string `yaml:"provider"`

	GeminiAPIKey string `yaml:"geminiApiKey"`
	GeminiModel  string `yaml:"geminiModel"`

	GatewayAPIKey  string `yaml:"gatewayApiKey"`
	GatewayBaseURL string `yaml:"gatewayBaseUrl"`
	VisionModel    string `yaml:"visionModel"`
	TextModel      string `yaml:"textModel"`

	OllamaHost        string `yaml:"ollamaHost"`
	OllamaVisionModel string `yaml:"ollamaVisionModel"`
	OllamaTextModel   string `yaml:"ollamaTextModel"`

	SystemPrompt    string        `yaml:"systemPrompt"`
	MaxTokens       int           `yaml:"maxTokens"`
	Temperature     float32       `yaml:"temperature"`
	UpstreamTimeout time.Duration `yaml:"upstreamTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

func Defaults() Config {
	return Config{
		Port:              "8080",
		Provider:          "gemini",
		GeminiModel:       "gemini-1.5-flash",
		GatewayBaseURL:    "https://openrouter.ai/api/v1",
		VisionModel:       "openai/gpt-4o-mini",
		TextModel:         "meta-llama/llama-3.1-8b-instruct",
		OllamaHost:        "http://localhost:11434",
		OllamaVisionModel: "llava",
		SystemPrompt:      DefaultSystemPrompt,
		MaxTokens:         500,
		Temperature:       0.3,
		UpstreamTimeout:   60 * time.Second,
		MaxBodyBytes:      10 << 20,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// FromEnv reads the optional CONFIG_FILE first, then lets environment
// variables override it.
func FromEnv() (Config, error) {
	c := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.loadFile(path); err != nil {
			return c, err
		}
	}
	c.Port = getenv("PORT", c.Port)
	c.Provider = getenv("PROVIDER", c.Provider)
	c.GeminiAPIKey = getenv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getenv("GEMINI_MODEL", c.GeminiModel)
	c.GatewayAPIKey = getenv("GATEWAY_API_KEY", c.GatewayAPIKey)
	c.GatewayBaseURL = getenv("GATEWAY_BASE_URL", c.GatewayBaseURL)
	c.VisionModel = getenv("VISION_MODEL", c.VisionModel)
	c.TextModel = getenv("TEXT_MODEL", c.TextModel)
	c.OllamaHost = getenv("OLLAMA_HOST", c.OllamaHost)
	c.OllamaVisionModel = getenv("OLLAMA_VISION_MODEL", c.OllamaVisionModel)
	c.OllamaTextModel = getenv("OLLAMA_TEXT_MODEL", c.OllamaTextModel)
	c.SystemPrompt = getenv("SYSTEM_PROMPT", c.SystemPrompt)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("LOG_FORMAT", c.LogFormat)

	var err error
	if c.MaxTokens, err = getint("MAX_TOKENS", c.MaxTokens); err != nil {
		return c, err
	}
	if c.MaxBodyBytes, err = getint64("MAX_BODY_BYTES", c.MaxBodyBytes); err != nil {
		return c, err
	}
	if v := os.Getenv("TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return c, fmt.Errorf("TEMPERATURE: %w", err)
		}
		c.Temperature = float32(f)
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("UPSTREAM_TIMEOUT: %w", err)
		}
		c.UpstreamTimeout = d
	}
	// the HTTP write deadline is derived from it, and gemini has no client timeout
	if c.UpstreamTimeout <= 0 {
		return c, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getint64(k string, def int64) (int64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
