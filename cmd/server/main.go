package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/aivision/internal/ai/registry"
	"github.com/kiliankoe/aivision/internal/config"
	"github.com/kiliankoe/aivision/internal/history"
	"github.com/kiliankoe/aivision/internal/httpapi"
	"github.com/kiliankoe/aivision/internal/metrics"
	"github.com/kiliankoe/aivision/internal/vision"
	"github.com/kiliankoe/aivision/internal/ws"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`AIVision - camera assistant for blind and visually impaired users

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                 Port to listen on (default: 8080)
  CONFIG_FILE          Optional YAML file, environment variables override it
  PROVIDER             "gemini", "openai" (gateway) or "ollama" (default: gemini)
  GEMINI_API_KEY       Gemini API key (required for gemini)
  GEMINI_MODEL         Gemini model (default: gemini-1.5-flash)
  GATEWAY_API_KEY      OpenAI-compatible gateway key (required for openai)
  GATEWAY_BASE_URL     Gateway base URL (default: https://openrouter.ai/api/v1)
  VISION_MODEL         Gateway vision model (default: openai/gpt-4o-mini)
  TEXT_MODEL           Gateway text model (default: meta-llama/llama-3.1-8b-instruct)
  OLLAMA_HOST          Ollama host URL (default: http://localhost:11434)
  OLLAMA_VISION_MODEL  Ollama vision model (default: llava)
  OLLAMA_TEXT_MODEL    Ollama text model (default: vision model)
  SYSTEM_PROMPT        System prompt for text analysis
  MAX_TOKENS           Response token limit (default: 500)
  TEMPERATURE          Sampling temperature (default: 0.3)
  UPSTREAM_TIMEOUT     Per-call provider timeout, must be positive (default: 60s)
  MAX_BODY_BYTES       Request body limit (default: 10485760)
  LOG_LEVEL            debug, info, warn or error (default: info)
  LOG_FORMAT           console or json (default: console)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000

Visit http://localhost:8080 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("AIVision %s\n", version)
		return
	}

	cfg, err := config.FromEnv()
	setupLogging(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	set := registry.Build(context.Background(), cfg)
	defer set.Close()
	if set.Err != nil {
		// history and health keep working without a provider
		log.Error().Err(set.Err).Str("provider", set.Name).Msg("provider unavailable, running degraded")
	} else {
		log.Info().Str("provider", set.Name).Bool("text", set.Text != nil).Msg("provider ready")
	}

	rec := metrics.New()
	svc := vision.NewService(set, history.NewLog(), rec)
	svc.Timeout = cfg.UpstreamTimeout

	gin.SetMode(gin.ReleaseMode)
	r := httpapi.New(svc, httpapi.Options{MaxBodyBytes: cfg.MaxBodyBytes, Metrics: rec.Handler()})
	io := ws.New(svc).Mount(r)
	defer io.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DefaultContextLogger = &log.Logger
}
