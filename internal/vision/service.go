package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/ai/registry"
	"github.com/kiliankoe/aivision/internal/history"
	"github.com/kiliankoe/aivision/internal/imagedata"
	"github.com/kiliankoe/aivision/internal/metrics"
	"github.com/kiliankoe/aivision/internal/prompt"
	"github.com/rs/zerolog"
)

// TextMode is the history label for text-only requests.
const TextMode = "Text Analysis"

// OtherMode is the metric label for modes outside the prompt catalog.
const OtherMode = "other"

var (
	ErrMissingImage       = errors.New("no image provided")
	ErrEmptyText          = errors.New("no text provided")
	ErrTextUnsupported    = errors.New("text analysis is not supported by this provider")
	ErrCatalogUnsupported = errors.New("model listing is not supported by this provider")
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Service struct {
	Providers registry.Set
	History   *history.Log
	Metrics   *metrics.Recorder
	Clock     Clock
	// Timeout bounds each upstream call. Zero means no extra deadline.
	Timeout time.Duration
}

func NewService(set registry.Set, log *history.Log, rec *metrics.Recorder) *Service {
	if log == nil {
		log = history.NewLog()
	}
	return &Service{Providers: set, History: log, Metrics: rec, Clock: SystemClock{}}
}

func (s *Service) Ready() bool { return s.Providers.Ready() }

func (s *Service) ProviderName() string { return s.Providers.DisplayName() }

// ProviderError is the initialisation failure, or "" when ready.
func (s *Service) ProviderError() string {
	if s.Providers.Ready() || s.Providers.Err == nil {
		return ""
	}
	return s.Providers.Err.Error()
}

func (s *Service) unavailable() error {
	if s.Providers.Err != nil {
		return fmt.Errorf("%w: %v", ai.ErrProviderUnavailable, s.Providers.Err)
	}
	return ai.ErrProviderUnavailable
}

// Analyze decodes the frame, asks the vision provider using the prompt for
// mode and records the result.
func (s *Service) Analyze(ctx context.Context, dataURL, mode string) (history.Record, error) {
	if mode == "" {
		mode = prompt.DefaultMode
	}
	label := metricMode(mode)
	if !s.Ready() {
		s.Metrics.Analysis(label, metrics.OutcomeUnavailable)
		return history.Record{}, s.unavailable()
	}
	if strings.TrimSpace(dataURL) == "" {
		s.Metrics.Analysis(label, metrics.OutcomeBadRequest)
		return history.Record{}, ErrMissingImage
	}
	img, err := imagedata.Decode(dataURL)
	if err != nil {
		s.Metrics.Analysis(label, metrics.OutcomeDecodeError)
		return history.Record{}, err
	}

	logger := zerolog.Ctx(ctx)
	instruction, known := prompt.Lookup(mode)
	if !known {
		logger.Debug().Str("mode", mode).Msg("unknown mode, using default prompt")
		instruction = prompt.Get(mode)
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	res, err := s.Providers.Vision.AnalyzeImage(cctx, img, instruction)
	s.Metrics.Upstream(s.Providers.Name, "vision", time.Since(start))
	if err != nil {
		err = ai.Classify(s.Providers.Name, err)
		s.logUpstream(logger, mode, err)
		s.Metrics.Analysis(label, metrics.OutcomeUpstream)
		return history.Record{}, err
	}
	logger.Info().Str("mode", mode).Int("bytes", len(img.Data)).Str("model", res.Model).Int("tokens", res.TokensUsed).Msg("analysis done")
	return s.record(mode, res), nil
}

// AnalyzeText sends text straight to the text provider.
func (s *Service) AnalyzeText(ctx context.Context, text string) (history.Record, error) {
	if !s.Ready() {
		s.Metrics.Analysis(TextMode, metrics.OutcomeUnavailable)
		return history.Record{}, s.unavailable()
	}
	if s.Providers.Text == nil {
		s.Metrics.Analysis(TextMode, metrics.OutcomeBadRequest)
		return history.Record{}, ErrTextUnsupported
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.Metrics.Analysis(TextMode, metrics.OutcomeBadRequest)
		return history.Record{}, ErrEmptyText
	}

	logger := zerolog.Ctx(ctx)
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	res, err := s.Providers.Text.AnalyzeText(cctx, text)
	s.Metrics.Upstream(s.Providers.Name, "text", time.Since(start))
	if err != nil {
		err = ai.Classify(s.Providers.Name, err)
		s.logUpstream(logger, TextMode, err)
		s.Metrics.Analysis(TextMode, metrics.OutcomeUpstream)
		return history.Record{}, err
	}
	return s.record(TextMode, res), nil
}

func (s *Service) Models(ctx context.Context) ([]ai.ModelInfo, error) {
	if !s.Ready() {
		return nil, s.unavailable()
	}
	if s.Providers.Catalog == nil {
		return nil, ErrCatalogUnsupported
	}
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	models, err := s.Providers.Catalog.ListModels(cctx)
	if err != nil {
		return nil, ai.Classify(s.Providers.Name, err)
	}
	return models, nil
}

func (s *Service) ClearHistory() {
	s.History.Clear()
	s.Metrics.HistorySize(0)
}

func (s *Service) record(mode string, res ai.Result) history.Record {
	rec := s.History.Append(history.Record{
		Timestamp:  s.Clock.Now().Format(history.TimeFormat),
		Mode:       mode,
		Result:     res.Text,
		ModelUsed:  res.Model,
		TokensUsed: res.TokensUsed,
	})
	s.Metrics.Analysis(metricMode(mode), metrics.OutcomeOK)
	s.Metrics.HistorySize(s.History.Len())
	return rec
}

// metricMode maps a caller-supplied mode onto a fixed label set so unknown
// modes cannot grow the metric series.
func metricMode(mode string) string {
	if _, ok := prompt.Lookup(mode); ok || mode == TextMode {
		return mode
	}
	return OtherMode
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s *Service) logUpstream(logger *zerolog.Logger, mode string, err error) {
	ev := logger.Warn().Err(err).Str("mode", mode).Str("provider", s.Providers.Name)
	var ue *ai.UpstreamError
	if errors.As(err, &ue) {
		ev = ev.Str("kind", string(ue.Kind))
	}
	ev.Msg("upstream call failed")
}
