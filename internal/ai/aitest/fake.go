// Package aitest provides in-memory providers for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/imagedata"
)

// Call is one recorded request to a Fake.
type Call struct {
	Image  imagedata.Image
	Prompt string
	Text   string
}

// Fake answers every call with Result or Err and remembers what it was asked.
// It implements ai.VisionProvider, ai.TextProvider and ai.ModelCatalog.
type Fake struct {
	Result ai.Result
	Err    error
	Models []ai.ModelInfo

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) AnalyzeImage(_ context.Context, img imagedata.Image, prompt string) (ai.Result, error) {
	f.record(Call{Image: img, Prompt: prompt})
	return f.Result, f.Err
}

func (f *Fake) AnalyzeText(_ context.Context, text string) (ai.Result, error) {
	f.record(Call{Text: text})
	return f.Result, f.Err
}

func (f *Fake) ListModels(context.Context) ([]ai.ModelInfo, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Models, nil
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}
