package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySubstrings(t *testing.T) {
	cases := []struct {
		raw  string
		want Kind
	}{
		{"error code: rate_limit_exceeded", KindRateLimit},
		{"googleapi: Error 429: Resource has been exhausted (e.g. check quota).", KindRateLimit},
		{"API key not valid. Please pass a valid API key.", KindAuth},
		{"status code: 401, message: Incorrect API key provided", KindAuth},
		{"models/gemini-pro-vision is not found for API version v1beta", KindSchema},
		{"context deadline exceeded", KindTimeout},
		{"connection reset by peer", KindUnknown},
		{"403 Forbidden", KindAuth},
		{"error, status code: 404, message: model not found", KindSchema},
		{`Post "http://gateway:4040/v1/chat/completions": dial tcp 10.0.0.4:4040: connect: connection refused`, KindUnknown},
		{"upstream request 4291-ab failed after 401ms", KindUnknown},
	}
	for _, tc := range cases {
		err := Classify("gemini", errors.New(tc.raw))
		var ue *UpstreamError
		require.True(t, errors.As(err, &ue), tc.raw)
		assert.Equal(t, tc.want, ue.Kind, tc.raw)
		assert.Equal(t, tc.raw, ue.Raw, "raw message must be preserved")
	}
}

func TestClassifyKeepsChain(t *testing.T) {
	err := Classify("openai", fmt.Errorf("call: %w", context.DeadlineExceeded))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Nil(t, Classify("openai", nil))

	again := Classify("other", err)
	assert.Same(t, err, again)
}

func TestClassifyStatus(t *testing.T) {
	err := ClassifyStatus("openai", http.StatusTooManyRequests, errors.New("slow down"))
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindRateLimit, ue.Kind)

	err = ClassifyStatus("openai", http.StatusBadRequest, errors.New("Incorrect API key provided"))
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindAuth, ue.Kind)

	err = ClassifyStatus("openai", http.StatusInternalServerError, errors.New("boom"))
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindUnknown, ue.Kind)
}

func TestGuidance(t *testing.T) {
	ue := &UpstreamError{Provider: "gemini", Kind: KindRateLimit, Raw: "429"}
	assert.Contains(t, strings.ToLower(ue.Guidance()), "rate limit")
	assert.Equal(t, "gemini: 429", ue.Error())

	unknown := &UpstreamError{Provider: "gemini", Kind: KindUnknown, Raw: "weird failure"}
	assert.Equal(t, "weird failure", unknown.Guidance())

	var empty *UpstreamError
	require.ErrorAs(t, Empty("ollama"), &empty)
	assert.Equal(t, KindEmpty, empty.Kind)
}
