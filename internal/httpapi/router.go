// Package httpapi is the JSON API used by the PWA. Every endpoint answers
// 200; failures carry an "error" field that the client reads aloud.
package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/aivision/internal/ai"
	"github.com/kiliankoe/aivision/internal/history"
	"github.com/kiliankoe/aivision/internal/imagedata"
	"github.com/kiliankoe/aivision/internal/prompt"
	"github.com/kiliankoe/aivision/internal/vision"
	"github.com/kiliankoe/aivision/static"
)

type Options struct {
	MaxBodyBytes int64
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type Router struct {
	svc *vision.Service
}

type analyzeRequest struct {
	Image string `json:"image"`
	Mode  string `json:"mode"`
}

type textRequest struct {
	Text string `json:"text"`
}

// AnalysisResponse is the success body of /analyze and /text_analyze.
type AnalysisResponse struct {
	Result     string `json:"result"`
	Mode       string `json:"mode"`
	Timestamp  string `json:"timestamp"`
	Speak      bool   `json:"speak"`
	ModelUsed  string `json:"model_used,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

func NewResponse(r history.Record) AnalysisResponse {
	return AnalysisResponse{Result: r.Result, Mode: r.Mode, Timestamp: r.Timestamp, Speak: true, ModelUsed: r.ModelUsed, TokensUsed: r.TokensUsed}
}

// New builds the gin engine with all routes and middleware.
func New(svc *vision.Service, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), limitBody(opts.MaxBodyBytes))

	h := &Router{svc: svc}
	r.GET("/health", h.health)
	r.POST("/analyze", h.analyze)
	r.POST("/text_analyze", h.textAnalyze)
	r.GET("/history", h.history)
	r.POST("/clear_history", h.clearHistory)
	r.GET("/models", h.models)
	r.GET("/manifest.json", manifest)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	assets := static.Handler()
	r.GET("/", gin.WrapH(assets))
	r.GET("/sw.js", gin.WrapH(assets))
	r.GET("/static/*filepath", gin.WrapH(assets))
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		assets.ServeHTTP(c.Writer, c.Request)
	})
	return r
}

func (h *Router) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "Analysis failed: invalid request body: " + err.Error()})
		return
	}
	rec, err := h.svc.Analyze(c.Request.Context(), req.Image, req.Mode)
	if err != nil {
		c.JSON(http.StatusOK, ErrorBody(h.svc, err))
		return
	}
	c.JSON(http.StatusOK, NewResponse(rec))
}

func (h *Router) textAnalyze(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "Analysis failed: invalid request body: " + err.Error()})
		return
	}
	rec, err := h.svc.AnalyzeText(c.Request.Context(), req.Text)
	if err != nil {
		c.JSON(http.StatusOK, ErrorBody(h.svc, err))
		return
	}
	c.JSON(http.StatusOK, NewResponse(rec))
}

func (h *Router) history(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.History.List())
}

func (h *Router) clearHistory(c *gin.Context) {
	h.svc.ClearHistory()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Router) models(c *gin.Context) {
	models, err := h.svc.Models(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, ErrorBody(h.svc, err))
		return
	}
	if models == nil {
		models = []ai.ModelInfo{}
	}
	c.JSON(http.StatusOK, models)
}

func (h *Router) health(c *gin.Context) {
	status := "healthy"
	if !h.svc.Ready() {
		status = "degraded"
	}
	body := gin.H{
		"status":        status,
		"providerReady": h.svc.Ready(),
		"provider":      h.svc.ProviderName(),
		"timestamp":     h.svc.Clock.Now().UTC(),
		"history_size":  h.svc.History.Len(),
		"modes":         prompt.Modes(),
		"text_analysis": h.svc.Providers.Text != nil,
	}
	if e := h.svc.ProviderError(); e != "" {
		body["error"] = e
	}
	c.JSON(http.StatusOK, body)
}

// ErrorBody maps service errors onto the {"error": ...} envelope. Upstream
// errors get friendly text in "error" and the raw message in "detail".
func ErrorBody(svc *vision.Service, err error) gin.H {
	var ue *ai.UpstreamError
	switch {
	case errors.Is(err, ai.ErrProviderUnavailable):
		body := gin.H{"error": svc.ProviderName() + " API not available"}
		if d := svc.ProviderError(); d != "" {
			body["detail"] = d
		}
		return body
	case errors.As(err, &ue):
		return gin.H{"error": "Analysis failed: " + ue.Guidance(), "detail": ue.Raw, "kind": string(ue.Kind)}
	case errors.Is(err, imagedata.ErrDecode):
		msg := err.Error()
		return gin.H{"error": strings.ToUpper(msg[:1]) + msg[1:]}
	}
	return gin.H{"error": "Analysis failed: " + err.Error()}
}
