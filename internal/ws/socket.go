// Package ws exposes the vision service over Socket.IO. Acks carry the same
// bodies as the HTTP endpoints.
package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/aivision/internal/history"
	"github.com/kiliankoe/aivision/internal/httpapi"
	"github.com/kiliankoe/aivision/internal/vision"
	"github.com/rs/zerolog/log"
)

const (
	EventAnalyze         = "vision:analyze"
	EventText            = "vision:text"
	EventHistoryList     = "history:list"
	EventHistoryClear    = "history:clear"
	EventHistoryAppended = "history:appended"
	EventHistoryCleared  = "history:cleared"
)

// broadcaster is the part of *socketio.Server used to fan out history changes.
type broadcaster interface {
	BroadcastToNamespace(namespace string, event string, args ...interface{}) bool
}

type analyzePayload struct {
	Image string `json:"image"`
	Mode  string `json:"mode"`
}

type textPayload struct {
	Text string `json:"text"`
}

type Server struct {
	svc *vision.Service
	out broadcaster
}

// New subscribes to the service history so every appended record reaches
// connected clients once the server is mounted.
func New(svc *vision.Service) *Server {
	srv := &Server{svc: svc}
	svc.History.Subscribe(func(r history.Record) {
		srv.broadcast(EventHistoryAppended, r)
	})
	return srv
}

// Mount attaches the Socket.IO server to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.out = io

	io.OnConnect("/", func(s socketio.Conn) error {
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", EventAnalyze, func(s socketio.Conn, p analyzePayload) any {
		return srv.analyze(connContext(s), p)
	})
	io.OnEvent("/", EventText, func(s socketio.Conn, p textPayload) any {
		return srv.text(connContext(s), p)
	})
	io.OnEvent("/", EventHistoryList, func(s socketio.Conn) []history.Record {
		return srv.svc.History.List()
	})
	io.OnEvent("/", EventHistoryClear, func(s socketio.Conn) map[string]any {
		return srv.clear()
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		sid := ""
		if s != nil {
			sid = s.ID()
		}
		log.Error().Str("sid", sid).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) analyze(ctx context.Context, p analyzePayload) any {
	rec, err := srv.svc.Analyze(ctx, p.Image, p.Mode)
	if err != nil {
		return httpapi.ErrorBody(srv.svc, err)
	}
	return httpapi.NewResponse(rec)
}

func (srv *Server) text(ctx context.Context, p textPayload) any {
	rec, err := srv.svc.AnalyzeText(ctx, p.Text)
	if err != nil {
		return httpapi.ErrorBody(srv.svc, err)
	}
	return httpapi.NewResponse(rec)
}

func (srv *Server) clear() map[string]any {
	srv.svc.ClearHistory()
	srv.broadcast(EventHistoryCleared, map[string]any{"success": true})
	return map[string]any{"success": true}
}

func (srv *Server) broadcast(event string, payload any) {
	if srv.out == nil {
		return
	}
	srv.out.BroadcastToNamespace("/", event, payload)
}

// connContext carries a logger tagged with the socket id. Socket events have
// no request context of their own.
func connContext(s socketio.Conn) context.Context {
	l := log.With().Str("sid", s.ID()).Logger()
	return l.WithContext(context.Background())
}
