package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Shradha102005/KhetBox/internal/hub"
	"github.com/Shradha102005/KhetBox/internal/store"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const firstFrameTimeout = 2 * time.Second

// SensorStreamHandler /ws/sensors：升级连接后注册为 hub 订阅者
type SensorStreamHandler struct {
	hub      *hub.Hub
	payloads *store.PayloadCache // 可为 nil
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewSensorStreamHandler(h *hub.Hub, payloads *store.PayloadCache, origins []string, logger *zap.Logger) *SensorStreamHandler {
	return &SensorStreamHandler{
		hub:      h,
		payloads: payloads,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(origins, origin)
			},
		},
		logger: logger,
	}
}

func (s *SensorStreamHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	// 首帧在订阅前取出，保证不会晚于本连接收到的第一轮广播
	initial := s.firstFrame(req.Context())
	client := hub.NewClient(s.hub, conn, s.logger)
	s.logger.Info("WebSocket client connected", zap.Int("subscribers", s.hub.Count()))

	client.Serve(initial)

	s.logger.Info("WebSocket client disconnected", zap.Int("subscribers", s.hub.Count()))
}

// firstFrame 优先取 Redis 中的最近 payload，否则取 hub 内存中的最近一帧
func (s *SensorStreamHandler) firstFrame(ctx context.Context) []byte {
	if s.payloads != nil {
		ctx, cancel := context.WithTimeout(ctx, firstFrameTimeout)
		defer cancel()
		p, err := s.payloads.Latest(ctx)
		if err == nil {
			if b, err := json.Marshal(p); err == nil {
				return b
			}
		} else if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("Failed to read cached payload", zap.Error(err))
		}
	}
	return s.hub.Latest()
}
