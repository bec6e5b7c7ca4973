package hub

import (
	"sync"

	"go.uber.org/zap"
)

// Hub 维护实时订阅者集合并向其扇出消息
type Hub struct {
	mu        sync.RWMutex
	subs      map[uint64]*Subscriber
	nextID    uint64
	queueSize int
	latest    []byte
	closed    bool
	logger    *zap.Logger
}

func NewHub(queueSize int, logger *zap.Logger) *Hub {
	return &Hub{
		subs:      make(map[uint64]*Subscriber),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Subscribe 注册订阅者；hub 已关闭时返回的订阅者处于关闭状态
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := newSubscriber(h.nextID, h.queueSize)
	if h.closed {
		s.close()
		return s
	}
	h.subs[s.id] = s
	h.logger.Info("Subscriber registered", zap.Uint64("subscriber_id", s.id), zap.Int("total", len(h.subs)))
	return s
}

// Unsubscribe 移除并关闭订阅者（可重复调用）
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	total := len(h.subs)
	h.mu.Unlock()

	s.close()
	if ok {
		h.logger.Info("Subscriber removed", zap.Uint64("subscriber_id", s.id), zap.Int("total", total))
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast 向所有订阅者非阻塞投递同一份消息，返回成功入队数。
// 入队失败的订阅者被移除，不影响其余订阅者。
func (h *Hub) Broadcast(msg []byte) int {
	h.mu.Lock()
	h.latest = msg
	targets := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	delivered := 0
	for _, s := range targets {
		if err := s.Push(msg); err != nil {
			h.Unsubscribe(s)
			continue
		}
		delivered++
	}
	return delivered
}

// Latest 最近一次广播的消息
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// CloseAll 关闭所有订阅者，之后的 Subscribe 立即返回已关闭的订阅者
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*Subscriber)
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
	h.logger.Info("All subscribers closed", zap.Int("count", len(subs)))
}
