package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second    // 单次写超时
	pongWait       = 60 * time.Second    // 等待 pong 的超时
	pingPeriod     = (pongWait * 9) / 10 // 必须小于 pongWait
	maxMessageSize = 512                 // 客户端入站消息上限
)

// Client websocket 连接与 hub 订阅之间的桥
type Client struct {
	hub    *Hub
	sub    *Subscriber
	conn   *websocket.Conn
	logger *zap.Logger
}

// NewClient 为连接注册订阅者
func NewClient(h *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		hub:    h,
		sub:    h.Subscribe(),
		conn:   conn,
		logger: logger.With(zap.String("remote_addr", conn.RemoteAddr().String())),
	}
}

func (c *Client) Subscriber() *Subscriber { return c.sub }

// Serve 先入队首帧（可为空），启动写协程，阻塞在读循环直到连接断开
func (c *Client) Serve(initial []byte) {
	if len(initial) > 0 {
		_ = c.sub.Push(initial)
	}
	go c.WritePump()
	c.ReadPump()
}

// ReadPump 只处理控制帧；读失败即视为断开
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unsubscribe(c.sub)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

// WritePump 每条消息一个文本帧；写失败时移除订阅者
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unsubscribe(c.sub)
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.sub.Messages():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Warn("WebSocket write failed, dropping subscriber", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.sub.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}
