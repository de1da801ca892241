package server

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/session-relay/internal/logger"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 服务端发出 close 帧后等待对端回应的最长时间
	closeGracePeriod = 5 * time.Second
)

var (
	errClientClosed = errors.New("client closed")
	errSendBufFull  = errors.New("send buffer full")
)

// Client 一个 WebSocket 连接，实现 types.ClientInterface
type Client struct {
	ID string // 连接句柄
	IP string

	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		server: s,
		conn:   conn,
		send:   make(chan []byte, s.config.Server.SendBuffer),
	}
}

// GetID 连接句柄
func (c *Client) GetID() string {
	return c.ID
}

// ReadPump 从 WebSocket 读取消息，逐帧交给路由器
func (c *Client) ReadPump() {
	reason := "closed by peer"
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			reason = "panic"
		}
		c.server.handler.Disconnect(c, reason)
		c.Close()
		_ = c.conn.Close()
		c.server.release()
	}()

	c.conn.SetReadLimit(c.server.config.Server.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	dropped := false
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !dropped && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ connection %s read error: %v", c.ID, err)
				reason = "abrupt close"
			}
			return
		}

		// 已被服务端断开：丢弃剩余入站帧，等待 WritePump 写完队列和 close 帧、对端回应
		if dropped {
			continue
		}

		if !c.server.handler.Handle(c, message) {
			reason = "dropped by server"
			dropped = true
		}
	}
}

// WritePump 向 WebSocket 写入消息。发送通道关闭时队列中的帧已全部写出，
// 随后发出 close 帧；socket 由 ReadPump 在对端回应后关闭，超时则强制关闭。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				time.AfterFunc(closeGracePeriod, func() { _ = c.conn.Close() })
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				_ = c.conn.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

// Send 把一帧放入发送队列，不阻塞；队列满时关闭连接
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errClientClosed
	}

	select {
	case c.send <- data:
		c.mu.RUnlock()
		return nil
	default:
		c.mu.RUnlock()
	}

	log.Printf("⚠️ connection %s send buffer full, closing", c.ID)
	c.Close()
	return errSendBufFull
}

// Close 关闭发送队列，WritePump 随后写完剩余帧并发出 close 帧
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
