package console

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/session-relay/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 10 * time.Second
	bufferSize       = 256
)

var (
	errConnClosed  = errors.New("connection closed")
	errSendBufFull = errors.New("send buffer full")
)

// Frame one server frame with its message_type peeked
type Frame struct {
	Type string
	Raw  []byte
}

// Client WebSocket 连接，读写各一个协程
type Client struct {
	ServerURL string

	conn     *websocket.Conn
	send     chan []byte
	incoming chan Frame
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建客户端
func NewClient(serverURL string) *Client {
	return &Client{
		ServerURL: serverURL,
		send:      make(chan []byte, bufferSize),
		incoming:  make(chan Frame, bufferSize),
		done:      make(chan struct{}),
	}
}

// Connect 连接服务器并启动读写协程
func (c *Client) Connect() error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, resp, err := dialer.Dial(c.ServerURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()
	return nil
}

// Incoming 服务器帧；连接关闭后通道关闭
func (c *Client) Incoming() <-chan Frame {
	return c.incoming
}

// Send 发送一帧，不阻塞
func (c *Client) Send(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errConnClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return errSendBufFull
	}
}

// Close 关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

func (c *Client) readPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.Close()
		close(c.incoming)
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			return
		}

		frame := Frame{Raw: message}
		var head struct {
			MessageType string `json:"message_type"`
		}
		if err := json.Unmarshal(message, &head); err == nil {
			frame.Type = head.MessageType
		}

		select {
		case c.incoming <- frame:
		case <-c.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
