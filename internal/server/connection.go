package server

import (
	"log"
	"net/http"
	"time"

	"github.com/palemoky/session-relay/internal/protocol/codec"
	"github.com/palemoky/session-relay/internal/server/announce"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	if s.IsShuttingDown() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	if !s.ipFilter.IsAllowed(clientIP) {
		log.Printf("🚫 IP %s 被过滤器拒绝", clientIP)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !s.originChecker.Check(r) {
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		log.Printf("🚫 IP %s 请求过于频繁", clientIP)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	// 连接数限制，名额在 ReadPump 退出时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.release()
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.handler.Connect(client)

	log.Printf("✅ connection %s opened from %s", client.ID, clientIP)

	go client.WritePump()
	go client.ReadPump()
}

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Sessions    int    `json:"sessions"`
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status, code := "ok", http.StatusOK
	if s.IsShuttingDown() {
		status, code = "shutting_down", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(codec.MustEncode(healthResponse{
		Status:      status,
		Connections: s.GetOnlineCount(),
		Sessions:    s.store.Count(),
	}))
}

// handleStatus 返回最近一次状态快照：优先读 Redis 镜像，不可用时现场生成
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.statusStore != nil {
		status, err := s.statusStore.LoadStatus(r.Context())
		if err != nil {
			log.Printf("⚠️ 读取状态镜像失败: %v", err)
		}
		if status != nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(codec.MustEncode(status))
			return
		}
	}

	_, sessions := s.handler.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(codec.MustEncode(announce.BuildStatus(sessions, time.Now())))
}
