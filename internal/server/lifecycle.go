package server

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/palemoky/session-relay/internal/apperrors"
	"github.com/palemoky/session-relay/internal/protocol/codec"
)

// monitorInterval 运行状态日志间隔
const monitorInterval = 30 * time.Second

// startBackground 启动周期广播和监控
func (s *Server) startBackground(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	s.stopBg = cancel

	if s.announcer != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.announcer.Run(bgCtx)
		}()
	}

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.monitorStats(bgCtx)
	}()
}

// stopBackground 停止后台任务并等待退出
func (s *Server) stopBackground() {
	if s.stopBg != nil {
		s.stopBg()
	}
	s.bgWG.Wait()
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			log.Printf("📊 [监控] 在线: %d | 会话: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
				s.GetOnlineCount(),
				s.store.Count(),
				runtime.NumGoroutine(),
				len(s.semaphore),
				s.maxConnections,
				float64(m.Alloc)/1024/1024)
		}
	}
}

// IsShuttingDown 是否正在关闭
func (s *Server) IsShuttingDown() bool {
	return s.shuttingDown.Load()
}

// Shutdown 优雅关闭：拒绝新连接，停止广播，通知并关闭所有连接，关闭 Redis
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.shuttingDown.Store(true)
		log.Println("🔧 正在关闭服务器...")

		s.stopBackground()

		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}

		// 通知并关闭所有连接，ReadPump 退出时完成清理
		s.broadcaster.BroadcastAll(codec.ErrorFor(apperrors.ErrServerShutdown))
		for _, client := range s.registry.Connections() {
			client.Close()
		}

		s.rateLimiter.Stop()

		if s.redis != nil {
			_ = s.redis.Close()
		}

		log.Println("服务器已关闭")
	})
	return err
}
