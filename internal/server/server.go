package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/session-relay/internal/config"
	"github.com/palemoky/session-relay/internal/server/announce"
	"github.com/palemoky/session-relay/internal/server/broadcast"
	"github.com/palemoky/session-relay/internal/server/handler"
	"github.com/palemoky/session-relay/internal/server/registry"
	"github.com/palemoky/session-relay/internal/server/session"
	"github.com/palemoky/session-relay/internal/server/storage"
)

// Server WebSocket 中继服务器
type Server struct {
	config      *config.Config
	registry    *registry.Registry
	store       *session.MemoryStore
	broadcaster *broadcast.Service
	handler     *handler.Handler
	announcer   *announce.Announcer

	// 可选的 Redis 状态镜像
	redis       *redis.Client
	statusStore *storage.StatusStore

	// 安全组件
	upgrader       websocket.Upgrader
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	httpServer   *http.Server
	shuttingDown atomic.Bool
	stopBg       context.CancelFunc
	bgWG         sync.WaitGroup
	shutdownOnce sync.Once
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		config:   cfg,
		registry: registry.New(),
		store:    session.NewMemoryStore(),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(cfg.Security.IPWhitelist, cfg.Security.IPBlacklist),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			s.rateLimiter.Stop()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}

		s.redis = rdb
		s.statusStore = storage.NewStatusStore(rdb, cfg.Redis.StatusKey, cfg.Redis.StatusTTLDuration())
	}

	s.broadcaster = broadcast.NewService(s.registry)
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Directory:      s.registry,
		Store:          s.store,
		Broadcaster:    s.broadcaster,
		MessageLimiter: s.messageLimiter,
	})

	if cfg.Announcer.Enabled {
		opts := []announce.Option{announce.WithSnapshotter(s.handler)}
		if s.statusStore != nil {
			opts = append(opts, announce.WithSink(s.statusStore))
		}
		s.announcer = announce.New(s.registry, s.store, s.broadcaster, cfg.Announcer.IntervalDuration(), opts...)
	}

	log.Printf("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d, redis=%v",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections, cfg.Redis.Enabled)

	return s, nil
}

// Handler HTTP 路由：WebSocket 入口与健康检查
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Server.WSPath, s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Run 启动后台任务并监听，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       60 * time.Second,
	}

	s.startBackground(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 服务器启动在 ws://%s%s (CPU核心数: %d)", addr, s.config.Server.WSPath, runtime.NumCPU())
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.stopBackground()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeoutDuration())
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// release 释放一个连接名额
func (s *Server) release() {
	<-s.semaphore
}

// GetOnlineCount 在线连接数
func (s *Server) GetOnlineCount() int {
	return s.registry.Count()
}
