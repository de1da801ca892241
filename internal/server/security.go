package server

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// --- 连接速率限制（按 IP） ---

// RateLimiter 连接速率限制器，超限的 IP 会被暂时封禁
type RateLimiter struct {
	requests map[string]*clientRate
	mu       sync.Mutex

	maxPerSecond int
	maxPerMinute int
	banDuration  time.Duration
	now          func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type clientRate struct {
	secondCount int
	minuteCount int
	lastSecond  time.Time
	lastMinute  time.Time
	bannedUntil time.Time
}

// rateCleanupInterval 过期记录清理间隔
const rateCleanupInterval = 5 * time.Minute

// NewRateLimiter 创建速率限制器并启动清理协程，用 Stop 结束
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests:     make(map[string]*clientRate),
		maxPerSecond: maxPerSecond,
		maxPerMinute: maxPerMinute,
		banDuration:  banDuration,
		now:          time.Now,
		stop:         make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow 检查该 IP 是否允许建立新连接
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rate, ok := rl.requests[ip]
	if !ok {
		rl.requests[ip] = &clientRate{secondCount: 1, minuteCount: 1, lastSecond: now, lastMinute: now}
		return true
	}

	if now.Before(rate.bannedUntil) {
		return false
	}
	if now.Sub(rate.lastSecond) >= time.Second {
		rate.secondCount = 0
		rate.lastSecond = now
	}
	if now.Sub(rate.lastMinute) >= time.Minute {
		rate.minuteCount = 0
		rate.lastMinute = now
	}

	rate.secondCount++
	rate.minuteCount++

	if rate.secondCount > rl.maxPerSecond || rate.minuteCount > rl.maxPerMinute {
		rate.bannedUntil = now.Add(rl.banDuration)
		log.Printf("⚠️ IP %s banned for %v after too many connection attempts", ip, rl.banDuration)
		return false
	}
	return true
}

// IsBanned 检查 IP 是否被封禁
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rate, ok := rl.requests[ip]
	return ok && rl.now().Before(rate.bannedUntil)
}

// Stop 停止清理协程
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rateCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup 删除 10 分钟无活动且未封禁的记录
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, rate := range rl.requests {
		if now.Sub(rate.lastMinute) > 10*time.Minute && now.After(rate.bannedUntil) {
			delete(rl.requests, ip)
		}
	}
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器，"*" 表示允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowedOrigins: make(map[string]bool)}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(origin)] = true
	}
	return oc
}

// Check 检查来源是否允许；没有 Origin 头的非浏览器客户端总是放行
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- IP 白名单/黑名单 ---

// IPFilter IP 过滤器
// 名单在启动时由配置确定，之后只读
type IPFilter struct {
	whitelist map[string]bool
	blacklist map[string]bool
}

// NewIPFilter 创建 IP 过滤器
func NewIPFilter(whitelist, blacklist []string) *IPFilter {
	f := &IPFilter{
		whitelist: make(map[string]bool),
		blacklist: make(map[string]bool),
	}
	for _, ip := range whitelist {
		f.whitelist[ip] = true
	}
	for _, ip := range blacklist {
		f.blacklist[ip] = true
	}
	return f
}

// IsAllowed 黑名单优先；白名单非空时只允许名单内 IP
func (f *IPFilter) IsAllowed(ip string) bool {
	if f.blacklist[ip] {
		return false
	}
	if len(f.whitelist) > 0 && !f.whitelist[ip] {
		return false
	}
	return true
}

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// 第一个是最原始的客户端
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- 消息速率限制（按连接） ---

// MessageRateLimiter 消息速率限制器，实现 types.MessageLimiter
type MessageRateLimiter struct {
	limits       map[string]*messageRate
	mu           sync.Mutex
	maxPerSecond int
	now          func() time.Time
}

type messageRate struct {
	count     int
	lastReset time.Time
	warnings  int
}

// NewMessageRateLimiter 创建消息速率限制器；maxPerSecond <= 0 表示不限制
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		limits:       make(map[string]*messageRate),
		maxPerSecond: maxPerSecond,
		now:          time.Now,
	}
}

// Allow 检查该连接本秒内是否还能发送消息，超限时记一次警告
func (ml *MessageRateLimiter) Allow(clientID string) bool {
	if ml.maxPerSecond <= 0 {
		return true
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	rate, ok := ml.limits[clientID]
	if !ok {
		ml.limits[clientID] = &messageRate{count: 1, lastReset: now}
		return true
	}

	if now.Sub(rate.lastReset) >= time.Second {
		rate.count = 1
		rate.lastReset = now
		return true
	}

	rate.count++
	if rate.count > ml.maxPerSecond {
		rate.warnings++
		return false
	}
	return true
}

// GetWarningCount 获取警告次数
func (ml *MessageRateLimiter) GetWarningCount(clientID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if rate, ok := ml.limits[clientID]; ok {
		return rate.warnings
	}
	return 0
}

// RemoveClient 移除连接记录
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.limits, clientID)
}
