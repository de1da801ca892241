package server

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	// 5 reqs/sec, 10 reqs/min, 1s ban
	rl := NewRateLimiter(5, 10, time.Second)
	defer rl.Stop()
	clock := newFakeClock()
	rl.now = clock.Now
	ip := "127.0.0.1"

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(ip), "Request %d should be allowed", i)
	}

	// 6th request fails on the per-second limit
	assert.False(t, rl.Allow(ip))
	assert.True(t, rl.IsBanned(ip))

	clock.Advance(1100 * time.Millisecond)
	assert.False(t, rl.IsBanned(ip))
	assert.True(t, rl.Allow(ip))
}

func TestRateLimiter_MinuteLimit(t *testing.T) {
	t.Parallel()

	// 100/sec but only 5/min
	rl := NewRateLimiter(100, 5, time.Second)
	defer rl.Stop()
	clock := newFakeClock()
	rl.now = clock.Now
	ip := "10.0.0.1"

	for _i := 0; _i < 5; _i++ {
		assert.True(t, rl.Allow(ip))
		clock.Advance(2 * time.Second)
	}
	assert.False(t, rl.Allow(ip))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(5, 10, time.Second)
	defer rl.Stop()
	clock := newFakeClock()
	rl.now = clock.Now

	rl.Allow("1.1.1.1")
	clock.Advance(11 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.requests)
}

func TestRateLimiter_Concurrency(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(100, 200, time.Second)
	defer rl.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	for _i := 0; _i < 50; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("concurrent-test") {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, successCount)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Second)
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestIPFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ip        string
		whitelist []string
		blacklist []string
		allowed   bool
	}{
		{name: "Default allow", ip: "192.168.1.1", allowed: true},
		{name: "Blacklisted IP", ip: "192.168.1.2", blacklist: []string{"192.168.1.2"}, allowed: false},
		{name: "Other IP not blacklisted", ip: "192.168.1.3", blacklist: []string{"192.168.1.2"}, allowed: true},
		{name: "Not in whitelist", ip: "192.168.1.4", whitelist: []string{"10.0.0.1"}, allowed: false},
		{name: "In whitelist", ip: "10.0.0.1", whitelist: []string{"10.0.0.1"}, allowed: true},
		{
			name:      "Blacklist overrides whitelist",
			ip:        "10.0.0.2",
			whitelist: []string{"10.0.0.2"},
			blacklist: []string{"10.0.0.2"},
			allowed:   false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewIPFilter(tt.whitelist, tt.blacklist)
			assert.Equal(t, tt.allowed, f.IsAllowed(tt.ip))
		})
	}
}

func TestGetClientIP_ProxyHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expectedIP string
	}{
		{name: "Direct connection", remoteAddr: "192.168.1.1:12345", expectedIP: "192.168.1.1"},
		{name: "No port", remoteAddr: "192.168.1.9", expectedIP: "192.168.1.9"},
		{
			name:       "X-Forwarded-For multiple IPs",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2, 10.0.0.3"},
			expectedIP: "203.0.113.1",
		},
		{
			name:       "X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Real-IP": "203.0.113.2"},
			expectedIP: "203.0.113.2",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.3",
				"X-Real-IP":       "203.0.113.4",
			},
			expectedIP: "203.0.113.3",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expectedIP, GetClientIP(req))
		})
	}
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(5)
	clock := newFakeClock()
	ml.now = clock.Now
	clientID := "client1"

	for _i := 0; _i < 5; _i++ {
		assert.True(t, ml.Allow(clientID))
	}
	assert.False(t, ml.Allow(clientID))
	assert.False(t, ml.Allow(clientID))
	assert.Equal(t, 2, ml.GetWarningCount(clientID))

	// Next second starts fresh but warnings are kept
	clock.Advance(time.Second)
	assert.True(t, ml.Allow(clientID))
	assert.Equal(t, 2, ml.GetWarningCount(clientID))

	ml.RemoveClient(clientID)
	assert.Zero(t, ml.GetWarningCount(clientID))
}

func TestMessageRateLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(0)
	for _i := 0; _i < 1000; _i++ {
		assert.True(t, ml.Allow("c"))
	}
}

func TestOriginChecker_AllowAll(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"*"})
	req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://evil.com")

	assert.True(t, oc.Check(req))
}

func TestOriginChecker_SpecificOrigins(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"https://example.com", "https://App.example.com"})

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://example.com", true},
		{"https://app.example.com", true},
		{"https://evil.com", false},
		{"http://example.com", false}, // different scheme
		{"", true},                    // no Origin header
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.allowed, oc.Check(req), "Origin: %s", tt.origin)
	}
}
