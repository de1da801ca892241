package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 5001
	defaultWSPath           = "/"
	defaultMaxConnections   = 10000
	defaultMaxMessageSize   = 64 * 1024
	defaultSendBuffer       = 256
	defaultShutdownTimeout  = 10
	defaultAnnounceInterval = 2000
	defaultMessagePerSecond = 50
	defaultConnPerSecond    = 10
	defaultConnPerMinute    = 120
	defaultBanDuration      = 60
	defaultRedisAddr        = "localhost:6379"
	defaultStatusKey        = "relay:status"
	defaultStatusTTL        = 30
)

// envPrefix 环境变量前缀
const envPrefix = "RELAY_"

// Config 服务端配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Announcer AnnouncerConfig `yaml:"announcer"`
	Security  SecurityConfig  `yaml:"security"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	WSPath          string `yaml:"ws_path"`
	MaxConnections  int    `yaml:"max_connections"`
	MaxMessageSize  int64  `yaml:"max_message_size"` // 单帧最大字节数
	SendBuffer      int    `yaml:"send_buffer"`      // 每连接发送队列长度
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // 秒
}

// AnnouncerConfig 周期广播配置
type AnnouncerConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMS int  `yaml:"interval_ms"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
	IPWhitelist    []string           `yaml:"ip_whitelist"`
	IPBlacklist    []string           `yaml:"ip_blacklist"`
}

// RateLimitConfig 连接速率限制（按 IP）
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// MessageLimitConfig 消息速率限制（按连接）
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// RedisConfig Redis 状态镜像配置
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	StatusKey string `yaml:"status_key"`
	StatusTTL int    `yaml:"status_ttl"` // 秒
}

// LogConfig 日志配置
type LogConfig struct {
	File string `yaml:"file"` // 为空时输出到 stderr
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeoutDuration 返回优雅关闭超时时长
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// IntervalDuration 返回广播间隔
func (c *AnnouncerConfig) IntervalDuration() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// StatusTTLDuration 返回状态镜像过期时长
func (c *RedisConfig) StatusTTLDuration() time.Duration {
	return time.Duration(c.StatusTTL) * time.Second
}

// Load 加载配置文件，未给出的字段保留默认值，随后应用环境变量
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			WSPath:          defaultWSPath,
			MaxConnections:  defaultMaxConnections,
			MaxMessageSize:  defaultMaxMessageSize,
			SendBuffer:      defaultSendBuffer,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Announcer: AnnouncerConfig{
			Enabled:    true,
			IntervalMS: defaultAnnounceInterval,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				MaxPerSecond: defaultConnPerSecond,
				MaxPerMinute: defaultConnPerMinute,
				BanDuration:  defaultBanDuration,
			},
			MessageLimit: MessageLimitConfig{
				MaxPerSecond: defaultMessagePerSecond,
			},
		},
		Redis: RedisConfig{
			Addr:      defaultRedisAddr,
			StatusKey: defaultStatusKey,
			StatusTTL: defaultStatusTTL,
		},
	}
}

// applyDefaults 修正显式写成零值的字段
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = defaultWSPath
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = defaultMaxMessageSize
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = defaultSendBuffer
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Announcer.IntervalMS == 0 {
		c.Announcer.IntervalMS = defaultAnnounceInterval
	}
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = defaultMessagePerSecond
	}
	if c.Security.RateLimit.MaxPerSecond == 0 {
		c.Security.RateLimit.MaxPerSecond = defaultConnPerSecond
	}
	if c.Security.RateLimit.MaxPerMinute == 0 {
		c.Security.RateLimit.MaxPerMinute = defaultConnPerMinute
	}
	if c.Security.RateLimit.BanDuration == 0 {
		c.Security.RateLimit.BanDuration = defaultBanDuration
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Redis.StatusKey == "" {
		c.Redis.StatusKey = defaultStatusKey
	}
	if c.Redis.StatusTTL == 0 {
		c.Redis.StatusTTL = defaultStatusTTL
	}
}

// ApplyEnv 用 RELAY_* 环境变量覆盖配置
func (c *Config) ApplyEnv() error {
	var err error
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && err == nil {
			n, convErr := strconv.Atoi(strings.TrimSpace(v))
			if convErr != nil {
				err = fmt.Errorf("invalid %s%s=%q: %w", envPrefix, name, v, convErr)
				return
			}
			*dst = n
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && err == nil {
			b, convErr := strconv.ParseBool(strings.TrimSpace(v))
			if convErr != nil {
				err = fmt.Errorf("invalid %s%s=%q: %w", envPrefix, name, v, convErr)
				return
			}
			*dst = b
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = splitList(v)
		}
	}

	str("HOST", &c.Server.Host)
	num("PORT", &c.Server.Port)
	str("WS_PATH", &c.Server.WSPath)
	num("MAX_CONNECTIONS", &c.Server.MaxConnections)
	flag("ANNOUNCER_ENABLED", &c.Announcer.Enabled)
	num("ANNOUNCE_INTERVAL_MS", &c.Announcer.IntervalMS)
	list("ALLOWED_ORIGINS", &c.Security.AllowedOrigins)
	num("MESSAGE_LIMIT", &c.Security.MessageLimit.MaxPerSecond)
	flag("REDIS_ENABLED", &c.Redis.Enabled)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	str("LOG_FILE", &c.Log.File)

	return err
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("server.ws_path must start with '/': %q", c.Server.WSPath)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must not be negative: %d", c.Server.MaxConnections)
	}
	if c.Announcer.IntervalMS < 0 {
		return fmt.Errorf("announcer.interval_ms must not be negative: %d", c.Announcer.IntervalMS)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
