package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/session-relay/internal/protocol"
)

const (
	// DefaultStatusKey key holding the latest status dump
	DefaultStatusKey = "relay:status"

	// DefaultStatusTTL the mirror expires when the relay stops announcing
	DefaultStatusTTL = 30 * time.Second
)

// StatusStore Redis 状态镜像：保存最近一次状态快照并发布到同名频道
type StatusStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewStatusStore 创建状态镜像
func NewStatusStore(client *redis.Client, key string, ttl time.Duration) *StatusStore {
	if key == "" {
		key = DefaultStatusKey
	}
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &StatusStore{client: client, key: key, ttl: ttl}
}

// Channel pub/sub channel status dumps are published on
func (ss *StatusStore) Channel() string {
	return ss.key + ":updates"
}

// SaveStatus 保存状态快照并发布
func (ss *StatusStore) SaveStatus(ctx context.Context, status protocol.StatusPayload) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("序列化状态失败: %w", err)
	}

	pipe := ss.client.Pipeline()
	pipe.Set(ctx, ss.key, data, ss.ttl)
	pipe.Publish(ctx, ss.Channel(), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入状态失败: %w", err)
	}
	return nil
}

// LoadStatus 读取最近一次状态快照，不存在时返回 nil
func (ss *StatusStore) LoadStatus(ctx context.Context) (*protocol.StatusPayload, error) {
	data, err := ss.client.Get(ctx, ss.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var status protocol.StatusPayload
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("解析状态失败: %w", err)
	}
	return &status, nil
}
