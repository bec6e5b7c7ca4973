package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
)

// PayloadCache 保存最近一次广播的 payload，新连接的订阅者可立即拿到首帧
type PayloadCache struct {
	kv  KV
	key string
	ttl time.Duration
}

func NewPayloadCache(kv KV, deviceID string, ttl time.Duration) *PayloadCache {
	return &PayloadCache{
		kv:  kv,
		key: "khetbox:" + deviceID + ":latest",
		ttl: ttl,
	}
}

func (c *PayloadCache) Key() string { return c.key }

func (c *PayloadCache) Save(ctx context.Context, p models.BroadcastPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return c.kv.Set(ctx, c.key, string(b), c.ttl)
}

// Latest 返回缓存的 payload；无缓存时返回 ErrMiss
func (c *PayloadCache) Latest(ctx context.Context) (*models.BroadcastPayload, error) {
	val, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	var p models.BroadcastPayload
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached payload: %w", err)
	}
	return &p, nil
}
