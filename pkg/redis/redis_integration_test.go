//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6380"
	}
	c, err := NewClient(&config.RedisConfig{Addr: addr, DB: 15}, zap.NewNop())
	if err != nil {
		t.Skipf("Redis 不可用: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBlacklist(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	jti := uuid.NewString()

	if err := c.BlacklistToken(ctx, jti, time.Minute); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}
	ok, err := c.IsBlacklisted(ctx, jti)
	if err != nil || !ok {
		t.Fatalf("IsBlacklisted = %v, %v; want true", ok, err)
	}

	// 已过期的 Token 不写入
	expired := uuid.NewString()
	if err := c.BlacklistToken(ctx, expired, 0); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}
	ok, _ = c.IsBlacklisted(ctx, expired)
	if ok {
		t.Error("expired token should not be blacklisted")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	for i := 0; i < 3; i++ {
		allowed, err := c.CheckRateLimit(ctx, key, 3, time.Minute)
		if err != nil || !allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
	allowed, err := c.CheckRateLimit(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit: %v", err)
	}
	if allowed {
		t.Error("4th request should be rejected")
	}
}

func TestJSONCache(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"

	type stats struct {
		Audits int64 `json:"audits"`
	}
	var got stats
	if err := c.GetJSON(ctx, prefix+"a", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("GetJSON on empty key: err=%v, want ErrCacheMiss", err)
	}

	if err := c.SetJSON(ctx, prefix+"a", stats{Audits: 7}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	if err := c.SetJSON(ctx, prefix+"b", stats{Audits: 1}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	if err := c.GetJSON(ctx, prefix+"a", &got); err != nil || got.Audits != 7 {
		t.Fatalf("GetJSON = %+v, %v", got, err)
	}

	if err := c.DeleteByPrefix(ctx, prefix); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if err := c.GetJSON(ctx, prefix+k, &got); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("key %s still cached: %v", k, err)
		}
	}
}
