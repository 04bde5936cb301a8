package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/tally-backend/pkg/config"
)

func TestSetNXAndGet(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{cmd: mock}

	key := client.IdempotencyKey("POST|/api/v1/invoices", "abc")
	ok, err := client.SetNX(ctx, key, "pending", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "other", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, ok=%v err=%v", ok, err)
	}

	if err := client.Set(ctx, key, "done", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "done" {
		t.Fatalf("expected overwritten value, got %q", value)
	}
	if mock.ttls[key] != time.Hour {
		t.Fatalf("expected ttl to follow the last write, got %s", mock.ttls[key])
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestCompareAndDeleteOnlyRemovesOwnValue(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{cmd: mock}

	if err := client.Set(ctx, "lease", "owner-a", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	deleted, err := client.CompareAndDelete(ctx, "lease", "owner-b")
	if err != nil || deleted {
		t.Fatalf("expected foreign owner to be ignored, deleted=%v err=%v", deleted, err)
	}
	deleted, err = client.CompareAndDelete(ctx, "lease", "owner-a")
	if err != nil || !deleted {
		t.Fatalf("expected owner to delete, deleted=%v err=%v", deleted, err)
	}
	if _, ok := mock.data["lease"]; ok {
		t.Fatal("lease should be gone")
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on empty client to fail")
	}
	if _, err := client.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected get on empty client to fail")
	}
	if _, err := client.CompareAndDelete(context.Background(), "k", "v"); err == nil {
		t.Fatal("expected compare-and-delete on empty client to fail")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "tally:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.IdempotencyKey("", "id"); got != "tally:idempotency:id" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
	if got := client.LockKey("maintenance", ""); got != "tally:lock:maintenance:local" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := Key(" a ", "", "b"); got != "tally:a:b" {
		t.Fatalf("expected trimmed parts, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected missing address to fail")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@cache:6380/3", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 3 || opts.Password != "pw" {
		t.Fatalf("unexpected options from url: %+v", opts)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("pool settings not applied: %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2})
	if err != nil {
		t.Fatalf("address config: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 {
		t.Fatalf("unexpected options from address: %+v", opts)
	}
}

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
		delete(m.ttls, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval understands only the compare-and-delete script.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if script != compareAndDelete || len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
	}
	if m.data[keys[0]] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(m.data, keys[0])
	delete(m.ttls, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}
