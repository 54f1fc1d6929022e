package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/99minutos/auth-system/internal/pkg/config"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	client, err := Connect(context.Background(), config.RedisConfig{Addr: mr.Addr(), Password: "s3cret", DB: 2})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mr.DB(2).Get("k"); got != "v" {
		t.Fatalf("value not written to db 2, got %q", got)
	}
}

func TestConnect_Failures(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	_, err := Connect(context.Background(), config.RedisConfig{Addr: mr.Addr(), Password: "wrong"})
	if err == nil || !strings.Contains(err.Error(), mr.Addr()) {
		t.Fatalf("bad password should fail naming the address, got %v", err)
	}

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond})
	if err == nil || !strings.Contains(err.Error(), "connect redis") {
		t.Fatalf("closed server should fail, got %v", err)
	}
}

func TestClientOptions_Timeouts(t *testing.T) {
	opts := clientOptions(config.RedisConfig{Addr: "x:1"})
	if opts.DialTimeout != fallbackDialTimeout || opts.ReadTimeout != fallbackDialTimeout {
		t.Fatalf("fallback timeouts not applied: %+v", opts)
	}
	opts = clientOptions(config.RedisConfig{Addr: "x:1", DialTimeout: time.Second, PoolSize: 7})
	if opts.WriteTimeout != time.Second || opts.PoolSize != 7 {
		t.Fatalf("configured values not applied: %+v", opts)
	}
}
