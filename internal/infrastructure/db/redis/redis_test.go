package redis

import (
	"context"
	"testing"
	"time"
)

func TestConnect_FailsFastWithoutServer(t *testing.T) {
	start := time.Now()
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 500 * time.Millisecond})
	if err == nil {
		t.Fatal("expected an error when nothing listens on the address")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("connect took %s, expected to give up within the timeout", elapsed)
	}
}
