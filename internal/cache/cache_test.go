package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	k := Key("png", "SoWkIImgAStDuNBAJrBGjLDmpCbCJbMmKiX8pSd9vt98pKi1IG80")

	if !strings.HasPrefix(k, "render:png:") {
		t.Errorf("expected 'render:png:' prefix, got '%s'", k)
	}
	// sha1 hex digest
	if len(k) != len("render:png:")+40 {
		t.Errorf("unexpected key length %d: %s", len(k), k)
	}

	// Same inputs produce the same key.
	if k2 := Key("png", "SoWkIImgAStDuNBAJrBGjLDmpCbCJbMmKiX8pSd9vt98pKi1IG80"); k2 != k {
		t.Errorf("expected deterministic key, got '%s' and '%s'", k, k2)
	}

	// Format and token both discriminate.
	if Key("svg", "token") == Key("png", "token") {
		t.Error("expected different keys for different formats")
	}
	if Key("png", "token-a") == Key("png", "token-b") {
		t.Error("expected different keys for different tokens")
	}
}

// TestRenderCacheIntegration needs a running Redis; set REDIS_ADDR to run it.
func TestRenderCacheIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	ctx := context.Background()
	c, err := New(ctx, addr, time.Minute)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	defer c.Close()

	token := "integration-test-token"
	image := []byte("fake image bytes")

	// Miss before the first Set.
	if _, err := c.Get(ctx, "svg", token); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	if err := c.Set(ctx, "svg", token, image); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "svg", token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Errorf("expected cached bytes %q, got %q", image, got)
	}
}
