package cache

import (
	"context"
	"path/filepath"
	"testing"
)

func TestCache_PutThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	key := Key("<nta/>", `[{"t":0}]`, "shifted=true")

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected a cache miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Put(ctx, key, Verdict{IsSatisfied: true}); err != nil {
		t.Fatalf("put: %v", err)
	}

	v, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected a cache hit, got ok=%v err=%v", ok, err)
	}
	if !v.IsSatisfied {
		t.Error("expected IsSatisfied = true")
	}
}

func TestKey_IsStableAndDiscriminating(t *testing.T) {
	a := Key("model-a", "obs", "flags")
	b := Key("model-b", "obs", "flags")
	if a == b {
		t.Error("different models should hash to different keys")
	}
	if Key("model-a", "obs", "flags") != a {
		t.Error("Key should be deterministic for identical inputs")
	}
}
