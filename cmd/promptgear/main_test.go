package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/cache"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/config"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/domain"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/mockgen"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return strings.TrimSpace(out.String())
}

func TestKeyCmd(t *testing.T) {
	mode := "coding"
	if got, want := run(t, "key", "--prompt", "fix it", "--mode", "coding"), cache.Key("fix it", &mode, config.DefaultModel); got != want {
		t.Fatalf("key = %q; want %q", got, want)
	}
	if got, want := run(t, "key", "-p", "fix it", "--model", "gpt-4.1"), cache.Key("fix it", nil, "gpt-4.1"); got != want {
		t.Fatalf("key without mode = %q; want %q", got, want)
	}
	empty := ""
	if got := run(t, "key", "-p", "fix it", "--mode", ""); got != cache.Key("fix it", &empty, config.DefaultModel) {
		t.Fatalf("explicit empty mode must differ from absent: %q", got)
	}
}

func TestMockCmd(t *testing.T) {
	got := run(t, "mock", "--prompt", "Analyze network security logs", "--mode", "research")
	if got != strings.TrimSpace(mockgen.Build("Analyze network security logs", "research")) {
		t.Fatalf("mock output = %q", got)
	}
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rec := domain.CachedTransform{StructuredPrompt: "Role: x.", Model: "m", CachedAt: time.Now().UTC()}

	cases := []struct {
		name     string
		cfg      config.CacheConfig
		persists bool
	}{
		{"memory", config.CacheConfig{Backend: config.CacheMemory, TTL: time.Hour}, true},
		{"none", config.CacheConfig{Backend: config.CacheNone, TTL: time.Hour}, false},
		{"redis", config.CacheConfig{Backend: config.CacheRedis, TTL: time.Hour, RedisURL: "redis://" + mr.Addr() + "/0"}, true},
		{"sqlite", config.CacheConfig{Backend: config.CacheSQLite, TTL: time.Hour, DBPath: filepath.Join(t.TempDir(), "cache.db")}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, closeFn, err := openStore(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("openStore: %v", err)
			}
			t.Cleanup(func() { _ = closeFn() })

			if err := store.Put(ctx, "k", rec); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, ok, err := store.Get(ctx, "k")
			if err != nil || ok != tc.persists {
				t.Fatalf("get ok=%v err=%v", ok, err)
			}
			if ok && got.StructuredPrompt != rec.StructuredPrompt {
				t.Fatalf("round trip = %+v", got)
			}
		})
	}
}

func TestOpenStore_Errors(t *testing.T) {
	ctx := context.Background()
	if _, closeFn, err := openStore(ctx, config.CacheConfig{Backend: "disk"}); err == nil || closeFn == nil {
		t.Fatalf("unknown backend must fail with a usable close func")
	}
	if _, _, err := openStore(ctx, config.CacheConfig{Backend: config.CacheRedis, RedisURL: "not a url"}); err == nil {
		t.Fatalf("bad redis url must fail")
	}
	if _, _, err := openStore(ctx, config.CacheConfig{Backend: config.CacheSQLite, DBPath: filepath.Join(t.TempDir(), "missing", "c.db")}); err == nil {
		t.Fatalf("missing sqlite directory must fail")
	}
}
