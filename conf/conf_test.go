package conf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/failcache/codec"
)

const yamlDoc = `
addr: "127.0.0.1:6379"
password: "hunter2"
db: 3
op_timeout: 1500ms
max_retries: 4
retry_base_delay: 250ms
retry_max_delay: 2s
max_fallback_entries: 512
sweep_interval: 30s
default_ttl: 10m
domains:
  app: 5m
  chat: 30s
mirror_writes: true
codec: msgpack
fallback:
  engine: gocache
`

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(yamlDoc), YAML)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "127.0.0.1:6379" || cfg.Password != "hunter2" || cfg.DB != 3 {
		t.Fatalf("backend fields: %+v", cfg)
	}
	if cfg.OpTimeout != 1500*time.Millisecond || cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("durations: %+v", cfg)
	}
	if cfg.MaxRetries != 4 || cfg.MaxFallbackEntries != 512 || !cfg.MirrorWrites {
		t.Fatalf("scalars: %+v", cfg)
	}
	if cfg.Domains["app"] != 5*time.Minute || cfg.Domains["chat"] != 30*time.Second {
		t.Fatalf("domains: %v", cfg.Domains)
	}
	if cfg.Codec != "msgpack" || cfg.Fallback.Engine != "gocache" {
		t.Fatalf("codec/fallback: %+v", cfg)
	}
}

func TestParseJSON(t *testing.T) {
	doc := `{"url": "redis://localhost:6379/1", "default_ttl": "1m", "codec": "cbor"}`
	cfg, err := Parse([]byte(doc), JSON)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "redis://localhost:6379/1" || cfg.DefaultTTL != time.Minute || cfg.Codec != "cbor" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadDetectsFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.yml")
	if err := os.WriteFile(path, []byte("addr: host:6379\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "host:6379" {
		t.Fatalf("addr=%q", cfg.Addr)
	}

	if _, err := Load(filepath.Join(dir, "cache.toml")); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse([]byte("{not json"), JSON); err == nil {
		t.Fatal("expected a parse error")
	}
	if _, err := Parse(nil, Format("toml")); err == nil {
		t.Fatal("expected an unsupported format error")
	}
}

func TestOptionsBuildsCodecAndEngine(t *testing.T) {
	cfg, err := Parse([]byte(yamlDoc), YAML)
	if err != nil {
		t.Fatal(err)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := opts.Codec.(codec.Msgpack); !ok {
		t.Fatalf("codec=%T want Msgpack", opts.Codec)
	}
	if opts.Fallback == nil {
		t.Fatal("gocache engine not built")
	}
	t.Cleanup(func() { _ = opts.Fallback.Close() })
	if opts.DomainTTLs["app"] != 5*time.Minute {
		t.Fatalf("DomainTTLs=%v", opts.DomainTTLs)
	}
}

func TestOptionsBuildsCBORCodec(t *testing.T) {
	opts, err := Config{Codec: "cbor"}.Options()
	if err != nil {
		t.Fatal(err)
	}
	cc, ok := opts.Codec.(codec.CBOR)
	if !ok {
		t.Fatalf("codec=%T want CBOR", opts.Codec)
	}
	b, err := cc.Marshal(map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("cbor codec not usable: %v", err)
	}
	var out map[string]int
	if err := cc.Unmarshal(b, &out); err != nil || out["n"] != 1 {
		t.Fatalf("round-trip failed: %v %v", out, err)
	}
}

func TestOptionsDefaultsToJSONCodecAndMapStore(t *testing.T) {
	opts, err := Config{}.Options()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := opts.Codec.(codec.JSON); !ok {
		t.Fatalf("codec=%T want JSON", opts.Codec)
	}
	if opts.Fallback != nil {
		t.Fatal("map engine must stay nil so the cache builds its own store")
	}
}

func TestOptionsRejectsUnknownNames(t *testing.T) {
	if _, err := (Config{Codec: "xml"}).Options(); err == nil || !strings.Contains(err.Error(), "unknown codec") {
		t.Fatalf("err=%v", err)
	}
	if _, err := (Config{Fallback: FallbackConfig{Engine: "memcached"}}).Options(); err == nil || !strings.Contains(err.Error(), "unknown fallback engine") {
		t.Fatalf("err=%v", err)
	}
	// bigcache needs a positive life window
	if _, err := (Config{Fallback: FallbackConfig{Engine: "bigcache"}}).Options(); err == nil {
		t.Fatal("expected a config error for bigcache without life_window")
	}
}

func TestOptionsBuildsRistretto(t *testing.T) {
	cfg := Config{Fallback: FallbackConfig{
		Engine:      "ristretto",
		NumCounters: 1000,
		MaxCost:     1 << 16,
		BufferItems: 64,
	}}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Fallback == nil {
		t.Fatal("ristretto engine not built")
	}
	_ = opts.Fallback.Close()
}
