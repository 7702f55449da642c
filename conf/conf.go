// Package conf loads failcache options from YAML or JSON files, for
// deployments that tune the cache without recompiling. Everything a file can
// express maps onto failcache.Options; injected clients, custom stores, and
// protobuf codecs stay code-only.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/unkn0wn-root/failcache"
	"github.com/unkn0wn-root/failcache/codec"
	fb "github.com/unkn0wn-root/failcache/fallback"
)

// Format names a supported file encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// Config is the file-friendly form of failcache.Options. Durations use Go
// syntax ("5m", "1.5s"); zero values defer to the cache defaults.
type Config struct {
	Addr     string `koanf:"addr"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	URL      string `koanf:"url"`

	OpTimeout      time.Duration `koanf:"op_timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay"`

	MaxFallbackEntries int           `koanf:"max_fallback_entries"`
	SweepInterval      time.Duration `koanf:"sweep_interval"`

	DefaultTTL time.Duration            `koanf:"default_ttl"`
	Domains    map[string]time.Duration `koanf:"domains"`

	MirrorWrites bool `koanf:"mirror_writes"`

	// Codec: json (default) | msgpack | cbor | bytes.
	Codec string `koanf:"codec"`

	Fallback FallbackConfig `koanf:"fallback"`
}

// FallbackConfig selects and tunes the in-process store engine.
type FallbackConfig struct {
	// Engine: map (default) | gocache | bigcache | ristretto.
	Engine string `koanf:"engine"`

	// bigcache
	LifeWindow time.Duration `koanf:"life_window"`

	// ristretto
	NumCounters int64 `koanf:"num_counters"`
	MaxCost     int64 `koanf:"max_cost"`
	BufferItems int64 `koanf:"buffer_items"`
}

// Load reads path and parses it by extension (.yaml, .yml, .json).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("conf: read %s: %w", path, err)
	}
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data, format)
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case YAML:
		parser = kyaml.Parser()
	case JSON:
		parser = kjson.Parser()
	default:
		return Config{}, fmt.Errorf("conf: unsupported format %q", format)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Config{}, fmt.Errorf("conf: parse: %w", err)
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("conf: unmarshal: %w", err)
	}
	return cfg, nil
}

// Options converts the file form into failcache.Options, building the
// selected codec and fallback engine.
func (c Config) Options() (failcache.Options, error) {
	opts := failcache.Options{
		Addr:               c.Addr,
		Username:           c.Username,
		Password:           c.Password,
		DB:                 c.DB,
		URL:                c.URL,
		OpTimeout:          c.OpTimeout,
		MaxRetries:         c.MaxRetries,
		RetryBaseDelay:     c.RetryBaseDelay,
		RetryMaxDelay:      c.RetryMaxDelay,
		MaxFallbackEntries: c.MaxFallbackEntries,
		SweepInterval:      c.SweepInterval,
		DefaultTTL:         c.DefaultTTL,
		DomainTTLs:         c.Domains,
		MirrorWrites:       c.MirrorWrites,
	}

	switch strings.ToLower(c.Codec) {
	case "", "json":
		opts.Codec = codec.JSON{}
	case "msgpack":
		opts.Codec = codec.Msgpack{}
	case "cbor":
		cc, err := codec.NewCBOR(false)
		if err != nil {
			return failcache.Options{}, err
		}
		opts.Codec = cc
	case "bytes":
		opts.Codec = codec.Bytes{}
	default:
		return failcache.Options{}, fmt.Errorf("conf: unknown codec %q", c.Codec)
	}

	store, err := c.Fallback.store()
	if err != nil {
		return failcache.Options{}, err
	}
	opts.Fallback = store
	return opts, nil
}

func (f FallbackConfig) store() (fb.Store, error) {
	switch strings.ToLower(f.Engine) {
	case "", "map":
		return nil, nil // facade builds its default MapStore
	case "gocache":
		return fb.NewGoCache(), nil
	case "bigcache":
		return fb.NewBigCache(fb.BigCacheConfig{LifeWindow: f.LifeWindow})
	case "ristretto":
		return fb.NewRistretto(fb.RistrettoConfig{
			NumCounters: f.NumCounters,
			MaxCost:     f.MaxCost,
			BufferItems: f.BufferItems,
		})
	default:
		return nil, fmt.Errorf("conf: unknown fallback engine %q", f.Engine)
	}
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("conf: cannot detect format of %s", path)
	}
}
