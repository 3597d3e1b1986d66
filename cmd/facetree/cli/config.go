package cli

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/hupe1980/facetree"
	"github.com/hupe1980/facetree/codec"
)

// Config is the TOML configuration of the command line tool.
//
//	[log]
//	level = "debug"
//	format = "json"
//
//	[cache]
//	size = 67108864
//	codec = "msgpack"
//
//	[blob]
//	backend = "local"
//	path = "./facet-cache"
//	compression = "zstd"
type Config struct {
	Log         LogConfig        `toml:"log"`
	Cache       CacheConfig      `toml:"cache"`
	Engine      EngineConfig     `toml:"engine"`
	Blob        BlobConfig       `toml:"blob"`
	Permissions PermissionConfig `toml:"permissions"`
	Metrics     MetricsConfig    `toml:"metrics"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// CacheConfig sizes the in-memory term result cache.
type CacheConfig struct {
	Size  int64  `toml:"size"`
	Codec string `toml:"codec"`
}

// EngineConfig bounds term execution.
type EngineConfig struct {
	Concurrency int64   `toml:"concurrency"`
	RateLimit   float64 `toml:"rate_limit"`
}

// BlobConfig selects the persistent cache tier.
type BlobConfig struct {
	Backend     string `toml:"backend"` // none, memory, local, s3 or minio
	Compression string `toml:"compression"`

	// Path is the root directory of the local backend.
	Path string `toml:"path"`

	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`

	// AccessKey and SecretKey authenticate against MinIO. They fall back to
	// MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// PermissionConfig selects where non-public record ids come from.
type PermissionConfig struct {
	Backend string `toml:"backend"` // dataset or dynamodb
	Table   string `toml:"table"`
	Region  string `toml:"region"`
}

// MetricsConfig exposes Prometheus metrics while watching.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		Log:         LogConfig{Level: "info", Format: "text"},
		Cache:       CacheConfig{Size: facetree.DefaultCacheSize, Codec: codec.Default.Name()},
		Engine:      EngineConfig{Concurrency: 4},
		Blob:        BlobConfig{Backend: "none", Compression: "zstd"},
		Permissions: PermissionConfig{Backend: "dataset"},
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := ParseConfig(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML into cfg and validates the result. Keys not
// present keep their current value.
func ParseConfig(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return fmt.Errorf("unknown config keys:\n%s", sme.String())
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks enumerated values and required settings.
func (c Config) Validate() error {
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if _, ok := codec.ByName(c.Cache.Codec); !ok && c.Cache.Codec != "" {
		return fmt.Errorf("unknown cache codec %q, want one of %s", c.Cache.Codec, strings.Join(codec.Names(), ", "))
	}
	if c.Engine.Concurrency < 0 || c.Engine.RateLimit < 0 {
		return errors.New("engine limits must not be negative")
	}
	if _, err := codec.ParseCompression(c.Blob.Compression); err != nil {
		return err
	}
	switch c.Blob.Backend {
	case "", "none", "memory":
	case "local":
		if c.Blob.Path == "" {
			return errors.New("blob backend local needs a path")
		}
	case "s3", "minio":
		if c.Blob.Bucket == "" {
			return fmt.Errorf("blob backend %s needs a bucket", c.Blob.Backend)
		}
		if c.Blob.Backend == "minio" && c.Blob.Endpoint == "" {
			return errors.New("blob backend minio needs an endpoint")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.Blob.Backend)
	}
	switch c.Permissions.Backend {
	case "", "dataset":
	case "dynamodb":
		if c.Permissions.Table == "" {
			return errors.New("permission backend dynamodb needs a table")
		}
	default:
		return fmt.Errorf("unknown permission backend %q", c.Permissions.Backend)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return lvl, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// Logger builds the engine logger.
func (l LogConfig) Logger() *facetree.Logger {
	lvl, _ := l.level()
	if l.Format == "json" {
		return facetree.NewJSONLogger(lvl)
	}
	return facetree.NewTextLogger(lvl)
}
