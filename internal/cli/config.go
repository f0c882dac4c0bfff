package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/pipeline"
)

// Cache backends accepted in [cache] backend.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Config mirrors config.toml. Every key is optional; command-line flags
// take precedence over configured values.
//
//	scale = [11.24, 11.24, 25.0]
//
//	[transform]
//	max_edge_length = 50.0
//	simplify_max_length = 200.0
//	simplify_max_angle = 0.1
//
//	[cache]
//	backend = "redis"
//	redis_addr = "redis://localhost:6379/0"
//	ttl = "12h"
//
//	[store]
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
type Config struct {
	Scale     []float64       `toml:"scale"`
	Transform TransformConfig `toml:"transform"`
	Cache     CacheConfig     `toml:"cache"`
	Store     StoreConfig     `toml:"store"`
	Server    ServerConfig    `toml:"server"`
}

// TransformConfig holds default transform parameters.
type TransformConfig struct {
	MaxEdgeLength     float64 `toml:"max_edge_length"`
	SimplifyMaxLength float64 `toml:"simplify_max_length"`
	SimplifyMaxAngle  float64 `toml:"simplify_max_angle"`
}

// CacheConfig selects and tunes the pipeline cache.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	TTL       string `toml:"ttl"`
}

// StoreConfig locates the MongoDB annotation archive.
type StoreConfig struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures wknml serve.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// loadConfig reads a config file. A missing file yields the zero Config
// unless the path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := c.scale(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", backendFile, backendRedis, backendNone:
	default:
		return fmt.Errorf("unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	_, err := c.Cache.ttl()
	return err
}

// scale returns the configured merge scale, or the zero vector when unset.
func (c Config) scale() (nml.Vec3, error) {
	switch len(c.Scale) {
	case 0:
		return nml.Vec3{}, nil
	case 3:
		return nml.Vec3{c.Scale[0], c.Scale[1], c.Scale[2]}, nil
	}
	return nml.Vec3{}, fmt.Errorf("scale needs 3 components, got %d", len(c.Scale))
}

func (c CacheConfig) ttl() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache ttl: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("cache ttl must not be negative, got %s", c.TTL)
	}
	return d, nil
}

// applyTransformDefaults fills transform options whose flag was not given
// on the command line.
func (c Config) applyTransformDefaults(opts *pipeline.Options, changed func(flag string) bool) {
	if !changed("max-edge-length") {
		opts.MaxEdgeLength = c.Transform.MaxEdgeLength
	}
	if !changed("simplify-length") {
		opts.SimplifyLength = c.Transform.SimplifyMaxLength
	}
	if !changed("simplify-angle") && opts.SimplifyLength > 0 {
		opts.SimplifyAngle = c.Transform.SimplifyMaxAngle
	}
	if !changed("scale") {
		opts.Scale, _ = c.scale()
	}
}
