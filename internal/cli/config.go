package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/archivis/archivis/pkg/cache"
	"github.com/archivis/archivis/pkg/invariance"
	"github.com/archivis/archivis/pkg/pipeline"
	"github.com/archivis/archivis/pkg/render"
	"github.com/archivis/archivis/pkg/store"
)

// Config is the archivis configuration, loaded from a TOML file.
// Every field has a working default so a missing file is not an error.
type Config struct {
	// Renderer selects the SVG renderer: "layout" or "graphviz".
	Renderer string `toml:"renderer"`
	// Policy selects invariance handling: "log-and-continue" or "fail-closed".
	Policy string `toml:"policy"`

	Store StoreConfig `toml:"store"`
	Cache CacheConfig `toml:"cache"`
}

// StoreConfig selects and configures the version store backend.
type StoreConfig struct {
	// Backend is one of "memory", "file", "redis", or "mongo".
	Backend string `toml:"backend"`
	// Dir is the file backend's root directory. Empty means the XDG data dir.
	Dir string `toml:"dir"`

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// RedisConfig configures the redis store backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig configures the mongo store backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// CacheConfig configures the derived-artifact cache.
type CacheConfig struct {
	// Disabled turns caching off entirely.
	Disabled bool `toml:"disabled"`
	// Dir overrides the XDG cache directory.
	Dir string `toml:"dir"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Renderer: "layout",
		Policy:   string(invariance.PolicyLogAndContinue),
		Store: StoreConfig{
			Backend: "file",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: appName,
			},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   appName,
				Collection: "versions",
			},
		},
	}
}

// LoadConfig reads the config file at path, or the default XDG location when
// path is empty. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// newStore opens the configured store backend.
func newStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "file":
		dir := cfg.Store.Dir
		if dir == "" {
			d, err := dataDir()
			if err != nil {
				return nil, fmt.Errorf("resolve store dir: %w", err)
			}
			dir = d
		}
		return store.NewFile(dir)
	case "memory":
		return store.NewMemory(), nil
	case "redis":
		r := cfg.Store.Redis
		return store.NewRedis(r.Addr, r.Password, r.DB, r.Prefix)
	case "mongo":
		m := cfg.Store.Mongo
		return store.NewMongo(ctx, m.URI, m.Database, m.Collection)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newCache opens the artifact cache, or a null cache when disabled.
func newCache(cfg Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// newRenderer builds the configured renderer.
func newRenderer(cfg Config) (render.Renderer, error) {
	switch cfg.Renderer {
	case "", "layout":
		return render.NewLayout(), nil
	case "graphviz":
		return render.NewGraphviz(), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", cfg.Renderer)
	}
}

// newRunner assembles a pipeline runner from the configuration. The caller
// must invoke the returned cleanup once done.
func newRunner(ctx context.Context, cfg Config, logger *log.Logger, noCache bool) (*pipeline.Runner, func(), error) {
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := newCache(cfg, noCache)
	if err != nil {
		st.Close(ctx)
		return nil, nil, err
	}
	r, err := newRenderer(cfg)
	if err != nil {
		st.Close(ctx)
		c.Close()
		return nil, nil, err
	}

	runner := pipeline.NewRunner(st, c, nil, r, logger)
	if cfg.Policy == string(invariance.PolicyFailClosed) {
		runner.Policy = invariance.PolicyFailClosed
	}
	cleanup := func() {
		c.Close()
		st.Close(ctx)
	}
	return runner, cleanup, nil
}
