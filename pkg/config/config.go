// Package config loads postkit settings from a TOML file and the
// environment.
//
// The default location follows the XDG convention:
// $XDG_CONFIG_HOME/postkit/config.toml, falling back to
// ~/.config/postkit/config.toml. A missing file is not an error; every
// setting has a default.
//
//	[post]
//	width = 360
//
//	[gesture]
//	node_throttle_ms = 30
//	snap_delay_ms = 200
//
//	[store]
//	backend = "sqlite"
//	sqlite_path = "/var/lib/postkit/drafts.db"
//	draft_ttl = "720h"
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/postkit/pkg/drafts"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/history"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/snap"
	"github.com/matzehuels/postkit/pkg/store"
)

// AppName names the config and cache directories.
const AppName = "postkit"

// Environment variables overriding the file.
const (
	EnvStoreBackend = "POSTKIT_STORE_BACKEND"
	EnvRedisAddr    = "POSTKIT_REDIS_ADDR"
	EnvMongoURI     = "POSTKIT_MONGO_URI"
	EnvServerAddr   = "POSTKIT_SERVER_ADDR"
)

// Config is the full set of settings.
type Config struct {
	Post    Post    `toml:"post"`
	History History `toml:"history"`
	Gesture Gesture `toml:"gesture"`
	Store   Store   `toml:"store"`
	Server  Server  `toml:"server"`
	Presets Presets `toml:"presets"`
}

type Post struct {
	Width float64 `toml:"width"`
}

type History struct {
	Cap int `toml:"cap"`
}

// Gesture tunes drag handling.
type Gesture struct {
	NodeThrottleMS    int     `toml:"node_throttle_ms"`
	MeasureDebounceMS int     `toml:"measure_debounce_ms"`
	SnapDelayMS       int     `toml:"snap_delay_ms"`
	SnapRadius        float64 `toml:"snap_radius"`
	IndicatorSize     float64 `toml:"indicator_size"`
}

// Store selects the draft backend.
type Store struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	SQLitePath    string   `toml:"sqlite_path"`
	RedisAddr     string   `toml:"redis_addr"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	DraftTTL      Duration `toml:"draft_ttl"`
}

// Server configures `postkit serve`.
type Server struct {
	Addr string `toml:"addr"`
	// PurgeSchedule is a cron spec for removing expired drafts and idle
	// sessions. Empty disables purging.
	PurgeSchedule string   `toml:"purge_schedule"`
	SessionIdle   Duration `toml:"session_idle"`
}

// Presets points at a template and border catalog.
type Presets struct {
	Path string `toml:"path"`
}

// Duration is a time.Duration read from a string such as "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Post:    Post{Width: post.DefaultWidth},
		History: History{Cap: history.DefaultCap},
		Gesture: Gesture{
			NodeThrottleMS:    int(editor.DefaultNodeThrottle / time.Millisecond),
			MeasureDebounceMS: int(editor.DefaultMeasureDebounce / time.Millisecond),
			SnapDelayMS:       int(snap.DefaultActivationDelay / time.Millisecond),
			SnapRadius:        snap.DefaultActivationRadius,
			IndicatorSize:     snap.DefaultIndicatorSize,
		},
		Store: Store{
			Backend:       store.BackendFile,
			Dir:           DataDir(),
			MongoDatabase: AppName,
			DraftTTL:      Duration{drafts.DefaultTTL},
		},
		Server: Server{
			Addr:          ":8080",
			PurgeSchedule: "@every 10m",
			SessionIdle:   Duration{2 * time.Hour},
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path uses DefaultPath; a missing default file is ignored, a missing
// explicit file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil || explicit {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvStoreBackend); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Store.RedisAddr = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Post.Width <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "post.width must be positive, got %v", c.Post.Width)
	}
	if c.History.Cap <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "history.cap must be positive, got %d", c.History.Cap)
	}
	g := c.Gesture
	if g.NodeThrottleMS < 0 || g.MeasureDebounceMS < 0 || g.SnapDelayMS < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "gesture timings must not be negative")
	}
	if g.SnapRadius <= 0 || g.IndicatorSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "gesture.snap_radius and gesture.indicator_size must be positive")
	}
	valid := false
	for _, b := range store.Backends {
		if c.Store.Backend == b {
			valid = true
		}
	}
	if !valid {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.DraftTTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "store.draft_ttl must not be negative")
	}
	return nil
}

// EditorOptions returns the editor settings.
func (c *Config) EditorOptions() editor.Options {
	return editor.Options{
		Width:         c.Post.Width,
		HistoryCap:    c.History.Cap,
		IndicatorSize: c.Gesture.IndicatorSize,
	}
}

// DragOptions returns the drag controller settings.
func (c *Config) DragOptions() []editor.DragOption {
	g := c.Gesture
	return []editor.DragOption{
		editor.WithThrottle(ms(g.NodeThrottleMS)),
		editor.WithMeasureDebounce(ms(g.MeasureDebounceMS)),
		editor.WithActivatorOptions(
			snap.WithDelay(ms(g.SnapDelayMS)),
			snap.WithRadius(g.SnapRadius),
		),
	}
}

// StoreConfig returns the store settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend:       c.Store.Backend,
		Dir:           c.Store.Dir,
		SQLitePath:    c.Store.SQLitePath,
		RedisAddr:     c.Store.RedisAddr,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// DefaultPath returns the XDG config file location.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", AppName+".toml")
	}
	return filepath.Join(home, ".config", AppName, "config.toml")
}

// DataDir returns the XDG data directory for drafts (~/.cache/postkit).
func DataDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".cache", AppName)
}
