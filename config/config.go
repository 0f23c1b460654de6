// Package config loads rosrpc settings from a TOML file.
//
//	[log]
//	level = "info"
//	encoding = "json"
//
//	[codec]
//	type = "binary"
//	exact = true
//
//	[registry]
//	backend = "etcd"
//	endpoints = ["127.0.0.1:2379"]
//	prefix = "/rosrpc"
//	request_timeout = "2s"
//	roots = ["./share"]
//
//	[server]
//	timeout = "5s"
//	rate = 200.0
//	burst = 50
//
// Keys left out of the file keep the values from Default.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	BackendMemory = "memory"
	BackendEtcd   = "etcd"

	CodecBinary = "binary"
	CodecJSON   = "json"
)

type Config struct {
	Log      Log
	Codec    Codec
	Registry Registry
	Server   Server
}

type Log struct {
	Level       string
	Encoding    string
	Development bool
}

type Codec struct {
	Type  string
	Exact bool
}

type Registry struct {
	Backend        string
	Endpoints      []string
	Prefix         string
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	Roots          []string
}

// Server holds the settings of the in-process service dispatcher. A zero
// Timeout or Rate disables the corresponding middleware.
type Server struct {
	Timeout time.Duration
	Rate    float64
	Burst   int
}

func Default() Config {
	return Config{
		Log: Log{Level: "info", Encoding: "json"},
		Codec: Codec{
			Type: CodecBinary,
		},
		Registry: Registry{
			Backend:        BackendMemory,
			Endpoints:      []string{"127.0.0.1:2379"},
			Prefix:         "/rosrpc",
			DialTimeout:    5 * time.Second,
			RequestTimeout: 2 * time.Second,
		},
	}
}

type fileConfig struct {
	Log struct {
		Level       string `toml:"level"`
		Encoding    string `toml:"encoding"`
		Development bool   `toml:"development"`
	} `toml:"log"`
	Codec struct {
		Type  string `toml:"type"`
		Exact bool   `toml:"exact"`
	} `toml:"codec"`
	Registry struct {
		Backend        string   `toml:"backend"`
		Endpoints      []string `toml:"endpoints"`
		Prefix         string   `toml:"prefix"`
		DialTimeout    string   `toml:"dial_timeout"`
		RequestTimeout string   `toml:"request_timeout"`
		Roots          []string `toml:"roots"`
	} `toml:"registry"`
	Server struct {
		Timeout string  `toml:"timeout"`
		Rate    float64 `toml:"rate"`
		Burst   int     `toml:"burst"`
	} `toml:"server"`
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %s", path, undecoded[0])
	}
	return fromFile(raw, meta)
}

// Parse is Load for an in-memory document.
func Parse(doc string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("parse config: unknown key %s", undecoded[0])
	}
	return fromFile(raw, meta)
}

func fromFile(raw fileConfig, meta toml.MetaData) (Config, error) {
	cfg := Default()

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "encoding") {
		cfg.Log.Encoding = strings.TrimSpace(raw.Log.Encoding)
	}
	if meta.IsDefined("log", "development") {
		cfg.Log.Development = raw.Log.Development
	}

	if meta.IsDefined("codec", "type") {
		cfg.Codec.Type = strings.ToLower(strings.TrimSpace(raw.Codec.Type))
	}
	if meta.IsDefined("codec", "exact") {
		cfg.Codec.Exact = raw.Codec.Exact
	}

	if meta.IsDefined("registry", "backend") {
		cfg.Registry.Backend = strings.ToLower(strings.TrimSpace(raw.Registry.Backend))
	}
	if meta.IsDefined("registry", "endpoints") {
		cfg.Registry.Endpoints = normalizeList(raw.Registry.Endpoints)
	}
	if meta.IsDefined("registry", "prefix") {
		cfg.Registry.Prefix = strings.TrimRight(strings.TrimSpace(raw.Registry.Prefix), "/")
	}
	if meta.IsDefined("registry", "roots") {
		cfg.Registry.Roots = normalizeList(raw.Registry.Roots)
	}
	var err error
	if meta.IsDefined("registry", "dial_timeout") {
		if cfg.Registry.DialTimeout, err = parseDuration("registry.dial_timeout", raw.Registry.DialTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("registry", "request_timeout") {
		if cfg.Registry.RequestTimeout, err = parseDuration("registry.request_timeout", raw.Registry.RequestTimeout); err != nil {
			return Config{}, err
		}
	}

	if meta.IsDefined("server", "timeout") {
		if cfg.Server.Timeout, err = parseDuration("server.timeout", raw.Server.Timeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("server", "rate") {
		cfg.Server.Rate = raw.Server.Rate
	}
	if meta.IsDefined("server", "burst") {
		cfg.Server.Burst = raw.Server.Burst
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.encoding %q must be json or console", c.Log.Encoding)
	}
	switch c.Codec.Type {
	case CodecBinary, CodecJSON:
	default:
		return fmt.Errorf("config: codec.type %q must be %s or %s", c.Codec.Type, CodecBinary, CodecJSON)
	}
	switch c.Registry.Backend {
	case BackendMemory:
	case BackendEtcd:
		if len(c.Registry.Endpoints) == 0 {
			return fmt.Errorf("config: registry.endpoints required for the etcd backend")
		}
		if c.Registry.Prefix == "" {
			return fmt.Errorf("config: registry.prefix required for the etcd backend")
		}
	default:
		return fmt.Errorf("config: registry.backend %q must be %s or %s", c.Registry.Backend, BackendMemory, BackendEtcd)
	}
	if c.Registry.RequestTimeout <= 0 {
		return fmt.Errorf("config: registry.request_timeout must be positive")
	}
	if c.Server.Timeout < 0 || c.Server.Rate < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("config: server limits must not be negative")
	}
	if c.Server.Rate > 0 && c.Server.Burst == 0 {
		return fmt.Errorf("config: server.burst required when server.rate is set")
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
