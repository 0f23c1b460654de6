// Package logging holds the process-wide zap logger used by the registry,
// server, middleware and command line tools. The encode and decode paths do
// not log.
package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rosrpc/config"
)

const (
	EnvLogLevel       = "ROSRPC_LOG_LEVEL"
	EnvLogEncoding    = "ROSRPC_LOG_ENCODING"
	EnvLogDevelopment = "ROSRPC_LOG_DEVELOPMENT"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Logger returns the process logger. It is a no-op logger until SetLogger
// is called.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the process logger. A nil l restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// New builds a zap logger from cfg, with ROSRPC_LOG_* environment
// variables taking precedence.
func New(cfg config.Log) (*zap.Logger, error) {
	applyEnvOverrides(&cfg)

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	return zc.Build()
}

func applyEnvOverrides(cfg *config.Log) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogEncoding)); v != "" {
		cfg.Encoding = strings.ToLower(v)
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogDevelopment))); err == nil {
		cfg.Development = v
	}
}
