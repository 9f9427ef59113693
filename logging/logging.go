// Package logging builds the zap logger used across calibcheck.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects level, encoding and an optional rotated log file.
type Config struct {
	Level      string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Format     string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=json console"`
	File       string `yaml:"file" envconfig:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS" validate:"gte=0"`
}

// DefaultConfig logs JSON at info level to stderr only.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", MaxSizeMB: 10, MaxBackups: 3}
}

// New builds a logger writing to w (stderr when nil) and, if cfg.File is set, to a
// rotated file as well.
func New(cfg Config, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if cfg.Level == "" {
		level, err = zapcore.InfoLevel, nil
	}
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	case "", "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	sink := zapcore.AddSync(w)
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(rotated))
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), nil
}
