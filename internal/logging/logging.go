// Package logging builds the structured logger used by the CLI and the
// conversion pipeline.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level      string
	Format     string // "json" or "console"
	OutputPath string // a file path, "stderr" or "stdout"
	Verbose    bool
	Fields     map[string]string
}

// New creates a logger writing to the configured output. The log directory is
// created when missing.
func New(config Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Sampling = nil
	zapConfig.EncoderConfig.TimeKey = "time"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zap.ParseAtomicLevel(config.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if config.Verbose {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapConfig.Level = level

	if config.Format == "console" {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		zapConfig.Encoding = "json"
	}

	if config.OutputPath != "" {
		switch config.OutputPath {
		case "stderr", "stdout":
		default:
			if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		zapConfig.OutputPaths = []string{config.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	fields := make([]zap.Field, 0, len(config.Fields))
	for k, v := range config.Fields {
		fields = append(fields, zap.String(k, v))
	}
	return logger.With(fields...), nil
}

// NewDefault returns a console logger on stderr. It never fails.
func NewDefault(verbose bool) *zap.Logger {
	logger, err := New(Config{Level: "info", Format: "console", OutputPath: "stderr", Verbose: verbose})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// ForFile returns a child logger carrying the fields that identify a file
// in the batch.
func ForFile(logger *zap.Logger, path, partner string) *zap.Logger {
	return logger.With(
		zap.String("file", filepath.Base(path)),
		zap.String("partner", partner),
	)
}
