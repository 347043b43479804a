// Package logging builds the process logger. The TUI owns the terminal, so
// logs go to a file unless none is configured.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level  string
	Format string
	File   string
}

// New returns the logger and a cleanup that syncs and closes the output.
func New(cfg Config) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	var sink zapcore.WriteSyncer
	closeSink := func() {}
	if cfg.File == "" {
		sink = zapcore.Lock(os.Stderr)
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = zapcore.Lock(f)
		closeSink = func() { _ = f.Close() }
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, level)
	logger := zap.New(core, zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		closeSink()
	}, nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
