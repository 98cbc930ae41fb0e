package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/lattice-bot/internal/config"
)

// FileName is the log file written under .lattice/logs.
const FileName = "latticebot.log"

// Options control logger construction.
type Options struct {
	// Level is one of debug, info, warn or error.
	Level string
	// Dir receives FileName when non-empty.
	Dir string
	// Console receives human-readable output. Nil disables it.
	Console io.Writer
}

// FromConfig derives logger options from the project configuration.
func FromConfig(cfg *config.Config) Options {
	opts := Options{Level: cfg.Project.Logging.Level, Console: os.Stderr}
	if cfg.Project.Logging.File {
		opts.Dir = cfg.LogsDir()
	}
	return opts
}

// New builds a zap logger that tees console output and a JSON log file so
// users can inspect startup failures after the process exits. The returned
// close func syncs the logger and releases the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	var (
		cores []zapcore.Core
		file  *os.File
	)
	if opts.Console != nil {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(zapcore.AddSync(opts.Console)),
			level,
		))
	}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
		path := filepath.Join(opts.Dir, FileName)
		file, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open log file: %w", err)
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(file),
			level,
		))
	}
	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closeFn := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}
