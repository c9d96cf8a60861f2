// Package logging builds the process logger: a colored console core, teed
// with an optional size-rotated JSON session log file.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/lumberjack.v3"
)

const (
	sessionLogMaxBytes   = 5 * 1024 * 1024
	sessionLogMaxBackups = 10
	sessionLogMaxDays    = 14
)

// New constructs the logger. When sessionLogPath is non-empty, a JSON core
// writing to a rotated file at that path is added. The returned close
// function flushes buffers and must be called on every exit path.
func New(sessionLogPath string) (*zap.Logger, func(), error) {
	level := zap.InfoLevel
	if levelEnv := os.Getenv("LOG_LEVEL"); levelEnv != "" {
		if parsed, err := zapcore.ParseLevel(levelEnv); err == nil {
			level = parsed
		}
	}
	logLevel := zap.NewAtomicLevelAt(level)

	developmentCfg := zap.NewDevelopmentEncoderConfig()
	developmentCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(developmentCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), logLevel),
	}

	if sessionLogPath != "" {
		fileHandler, err := lumberjack.New(
			lumberjack.WithFileName(sessionLogPath),
			lumberjack.WithMaxBytes(sessionLogMaxBytes),
			lumberjack.WithMaxBackups(sessionLogMaxBackups),
			lumberjack.WithMaxDays(sessionLogMaxDays),
			lumberjack.WithCompress(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create session log file: %w", err)
		}

		productionCfg := zap.NewProductionEncoderConfig()
		productionCfg.TimeKey = "timestamp"
		productionCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileEncoder := zapcore.NewJSONEncoder(productionCfg)

		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(fileHandler), logLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeFn := func() {
		_ = logger.Sync()
	}

	return logger, closeFn, nil
}
