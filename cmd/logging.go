// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logger is the process-wide logger, set up by initLogging before any
// command runs. Defaults to a no-op logger so helpers can log freely.
var logger = zap.NewNop()

// initLogging builds the logger from the --log-level and --log-file
// flags: human-readable console output on stderr, plus a rotated JSON
// file when --log-file is set.
func initLogging() error {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		),
	}

	if logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotated),
			level,
		))
	}

	logger = zap.New(zapcore.NewTee(cores...))
	return nil
}
