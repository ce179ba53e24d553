package main

import (
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger returns a console logger writing to w. Info by default, Debug
// with verbose, Error with quiet. Every entry carries the run ID.
func newLogger(w io.Writer, verbose, quiet bool, runID string) *zap.Logger {
	level := zapcore.InfoLevel
	switch {
	case quiet:
		level = zapcore.ErrorLevel
	case verbose:
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	if !verbose {
		encCfg.StacktraceKey = ""
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core).With(zap.String("run", runID))
}

// newRunID returns a short identifier for log correlation.
func newRunID() string {
	return uuid.NewString()[:8]
}
