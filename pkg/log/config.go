// Package log builds the zap loggers used across the relay and keeps the
// process-wide logger that packages write to.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogMaxSize = 100 // MB

// FileLogConfig describes the optional rotating log file.
type FileLogConfig struct {
	// Filename is the log file path. Empty disables file logging.
	Filename   string
	MaxSize    int
	MaxDays    int
	MaxBackups int
}

// Config holds logger settings.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is json or console.
	Format        string
	Stdout        bool
	File          FileLogConfig
	Development   bool
	DisableCaller bool
}

// ZapProperties records the pieces a logger was built from so callers can
// flip the level at runtime.
type ZapProperties struct {
	Core   zapcore.Core
	Syncer zapcore.WriteSyncer
	Level  zap.AtomicLevel
}

func (cfg *Config) encoder() zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

func (cfg *Config) buildOptions(errSink zapcore.WriteSyncer) []zap.Option {
	opts := []zap.Option{zap.ErrorOutput(errSink)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	if !cfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	opts = append(opts, zap.AddStacktrace(zap.ErrorLevel))
	return opts
}
