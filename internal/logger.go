package internal

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the console logger used by the cache binaries. An empty
// path logs to stderr. The returned func flushes the logger and closes its
// sink.
func NewLogger(path string, level zapcore.Level) (*zap.SugaredLogger, func(), error) {
	if path == "" {
		path = "stderr"
	}
	sink, closeSink, err := zap.Open(path)
	if err != nil {
		return nil, nil, err
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder, // 2025-04-12T18:30:00Z
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		sink,
		level,
	)
	logger := zap.New(core, zap.AddCaller()).Sugar()
	cleanup := func() {
		_ = logger.Sync() // flush logs
		closeSink()
	}
	return logger, cleanup, nil
}
