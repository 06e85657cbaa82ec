// Package logging builds the zap logger shared by every component.
package logging

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/use-agent/scrapeview/config"
)

// Rotation limits for file output.
const (
	maxSizeMB  = 20
	maxBackups = 5
	maxAgeDays = 28
)

// New builds a logger from cfg. JSON output uses the production encoder;
// console output the development one. With cfg.File set, output goes to a
// rotating file instead of stderr.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", cfg.Level)
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" || cfg.Format == "" {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		if cfg.File == "" {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(ec)
	}

	core := zapcore.NewCore(encoder, writeSyncer(cfg.File), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// writeSyncer returns stderr, or a lumberjack file when name is set.
func writeSyncer(name string) zapcore.WriteSyncer {
	if name == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   name,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		LocalTime:  true,
	})
}
