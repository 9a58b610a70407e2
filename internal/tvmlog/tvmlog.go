// Package tvmlog provides the structured logging used across the
// decoder and playback packages: a console sink plus an optional
// rotating file sink, both backed by zap.
package tvmlog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var current = zap.NewNop()

// Init builds the process logger from a level name ("debug", "info",
// "warn", "error"; anything else defaults to info) and, when
// enableFile is true, tees output to a lumberjack-rotated file at
// filePath in addition to stdout. Calling Init again replaces the
// logger returned by L.
func Init(level string, enableFile bool, filePath string) error {
	if enableFile && filePath == "" {
		return fmt.Errorf("tvmlog: enableFile is true but filePath is empty")
	}

	lvl := parseLevel(level)
	consoleEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:      "time",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel:  zapcore.CapitalColorLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	})
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), lvl),
	}

	if enableFile {
		fileWriter := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
			LocalTime:  true,
		}
		fileEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:      "time",
			LevelKey:     "level",
			MessageKey:   "msg",
			CallerKey:    "caller",
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeLevel:  zapcore.CapitalLevelEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		})
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), lvl))
	}

	current = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}

// L returns the process logger. Before Init has run it is a no-op
// logger, so calling code never needs a nil check.
func L() *zap.Logger { return current }

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
