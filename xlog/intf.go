package xlog

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xhome/lib/infra"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

func (lvl LogLevel) zapLevel() zapcore.Level {
	switch lvl {
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelDebug:
		fallthrough
	default:
	}
	return zapcore.DebugLevel
}

func (lvl LogLevel) String() string {
	return string(lvl)
}

// IsValid reports whether lvl is one of the known level names.
func (lvl LogLevel) IsValid() bool {
	switch LogLevel(strings.ToUpper(string(lvl))) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
	}
	return false
}

type LogEncoderType uint8

const (
	JSON LogEncoderType = iota
	PlainText
	_encMax
)

// EncoderOf parses "json" or "plaintext" (case-insensitive).
func EncoderOf(name string) (LogEncoderType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "plaintext", "text", "console":
		return PlainText, nil
	default:
	}
	return _encMax, infra.NewErrorStack("[XLogger] unknown encoder " + name)
}

type LogOutWriterType uint8

const (
	StdOut LogOutWriterType = iota
	BufferedStdOut
	testMemAsOut
	_writerMax
)

// WriterOf parses "stdout" or "buffered_stdout" (case-insensitive).
func WriterOf(name string) (LogOutWriterType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "stdout":
		return StdOut, nil
	case "buffered_stdout", "buffered":
		return BufferedStdOut, nil
	default:
	}
	return _writerMax, infra.NewErrorStack("[XLogger] unknown writer " + name)
}

const (
	ContextKeyMapToOmitempty = "_"
	ContextKeyMapToItself    = ""
	coreKeyIgnored           = ""
)

var (
	writersLock = sync.RWMutex{}
	writers     = map[LogOutWriterType]zapcore.WriteSyncer{
		StdOut:         zapcore.Lock(os.Stdout),
		BufferedStdOut: &zapcore.BufferedWriteSyncer{WS: os.Stdout, Size: 512 * 1024, FlushInterval: 30 * time.Second},
	}
	encoders = map[LogEncoderType]func(cfg zapcore.EncoderConfig) zapcore.Encoder{
		JSON:      zapcore.NewJSONEncoder,
		PlainText: zapcore.NewConsoleEncoder,
	}
)

func getEncoderByType(typ LogEncoderType) func(cfg zapcore.EncoderConfig) zapcore.Encoder {
	enc, ok := encoders[typ]
	if !ok {
		return zapcore.NewJSONEncoder
	}
	return enc
}

func getOutWriterByType(typ LogOutWriterType) (zapcore.WriteSyncer, bool) {
	writersLock.RLock()
	defer writersLock.RUnlock()
	out, ok := writers[typ]
	return out, ok
}

func setOutWriter(typ LogOutWriterType, ws zapcore.WriteSyncer) {
	writersLock.Lock()
	defer writersLock.Unlock()
	writers[typ] = ws
}

type Banner interface {
	JSON() string
	PlainText() string
}

type xLogCore interface {
	timeEncoder() zapcore.TimeEncoder
	levelEncoder() zapcore.LevelEncoder
	writeSyncer() zapcore.WriteSyncer
	outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder
	levelEnabler() zapcore.LevelEnabler

	zapcore.Core
}

type xLogCoreConstructor func(
	zapcore.LevelEnabler,
	LogEncoderType,
	LogOutWriterType,
	zapcore.LevelEncoder,
	zapcore.TimeEncoder,
) xLogCore

// XLogger mainly implemented by Uber zap logger.
//
// ErrorStack is used to print all errors throws stacks.
// Instead of using zap default error stack, it prints
// the infra.ErrorStack frames in JSON format, so that
// a log aggregator can parse them.
//
// The interface methods with context are used to add
// additional fields to the log, like trace ID or house name.
//
// Log format is not recommended, because it is low performance.
type XLogger interface {
	zap() *zap.Logger

	IncreaseLogLevel(level zapcore.Level)
	Level() string
	Sync() error
	Banner(banner Banner)

	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(err error, msg string, fields ...zap.Field)
	ErrorStack(err error, msg string, fields ...zap.Field)

	DebugContext(ctx context.Context, msg string, fields ...zap.Field)
	InfoContext(ctx context.Context, msg string, fields ...zap.Field)
	WarnContext(ctx context.Context, msg string, fields ...zap.Field)
	ErrorContext(ctx context.Context, err error, msg string, fields ...zap.Field)
	ErrorStackContext(ctx context.Context, err error, msg string, fields ...zap.Field)

	Logf(lvl zapcore.Level, format string, args ...any)
	ErrorStackf(err error, format string, args ...any)
}
