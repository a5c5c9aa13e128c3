package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Encoding 日志输出格式
type Encoding string

const (
	ConsoleEncoding Encoding = "console" // 带方括号的人类可读格式
	JSONEncoding    Encoding = "json"
)

// ZapLogger 基于zap的日志实现。
// 通过 With 派生的子日志与父日志共享级别。
type ZapLogger struct {
	l  *zap.Logger
	al *zap.AtomicLevel
}

var _ Logger = (*ZapLogger)(nil)

// New 创建控制台格式的日志，out 为 nil 时写到 stderr
func New(out io.Writer, level Level, opts ...Option) *ZapLogger {
	return NewWithEncoding(out, level, ConsoleEncoding, opts...)
}

// NewWithEncoding 按指定格式创建日志，未知格式按 console 处理
func NewWithEncoding(out io.Writer, level Level, enc Encoding, opts ...Option) *ZapLogger {
	if out == nil {
		out = os.Stderr
	}

	al := zap.NewAtomicLevelAt(toZapLevel(level))
	core := zapcore.NewCore(newEncoder(enc), zapcore.AddSync(out), al)
	return &ZapLogger{l: zap.New(core, opts...), al: &al}
}

// NewNop 不输出任何内容的日志
func NewNop() *ZapLogger {
	return &ZapLogger{l: zap.NewNop()}
}

func newEncoder(enc Encoding) zapcore.Encoder {
	if enc == JSONEncoding {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(consoleEncoderConfig())
}

// consoleEncoderConfig 形如 [2006-01-02 15:04:05]  [INFO]  [pkg/file.go:12]  msg  {fields}
func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller_line",
		FunctionKey:   zapcore.OmitKey,
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(bracket(level.CapitalString()))
		},
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(bracket(t.Format(timeLayout)))
		},
		EncodeCaller: func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(bracket(caller.TrimmedPath()))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
}

const timeLayout = "2006-01-02 15:04:05"

func bracket(s string) string {
	return "[" + s + "]"
}

// toZapLevel 映射到 zap 级别，跳过 DPanic
func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) SetLevel(level Level) {
	if l.al != nil {
		l.al.SetLevel(toZapLevel(level))
	}
}

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{l: l.l.With(fields...), al: l.al}
}

func (l *ZapLogger) Sync() error {
	return l.l.Sync()
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *ZapLogger) Panic(msg string, fields ...Field) { l.l.Panic(msg, fields...) }
func (l *ZapLogger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

// enabled 级别未启用时 *f 方法跳过格式化
func (l *ZapLogger) enabled(level zapcore.Level) bool {
	return l.l.Core().Enabled(level)
}

func (l *ZapLogger) Debugf(format string, v ...interface{}) {
	if l.enabled(zapcore.DebugLevel) {
		l.l.Debug(fmt.Sprintf(format, v...))
	}
}

func (l *ZapLogger) Infof(format string, v ...interface{}) {
	if l.enabled(zapcore.InfoLevel) {
		l.l.Info(fmt.Sprintf(format, v...))
	}
}

func (l *ZapLogger) Warnf(format string, v ...interface{}) {
	if l.enabled(zapcore.WarnLevel) {
		l.l.Warn(fmt.Sprintf(format, v...))
	}
}

func (l *ZapLogger) Errorf(format string, v ...interface{}) {
	if l.enabled(zapcore.ErrorLevel) {
		l.l.Error(fmt.Sprintf(format, v...))
	}
}

// Panicf 和 Fatalf 无论级别都会终止，始终格式化
func (l *ZapLogger) Panicf(format string, v ...interface{}) { l.l.Panic(fmt.Sprintf(format, v...)) }
func (l *ZapLogger) Fatalf(format string, v ...interface{}) { l.l.Fatal(fmt.Sprintf(format, v...)) }
