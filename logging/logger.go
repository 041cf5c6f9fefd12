// Package logging 提供统一的日志接口抽象
package logging

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Level 日志级别
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Logger 日志接口
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// WithFields 添加字段，返回新的Logger
	WithFields(fields ...Field) Logger
}

// Field 日志字段
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field           { return Field{Key: key, Value: value} }
func Int(key string, value int) Field          { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field      { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field        { return Field{Key: key, Value: value} }
func Any(key string, value any) Field          { return Field{Key: key, Value: value} }
func Strings(key string, value []string) Field { return Field{Key: key, Value: value} }
func Error(err error) Field                    { return Field{Key: "error", Value: err} }

// Duration 以 time.Duration 作为字段值
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// StdLogger 标准库log实现，低于 minLevel 的日志被丢弃
type StdLogger struct {
	prefix   string
	minLevel Level
	fields   []Field
}

// NewStdLogger 创建标准库Logger（默认 Info 级别）
func NewStdLogger(prefix string) *StdLogger {
	return &StdLogger{prefix: prefix, minLevel: InfoLevel, fields: make([]Field, 0)}
}

// WithLevel 返回指定最低级别的副本
func (l *StdLogger) WithLevel(level Level) *StdLogger {
	return &StdLogger{prefix: l.prefix, minLevel: level, fields: l.fields}
}

func (l *StdLogger) output(level Level, msg string, fields []Field) {
	if level < l.minLevel {
		return
	}
	var sb strings.Builder
	sb.WriteString("[" + level.String() + "] ")
	if l.prefix != "" {
		sb.WriteString(l.prefix + " ")
	}
	sb.WriteString(msg)
	for _, f := range append(append([]Field(nil), l.fields...), fields...) {
		sb.WriteString(" " + f.Key + "=" + formatValue(f.Value))
	}
	log.Println(sb.String())
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprint(val)
	}
}

func (l *StdLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.output(DebugLevel, msg, fields)
}

func (l *StdLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.output(InfoLevel, msg, fields)
}

func (l *StdLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.output(WarnLevel, msg, fields)
}

func (l *StdLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.output(ErrorLevel, msg, fields)
}

func (l *StdLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &StdLogger{prefix: l.prefix, minLevel: l.minLevel, fields: merged}
}

// NoopLogger 空日志实现（用于测试）
type NoopLogger struct{}

func NewNoopLogger() *NoopLogger { return &NoopLogger{} }

func (l *NoopLogger) Debug(ctx context.Context, msg string, fields ...Field) {}
func (l *NoopLogger) Info(ctx context.Context, msg string, fields ...Field)  {}
func (l *NoopLogger) Warn(ctx context.Context, msg string, fields ...Field)  {}
func (l *NoopLogger) Error(ctx context.Context, msg string, fields ...Field) {}
func (l *NoopLogger) WithFields(fields ...Field) Logger                      { return l }

// Entry 记录型日志的一条记录
type Entry struct {
	Level   Level
	Message string
	Fields  []Field
}

// Field 按 key 查找字段值
func (e Entry) Field(key string) (any, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value, true
		}
	}
	return nil, false
}

// MemoryLogger 将日志保存在内存中，便于测试断言。
// WithFields 派生的 Logger 共享同一份记录。
type MemoryLogger struct {
	sink   *memorySink
	fields []Field
}

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{sink: &memorySink{}}
}

func (l *MemoryLogger) record(level Level, msg string, fields []Field) {
	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)
	l.sink.mu.Lock()
	l.sink.entries = append(l.sink.entries, Entry{Level: level, Message: msg, Fields: all})
	l.sink.mu.Unlock()
}

func (l *MemoryLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.record(DebugLevel, msg, fields)
}

func (l *MemoryLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.record(InfoLevel, msg, fields)
}

func (l *MemoryLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.record(WarnLevel, msg, fields)
}

func (l *MemoryLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.record(ErrorLevel, msg, fields)
}

func (l *MemoryLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &MemoryLogger{sink: l.sink, fields: merged}
}

// Entries 返回记录副本
func (l *MemoryLogger) Entries() []Entry {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return append([]Entry(nil), l.sink.entries...)
}

// EntriesAt 返回指定级别的记录
func (l *MemoryLogger) EntriesAt(level Level) []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewStdLogger("")
)

// SetLogger 设置全局Logger
func SetLogger(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetLogger 获取全局Logger
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// ComponentLogger 返回带 component 字段的全局Logger
func ComponentLogger(component string) Logger {
	return GetLogger().WithFields(String("component", component))
}
