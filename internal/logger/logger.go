package logger

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	ztsLogger atomic.Pointer[ZTSLogger]
	level     = new(slog.LevelVar)
)

func init() {
	ztsLogger.Store(NewZTSLogger())
}

type ZTSLogger struct {
	slogger *slog.Logger
}

func NewZTSLogger() *ZTSLogger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &ZTSLogger{
		slogger: slog.New(h),
	}
}

func Default() *ZTSLogger {
	return ztsLogger.Load()
}

// SetDefault replaces the process wide logger, mostly useful in tests.
func SetDefault(l *slog.Logger) {
	ztsLogger.Store(&ZTSLogger{slogger: l})
}

func SetLogLevel(l slog.Level) {
	level.Set(l)
}

func GetLogLevel() slog.Level {
	return level.Level()
}

// With returns a logger that adds args to every record.
func (l *ZTSLogger) With(args ...any) *ZTSLogger {
	return &ZTSLogger{slogger: l.slogger.With(args...)}
}

// slog wrapper

func Debug(msg string, args ...any) {
	ztsLogger.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	ztsLogger.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	ztsLogger.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	ztsLogger.Load().Error(msg, args...)
}

func (l *ZTSLogger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

func (l *ZTSLogger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

func (l *ZTSLogger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

func (l *ZTSLogger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// badger.Logger

func (l *ZTSLogger) Errorf(format string, args ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, args...))
}

func (l *ZTSLogger) Warningf(format string, args ...interface{}) {
	l.slogger.Warn(fmt.Sprintf(format, args...))
}

func (l *ZTSLogger) Infof(format string, args ...interface{}) {
	l.slogger.Info(fmt.Sprintf(format, args...))
}

func (l *ZTSLogger) Debugf(format string, args ...interface{}) {
	l.slogger.Debug(fmt.Sprintf(format, args...))
}

// tail logger. Nothing here exits or panics, the tailer is not allowed to
// take the daemon down.

func (l *ZTSLogger) Fatal(v ...interface{}) {
	l.slogger.Error("tail failure", genericPairs(v...)...)
}

func (l *ZTSLogger) Fatalf(format string, v ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, v...))
}

func (l *ZTSLogger) Fatalln(v ...interface{}) {
	l.slogger.Error(fmt.Sprint(v...))
}

func (l *ZTSLogger) Panic(v ...interface{}) {
	l.slogger.Error("tail failure", genericPairs(v...)...)
}

func (l *ZTSLogger) Panicf(format string, v ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, v...))
}

func (l *ZTSLogger) Panicln(v ...interface{}) {
	l.slogger.Error(fmt.Sprint(v...))
}

func (l *ZTSLogger) Print(v ...interface{}) {
	l.slogger.Info(fmt.Sprint(v...))
}

func (l *ZTSLogger) Printf(format string, v ...interface{}) {
	l.slogger.Info(fmt.Sprintf(format, v...))
}

func (l *ZTSLogger) Println(v ...interface{}) {
	l.slogger.Info(fmt.Sprint(v...))
}

func genericPairs(v ...interface{}) []any {
	pairs := make([]any, 0, len(v)/2)
	for i := 0; i < len(v)-1; i += 2 {
		key, ok := v[i].(string)
		if !ok {
			key = fmt.Sprintf("non_string_key_%d", i)
		}
		pairs = append(pairs, slog.Any(key, v[i+1]))
	}
	return pairs
}
