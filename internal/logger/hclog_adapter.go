package logger

import (
	"io"
	"log"
	"log/slog"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter adapts ZTSLogger to the hashicorp/go-hclog.Logger interface
// taken by the trapper client.
type HCLogAdapter struct {
	logger *ZTSLogger
	name   string
	args   []interface{}
}

// NewHCLogAdapter creates a new HCLog adapter wrapping the default ZTS logger.
func NewHCLogAdapter() hclog.Logger {
	return &HCLogAdapter{
		logger: Default(),
		name:   "zts",
	}
}

func (h *HCLogAdapter) withName(args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(h.args)+len(args)+2)
	out = append(out, "logger", h.name)
	out = append(out, h.args...)
	return append(out, args...)
}

func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.Debug(msg, args...)
	case hclog.Info, hclog.NoLevel:
		h.Info(msg, args...)
	case hclog.Warn:
		h.Warn(msg, args...)
	case hclog.Error:
		h.Error(msg, args...)
	}
}

// Trace is folded into debug, slog has no trace level
func (h *HCLogAdapter) Trace(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.withName(args)...)
}

func (h *HCLogAdapter) Debug(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.withName(args)...)
}

func (h *HCLogAdapter) Info(msg string, args ...interface{}) {
	h.logger.Info(msg, h.withName(args)...)
}

func (h *HCLogAdapter) Warn(msg string, args ...interface{}) {
	h.logger.Warn(msg, h.withName(args)...)
}

func (h *HCLogAdapter) Error(msg string, args ...interface{}) {
	h.logger.Error(msg, h.withName(args)...)
}

func (h *HCLogAdapter) IsTrace() bool {
	return GetLogLevel() <= slog.LevelDebug
}

func (h *HCLogAdapter) IsDebug() bool {
	return GetLogLevel() <= slog.LevelDebug
}

func (h *HCLogAdapter) IsInfo() bool {
	return GetLogLevel() <= slog.LevelInfo
}

func (h *HCLogAdapter) IsWarn() bool {
	return GetLogLevel() <= slog.LevelWarn
}

func (h *HCLogAdapter) IsError() bool {
	return GetLogLevel() <= slog.LevelError
}

func (h *HCLogAdapter) ImpliedArgs() []interface{} {
	return h.args
}

func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger,
		name:   h.name,
		args:   append(append([]interface{}{}, h.args...), args...),
	}
}

func (h *HCLogAdapter) Name() string {
	return h.name
}

func (h *HCLogAdapter) Named(name string) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger,
		name:   h.name + "." + name,
		args:   h.args,
	}
}

func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger,
		name:   name,
		args:   h.args,
	}
}

// SetLevel changes the level of the whole process.
func (h *HCLogAdapter) SetLevel(level hclog.Level) {
	switch level {
	case hclog.Trace, hclog.Debug:
		SetLogLevel(slog.LevelDebug)
	case hclog.Info:
		SetLogLevel(slog.LevelInfo)
	case hclog.Warn:
		SetLogLevel(slog.LevelWarn)
	case hclog.Error:
		SetLogLevel(slog.LevelError)
	}
}

func (h *HCLogAdapter) GetLevel() hclog.Level {
	switch l := GetLogLevel(); {
	case l <= slog.LevelDebug:
		return hclog.Debug
	case l <= slog.LevelInfo:
		return hclog.Info
	case l <= slog.LevelWarn:
		return hclog.Warn
	default:
		return hclog.Error
	}
}

func (h *HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.StandardWriter(opts), "", 0)
}

func (h *HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		h.Info(string(p))
		return len(p), nil
	})
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) {
	return f(p)
}
