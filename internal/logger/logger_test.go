package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Default()
	SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { ztsLogger.Store(prev) })
	return &buf
}

func TestSetLogLevel(t *testing.T) {
	buf := captureLogs(t)
	prev := GetLogLevel()
	t.Cleanup(func() { SetLogLevel(prev) })

	SetLogLevel(slog.LevelWarn)
	Info("hidden")
	Warn("shown", slog.String("key", "value"))

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
	require.Contains(t, buf.String(), "key=value")
}

func TestHCLogAdapter(t *testing.T) {
	buf := captureLogs(t)
	prev := GetLogLevel()
	t.Cleanup(func() { SetLogLevel(prev) })
	SetLogLevel(slog.LevelDebug)

	l := NewHCLogAdapter().Named("trapper").With("channel", "web01")
	require.Equal(t, "zts.trapper", l.Name())
	require.Equal(t, []interface{}{"channel", "web01"}, l.ImpliedArgs())

	l.Warn("not accepted", "info", "processed: 0; failed: 1; total: 1")
	out := buf.String()
	require.Contains(t, out, "logger=zts.trapper")
	require.Contains(t, out, "channel=web01")
	require.Contains(t, out, "not accepted")

	require.True(t, l.IsDebug())
	l.SetLevel(hclog.Error)
	require.Equal(t, hclog.Error, l.GetLevel())
	require.False(t, l.IsWarn())
	require.True(t, l.IsError())
}

func TestTailAndBadgerShims(t *testing.T) {
	buf := captureLogs(t)
	prev := GetLogLevel()
	t.Cleanup(func() { SetLogLevel(prev) })
	SetLogLevel(slog.LevelDebug)

	l := Default()
	l.Errorf("badger %s", "error")
	l.Fatal("file", "/tmp/x", "dangling")
	l.Printf("tail %d", 1)

	out := buf.String()
	require.Contains(t, out, "badger error")
	require.Contains(t, out, "file=/tmp/x")
	require.Contains(t, out, "tail 1")
}
