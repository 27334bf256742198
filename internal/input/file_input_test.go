package input

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"szuro.net/zts/internal/config"
)

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
}

func fileConf(dir string, paths ...string) config.ZTSConf {
	return config.ZTSConf{
		BufferSize: 10,
		WorkingDir: filepath.Join(dir, "work"),
		FileInput:  config.FileConf{Paths: paths},
	}
}

func TestFileInput_IsReady(t *testing.T) {
	dir := t.TempDir()
	alerts := filepath.Join(dir, "alerts.ndjson")

	fi, err := NewFileInput(fileConf(dir, alerts), nil)
	require.NoError(t, err)
	defer fi.fileIndex.Close()

	require.False(t, fi.IsReady())
	appendLine(t, alerts, `{"stream":"nginx","messages":[]}`)
	require.True(t, fi.IsReady())
}

func TestFileInput_FollowAndResume(t *testing.T) {
	dir := t.TempDir()
	alerts := filepath.Join(dir, "alerts.ndjson")
	appendLine(t, alerts, `{"stream":"first","messages":[{"message":"disk full","timestamp":1700000000000}]}`)
	appendLine(t, alerts, `this line is garbage`)

	fi, err := NewFileInput(fileConf(dir, alerts), nil)
	require.NoError(t, err)
	require.NoError(t, fi.Prepare())
	o := &recordingObserver{name: "recorder"}
	fi.subject.Register(o)
	fi.Start()

	require.Eventually(t, func() bool { return len(o.received()) == 1 }, 5*time.Second, 20*time.Millisecond)
	appendLine(t, alerts, `{"stream":"second","messages":[]}`)
	require.Eventually(t, func() bool { return len(o.received()) == 2 }, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, fi.Stop())

	received := o.received()
	require.Equal(t, "first", received[0].Stream)
	require.Equal(t, "second", received[1].Stream)
	require.True(t, o.cleaned.Load())

	// a new input over the same working dir only sees what was appended since
	appendLine(t, alerts, `{"stream":"third","messages":[]}`)

	fi, err = NewFileInput(fileConf(dir, alerts), nil)
	require.NoError(t, err)
	require.NoError(t, fi.Prepare())
	resumed := &recordingObserver{name: "recorder"}
	fi.subject.Register(resumed)
	fi.Start()

	require.Eventually(t, func() bool { return len(resumed.received()) == 1 }, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, fi.Stop())
	require.Equal(t, "third", resumed.received()[0].Stream)
}
