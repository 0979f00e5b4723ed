package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/nlyzer/internal/config"
)

func TestGetLoggerBeforeInit(t *testing.T) {
	l := GetLogger()
	require.NotNil(t, l)
	assert.True(t, l.IsInfoEnabled())
	assert.False(t, l.IsDebugEnabled())
}

func TestPatternFormatter(t *testing.T) {
	f := &formatter{pattern: "%time [%level] %field %msg%n", time: "15:04:05"}
	entry := &logrus.Entry{
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "frame dropped",
		Data:    logrus.Fields{"device": "eth0", "count": 3, "error": errors.New("boom")},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "03:04:05 [warning] count=3,device=eth0,error=boom frame dropped\n", string(out))
}

func TestPatternFormatterAppendsNewline(t *testing.T) {
	f := &formatter{pattern: "%msg", time: time.RFC3339}
	out, err := f.Format(&logrus.Entry{Message: "hi", Data: logrus.Fields{}})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(out))
}

func TestNewLogrusFormats(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{"pattern", func(t *testing.T, out string) {
			assert.Contains(t, out, "[info] device=eth0 capture started")
		}},
		{"nested", func(t *testing.T, out string) {
			assert.Contains(t, out, "[INFO]")
			assert.Contains(t, out, "[device:eth0]")
			assert.Contains(t, out, "capture started")
		}},
		{"json", func(t *testing.T, out string) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &m))
			assert.Equal(t, "capture started", m["msg"])
			assert.Equal(t, "eth0", m["device"])
			assert.Equal(t, "info", m["level"])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := newLogrus(config.LogConfig{Level: "info", Format: tt.format}, &buf)
			require.NoError(t, err)

			l.WithField("device", "eth0").Info("capture started")
			l.Debug("hidden")

			out := buf.String()
			assert.NotContains(t, out, "hidden")
			tt.check(t, out)
		})
	}
}

func TestNewLogrusInvalid(t *testing.T) {
	_, err := newLogrus(config.LogConfig{Level: "loud", Format: "pattern"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = newLogrus(config.LogConfig{Level: "info", Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestLevels(t *testing.T) {
	l, err := newLogrus(config.LogConfig{Level: "trace"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, l.IsTraceEnabled())
	assert.True(t, l.IsDebugEnabled())

	l, err = newLogrus(config.LogConfig{Level: "error"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, l.IsInfoEnabled())
}

func TestInitWithFileOutput(t *testing.T) {
	prev := GetLogger()
	t.Cleanup(func() {
		_ = Close()
		SetLogger(prev)
	})

	logPath := filepath.Join(t.TempDir(), "nlyzer.log")
	cfg := config.LogConfig{
		Level:  "debug",
		Format: "pattern",
		Outputs: config.LogOutputsConfig{File: config.FileOutputConfig{
			Enabled:  true,
			Path:     logPath,
			Rotation: config.RotationConfig{MaxSizeMB: 1, MaxBackups: 1},
		}},
	}
	require.NoError(t, Init(cfg))

	GetLogger().WithFields(map[string]interface{}{"frames": 7}).Debug("session finished")
	require.NoError(t, Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "frames=7 session finished"), string(data))
}

func TestInitToConsole(t *testing.T) {
	prev := GetLogger()
	t.Cleanup(func() {
		_ = Close()
		SetLogger(prev)
	})

	var console bytes.Buffer
	require.NoError(t, InitTo(config.LogConfig{Level: "info", Format: "json"}, &console))
	GetLogger().WithField("device", "eth0").Info("opened")
	assert.Contains(t, console.String(), `"device":"eth0"`)

	// No console and no file: output is discarded.
	require.NoError(t, InitTo(config.LogConfig{Level: "info"}, nil))
	GetLogger().Info("dropped")
	assert.NotContains(t, console.String(), "dropped")
}

func TestInitFileWithoutPath(t *testing.T) {
	err := Init(config.LogConfig{
		Level:   "info",
		Outputs: config.LogOutputsConfig{File: config.FileOutputConfig{Enabled: true}},
	})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	mw := NewMultiWriter().Add(&a).Add(failingWriter{}).Add(&b)

	n, err := mw.Write([]byte("line\n"))
	assert.Equal(t, 5, n)
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, "line\n", a.String())
	assert.Equal(t, "line\n", b.String(), "a failing writer must not starve the rest")
	assert.NoError(t, mw.Close())
}
