package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat_Fields(t *testing.T) {
	ts := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	line := format(ts, LevelError, CatRegistry, "register failed", []any{"model_type", "ensemble", "stage", "artifact"})
	require.Equal(t, "2025-03-03T10:00:00 [ERROR] [registry] register failed model_type=ensemble stage=artifact\n", line)
}

func TestFormat_OddFields(t *testing.T) {
	ts := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	line := format(ts, LevelInfo, CatDB, "opened", []any{"path"})
	require.Equal(t, "2025-03-03T10:00:00 [INFO] [db] opened path=<missing>\n", line)
}

func TestLogger_MinLevelAndDisable(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetMinLevel(LevelWarn)
	Info(CatCache, "hidden")
	Warn(CatCache, "shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "[WARN] [cache] shown")

	SetEnabled(false)
	Error(CatCache, "dropped")
	require.NotContains(t, buf.String(), "dropped")
}

func TestLogger_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	ErrorErr(CatArtifact, "write failed", errors.New("disk full"), "key", "rf_1.gob")
	require.Contains(t, buf.String(), "key=rf_1.gob error=disk full")

	ErrorErr(CatArtifact, "nil error", nil)
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLogger_NoopWithoutInit(t *testing.T) {
	Reset()
	require.NotPanics(t, func() {
		Debug(CatDB, "nothing")
		SetEnabled(true)
		SetMinLevel(LevelDebug)
	})
}

func TestInit_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelreg.log")
	cleanup, err := Init(path)
	require.NoError(t, err)
	t.Cleanup(Reset)

	Info(CatConfig, "loaded", "file", "config.yaml")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] [config] loaded file=config.yaml")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel(" error "))
	require.Equal(t, LevelInfo, ParseLevel("verbose"))
	require.Equal(t, "UNKNOWN", Level(42).String())
}
