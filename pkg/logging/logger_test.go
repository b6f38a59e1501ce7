package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&Config{
		Level:       level,
		ServiceName: "test",
		JSONFormat:  true,
		Output:      buf,
	})
	return l, buf
}

func parseLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestJSONOutput(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)

	l.Info("meeting created", F("meeting_id", "m-1"), F("attempt", 3))

	entry := parseLine(t, buf.String())
	assert.Equal(t, "meeting created", entry["message"])
	assert.Equal(t, "m-1", entry["meeting_id"])
	assert.Equal(t, float64(3), entry["attempt"])
	assert.Equal(t, "test", entry["service_name"])
	assert.Equal(t, "info", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	entry := parseLine(t, lines[0])
	assert.Equal(t, "kept", entry["message"])
}

func TestWithFields(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	child := l.With(F("component", "reconciler"))
	child.Debug("tick")

	entry := parseLine(t, buf.String())
	assert.Equal(t, "reconciler", entry["component"])
}

func TestErrField(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)

	l.Error("provisioning failed", Err(errors.New("boom")))

	entry := parseLine(t, buf.String())
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestFieldTypes(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)

	l.Info("typed",
		F("dur", 2*time.Second),
		F("ok", true),
		F("ratio", 0.5),
		F("count", int64(9)),
	)

	entry := parseLine(t, buf.String())
	assert.Equal(t, true, entry["ok"])
	assert.Equal(t, 0.5, entry["ratio"])
	assert.Equal(t, float64(9), entry["count"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	// Must not panic, and With must return a usable logger.
	l.With(F("k", "v")).Info("ignored")
	l.Error("ignored", Err(errors.New("x")))
}

func TestDefaultLevelIsInfo(t *testing.T) {
	l, buf := newTestLogger(Level("bogus"))

	l.Debug("dropped")
	l.Info("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
}
