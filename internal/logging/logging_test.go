package logging

import (
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToDailyFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Config{Dir: dir, Level: "warn"})
	require.NoError(t, err)

	sl := l.Component("session")
	sl.Info().Msg("hidden")
	sl.Warn().Str("run", "r1").Msg("visible")
	require.NoError(t, l.Close())

	assert.True(t, strings.HasPrefix(l.Path(), dir))
	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"session"`)
	assert.Contains(t, out, `"app":"studyup"`)
	assert.Contains(t, out, `"run":"r1"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestDefaultDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/state/studyup/logs", dir)
}
