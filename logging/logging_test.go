package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheetcrm.log")
	var console bytes.Buffer

	l, err := New(Options{Level: "debug", File: path, Console: &console})
	require.NoError(t, err)

	log := l.Component("scanner")
	log.Info().Int("row", 5).Msg("processed row")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"scanner"`)
	assert.Contains(t, string(data), `"row":5`)
	assert.Contains(t, console.String(), "processed row")
}

func TestNewDefaultsToInfo(t *testing.T) {
	l, err := New(Options{Level: "loud"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
	assert.NoError(t, l.Close())
}

func TestNewFailsOnUnwritableFile(t *testing.T) {
	_, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}
