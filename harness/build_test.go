package harness

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRunsCommandInDir(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()

	var out bytes.Buffer

	err := Build(context.Background(), slog.New(slog.DiscardHandler), BuildConfig{
		Command: []string{"sh", "-c", "echo building; touch built"},
		Dir:     dir,
		Output:  &out,
	})
	require.NoError(t, err)

	assert.Equal(t, "building\n", out.String())
	assert.FileExists(t, dir+"/built")
}

func TestBuildFailure(t *testing.T) {
	requireShell(t)

	err := Build(context.Background(), slog.New(slog.DiscardHandler), BuildConfig{
		Command: []string{"sh", "-c", "exit 7"},
		Output:  &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuild)
	assert.True(t, Fatal(err))
}

func TestBuildEmptyCommand(t *testing.T) {
	err := Build(context.Background(), slog.New(slog.DiscardHandler), BuildConfig{})
	assert.ErrorIs(t, err, ErrBuild)
}
