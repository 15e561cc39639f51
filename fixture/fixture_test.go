package fixture

import (
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()

	for path, body := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
	}
}

func labels(fixtures []Fixture) []string {
	out := make([]string, len(fixtures))
	for i, f := range fixtures {
		out[i] = f.Label
	}

	return out
}

func TestListIsLexicographic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("tests", 0o755))
	writeFiles(t, fs, map[string]string{
		"tests/c.json":  "c",
		"tests/a.json":  strings.Repeat("a", 10000),
		"tests/b.json":  "",
		"tests/B.json":  "upper sorts first",
		"tests/10.json": "digits",
	})

	e := NewEnumerator(fs, "tests", "")

	got, err := e.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.json", "B.json", "a.json", "b.json", "c.json"}, labels(got))
	assert.Equal(t, "tests/a.json", got[2].Path)
}

func TestListSkipsHiddenAndDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("tests/nested", 0o755))
	writeFiles(t, fs, map[string]string{
		"tests/.DS_Store":     "junk",
		"tests/keep.json":     "{}",
		"tests/nested/x.json": "{}",
	})

	got, err := NewEnumerator(fs, "tests", "").List()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.json"}, labels(got))
}

func TestListPattern(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("tests", 0o755))
	writeFiles(t, fs, map[string]string{
		"tests/a.json":   "{}",
		"tests/b.json":   "{}",
		"tests/notes.md": "#",
	})

	got, err := NewEnumerator(fs, "tests", "*.json").List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, labels(got))

	_, err = NewEnumerator(fs, "tests", "[").List()
	assert.Error(t, err)
}

func TestListEmptySource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("tests", 0o755))

	got, err := NewEnumerator(fs, "tests", "").List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListMissingSource(t *testing.T) {
	_, err := NewEnumerator(afero.NewMemMapFs(), "nope", "").List()
	assert.Error(t, err)
}

func TestListSourceIsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"tests": "not a dir"})

	_, err := NewEnumerator(fs, "tests", "").List()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestAllIsRestartable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("tests", 0o755))
	writeFiles(t, fs, map[string]string{"tests/x": "1", "tests/y": "2"})

	seq, err := NewEnumerator(fs, "tests", "").All()
	require.NoError(t, err)

	first := labels(slices.Collect(seq))
	second := labels(slices.Collect(seq))

	assert.Equal(t, []string{"x", "y"}, first)
	assert.Equal(t, first, second)
}

func TestAllStopsEarly(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("tests", 0o755))
	writeFiles(t, fs, map[string]string{"tests/x": "1", "tests/y": "2", "tests/z": "3"})

	seq, err := NewEnumerator(fs, "tests", "").All()
	require.NoError(t, err)

	var seen []string
	for f := range seq {
		seen = append(seen, f.Label)
		if len(seen) == 2 {
			break
		}
	}

	assert.Equal(t, []string{"x", "y"}, seen)
}

func TestRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("tests", 0o755))
	writeFiles(t, fs, map[string]string{"tests/x": "payload"})

	e := NewEnumerator(fs, "tests", "")

	fixtures, err := e.List()
	require.NoError(t, err)
	require.Len(t, fixtures, 1)

	data, err := e.Read(fixtures[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, fs.Remove("tests/x"))

	_, err = e.Read(fixtures[0])
	assert.Error(t, err)
}
