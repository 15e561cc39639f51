// Package fixture discovers the input payloads a benchmark run exercises.
package fixture

import (
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPattern matches every fixture file.
const DefaultPattern = "*"

// Fixture identifies one input payload.
type Fixture struct {
	// Label is the file name within the fixture source. It is stable
	// across runs and is what reports show.
	Label string
	Path  string
}

// Enumerator lists fixtures from a directory in lexicographic order.
type Enumerator struct {
	fs      afero.Fs
	dir     string
	pattern string
}

// NewEnumerator creates an Enumerator over dir on fs. An empty pattern
// means DefaultPattern.
func NewEnumerator(fs afero.Fs, dir, pattern string) *Enumerator {
	if pattern == "" {
		pattern = DefaultPattern
	}

	return &Enumerator{fs: fs, dir: dir, pattern: pattern}
}

// List returns the fixtures currently in the source, sorted by label.
// Hidden files and subdirectories are ignored.
func (e *Enumerator) List() ([]Fixture, error) {
	if _, err := filepath.Match(e.pattern, ""); err != nil {
		return nil, fmt.Errorf("fixture pattern %q: %w", e.pattern, err)
	}

	info, err := e.fs.Stat(e.dir)
	if err != nil {
		return nil, fmt.Errorf("stat fixture source: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("fixture source %s is not a directory", e.dir)
	}

	entries, err := afero.ReadDir(e.fs, e.dir)
	if err != nil {
		return nil, fmt.Errorf("read fixture source %s: %w", e.dir, err)
	}

	fixtures := make([]Fixture, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		// Pattern was validated above.
		if ok, _ := filepath.Match(e.pattern, name); !ok {
			continue
		}

		fixtures = append(fixtures, Fixture{
			Label: name,
			Path:  filepath.Join(e.dir, name),
		})
	}

	slices.SortFunc(fixtures, func(a, b Fixture) int {
		return strings.Compare(a.Label, b.Label)
	})

	return fixtures, nil
}

// All lists the source once and returns a sequence over that snapshot.
// The sequence can be ranged over any number of times and always yields
// the same fixtures in the same order.
func (e *Enumerator) All() (iter.Seq[Fixture], error) {
	fixtures, err := e.List()
	if err != nil {
		return nil, err
	}

	return slices.Values(fixtures), nil
}

// Read returns the bytes of one fixture.
func (e *Enumerator) Read(f Fixture) ([]byte, error) {
	data, err := afero.ReadFile(e.fs, f.Path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", f.Label, err)
	}

	return data, nil
}
