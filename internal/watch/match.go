package watch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher selects estimate files by a slash-separated glob relative to a root
// directory. A pattern starting with **/ also matches files in the root itself.
type Matcher struct {
	pattern string
	full    glob.Glob
	root    glob.Glob // pattern without the leading **/, or nil
}

func NewMatcher(pattern string) (*Matcher, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("compile include pattern %q: %w", pattern, err)
	}
	m := &Matcher{pattern: pattern, full: g}
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		if rg, err := glob.Compile(rest, '/'); err == nil {
			m.root = rg
		}
	}
	return m, nil
}

func (m *Matcher) String() string {
	return m.pattern
}

// Match reports whether rel, a path relative to the root, is included.
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if m.full.Match(rel) {
		return true
	}
	return m.root != nil && !strings.Contains(rel, "/") && m.root.Match(rel)
}

// Discover walks root and returns the sorted paths of matching regular files.
func Discover(root string, m *Matcher) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if m.Match(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover estimates in %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
