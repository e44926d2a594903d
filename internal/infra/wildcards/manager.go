package wildcards

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jgreely/genaistuff/internal/domain"
)

// Manager holds wildcard collections loaded from a directory tree.
// Each *.txt file is one collection, named by its relative path without
// the extension (slash-separated), one value per line. Blank lines and
// #-comment lines are skipped.
type Manager struct {
	collections map[string][]string
}

// LoadDir loads every wildcard file under dir.
func LoadDir(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &domain.OpError{Op: "wildcards.load", Kind: domain.KindNotFound, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &domain.OpError{
			Op:   "wildcards.load",
			Kind: domain.KindNotFound,
			Path: dir,
			Err:  fmt.Errorf("not a directory"),
		}
	}

	m := &Manager{collections: map[string][]string{}}
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		values, err := readValues(path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		m.collections[name] = values
		return nil
	}
	if err := filepath.WalkDir(dir, walk); err != nil {
		return nil, &domain.OpError{Op: "wildcards.load", Kind: domain.KindExecution, Path: dir, Err: err}
	}
	return m, nil
}

func readValues(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values = append(values, line)
	}
	return values, nil
}

// Names lists the loaded collections in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns the raw values of one collection.
func (m *Manager) Values(name string) ([]string, bool) {
	values, ok := m.collections[name]
	return values, ok
}
