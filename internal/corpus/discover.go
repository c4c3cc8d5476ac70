package corpus

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
)

var corpusRegexp = regexp.MustCompile(`^[A-Za-z0-9_.-]+\.corpus\.ya?ml$`)

// Discover returns the corpus files beneath root, sorted by path.
func Discover(root string) ([]string, error) {
	entries := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if corpusRegexp.MatchString(d.Name()) {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover corpora: %w", err)
	}
	sort.Strings(entries)
	return entries, nil
}

// LoadAll loads every corpus discovered under root, keyed by path.
func LoadAll(root string) (map[string]*Corpus, error) {
	paths, err := Discover(root)
	if err != nil {
		return nil, err
	}
	result := make(map[string]*Corpus, len(paths))
	for _, path := range paths {
		c, err := Load(path)
		if err != nil {
			return nil, err
		}
		result[path] = c
	}
	return result, nil
}
