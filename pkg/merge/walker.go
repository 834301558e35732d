package merge

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// WalkFunc receives one visited directory together with the sorted names of
// its subdirectories and files. The returned slice selects which
// subdirectories are descended into; a name omitted from it is never visited,
// its entire subtree included.
type WalkFunc func(dir string, subdirs []string, files []string) []string

// Walk traverses the tree rooted at root depth-first, calling fn once per
// directory before descending into the children it returns. Sibling names are
// sorted lexicographically for deterministic output. A directory that cannot
// be listed is skipped and traversal continues.
//
// Symbolic links are never reported as directories by os.ReadDir, so linked
// directories are not descended; links to files surface as plain file names.
func Walk(root string, fn WalkFunc, logger *zap.Logger) {
	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Debug("Skipping unreadable directory during traversal",
			zap.String("directory", root),
			zap.Error(err))
		return
	}

	var subdirs, files []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(subdirs)
	sort.Strings(files)

	for _, name := range fn(root, subdirs, files) {
		Walk(filepath.Join(root, name), fn, logger)
	}
}
