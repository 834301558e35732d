package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// structureHeader opens the optional directory-structure section.
const structureHeader = "PROJECT STRUCTURE:\n==================\n"

// writeStructure renders the structure pass: every non-ignored directory in
// traversal order as its base name plus a path separator, indented four
// spaces per depth level, each included file one level further. Two blank
// lines terminate the section.
func (s *session) writeStructure(w io.Writer) error {
	if _, err := io.WriteString(w, structureHeader); err != nil {
		return err
	}

	var werr error
	Walk(s.root, func(dir string, subdirs, files []string) []string {
		if werr != nil {
			return nil
		}

		rel := s.relTo(dir)
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(os.PathSeparator)) + 1
		}
		indent := strings.Repeat(" ", 4*depth)

		if _, err := fmt.Fprintf(w, "%s%s/\n", indent, filepath.Base(dir)); err != nil {
			werr = err
			return nil
		}
		for _, name := range files {
			if !s.filter.Allowed(name) {
				continue
			}
			if s.isOutput(filepath.Join(dir, name)) {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s    %s\n", indent, name); err != nil {
				werr = err
				return nil
			}
		}

		return s.prune(rel, subdirs)
	}, s.logger)
	if werr != nil {
		return werr
	}

	_, err := io.WriteString(w, "\n\n")
	return err
}
