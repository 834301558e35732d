package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// separatorWidth is the width of the '=' rule above and below each FILE header.
const separatorWidth = 50

var separatorLine = strings.Repeat("=", separatorWidth)

// writeContents renders the content pass: one header-and-content block per
// included file, in traversal order. A file that cannot be read is logged
// with its relative path and skipped; only output-stream failures abort.
func (s *session) writeContents(w io.Writer) error {
	var werr error
	Walk(s.root, func(dir string, subdirs, files []string) []string {
		if werr != nil {
			return nil
		}

		for _, name := range files {
			if !s.filter.Allowed(name) {
				continue
			}
			path := filepath.Join(dir, name)
			if s.isOutput(path) {
				s.logger.Debug("Skipping merge output file", zap.String("path", path))
				continue
			}
			relPath := s.relTo(path)

			data, readErr := os.ReadFile(path)
			if readErr != nil {
				s.logger.Warn("Could not read file",
					zap.String("path", relPath),
					zap.Error(readErr))
				s.skipped++
				continue
			}

			if err := writeFileBlock(w, relPath, Decode(data, s.cfg.DecodePolicy)); err != nil {
				werr = err
				return nil
			}
			s.merged++
		}

		return s.prune(s.relTo(dir), subdirs)
	}, s.logger)
	return werr
}

// writeFileBlock writes one block: separator, FILE header, separator, blank
// line, then the content. Each block ends with exactly one blank line; a
// newline is appended first when the content lacks a trailing one.
func writeFileBlock(w io.Writer, relPath, content string) error {
	if _, err := fmt.Fprintf(w, "%s\nFILE: %s\n%s\n\n", separatorLine, relPath, separatorLine); err != nil {
		return err
	}
	if _, err := io.WriteString(w, content); err != nil {
		return err
	}
	tail := "\n\n"
	if strings.HasSuffix(content, "\n") {
		tail = "\n"
	}
	_, err := io.WriteString(w, tail)
	return err
}
