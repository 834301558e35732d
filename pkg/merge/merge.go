// Package merge walks a project directory tree, selects files by extension,
// and concatenates their contents into a single output document, optionally
// preceded by a rendering of the directory structure.
package merge

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"codemerge/pkg/clipboard"

	"go.uber.org/zap"
)

// Merger runs merge operations. Counter and Clip are optional; when nil the
// tiktoken-backed counter and the system clipboard are used.
type Merger struct {
	Logger  *zap.Logger
	Counter TokenCounter
	Clip    clipboard.Copier
}

// session carries the per-run state shared by the structure and content passes.
type session struct {
	cfg     Config
	root    string // absolute traversal root
	outAbs  string // absolute output path, excluded from its own traversal
	rules   *Ruleset
	filter  ExtensionFilter
	logger  *zap.Logger
	merged  int
	skipped int
}

// Execute runs a merge with the default side services.
func Execute(cfg Config, logger *zap.Logger) error {
	return (&Merger{Logger: logger}).Run(cfg)
}

// Run orchestrates one merge: it resolves the root, opens the output stream,
// runs the structure pass (when configured) and the content pass, then the
// optional token summary and clipboard copy. Per-file failures are skipped;
// output-stream failures are fatal.
func (m *Merger) Run(cfg Config) error {
	startTime := time.Now()
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DecodePolicy == "" {
		cfg.DecodePolicy = DecodeReplace
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutputFile
	}

	rootDir := cfg.Root
	if rootDir == "" {
		workingDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		rootDir = workingDir
	}
	rootAbs, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}
	info, err := os.Stat(rootAbs)
	if err != nil {
		return fmt.Errorf("cannot access root directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path %s is not a directory", rootAbs)
	}

	// Relative output paths resolve against the root so the snapshot sits
	// beside the tree it describes.
	outAbs := cfg.Output
	if !filepath.IsAbs(outAbs) {
		outAbs = filepath.Join(rootAbs, outAbs)
	}
	outAbs = filepath.Clean(outAbs)

	logger.Info("Starting merge",
		zap.String("root", rootAbs),
		zap.String("output", outAbs),
		zap.Bool("tree", cfg.Tree))

	if err := ensureDirectory(filepath.Dir(outAbs), logger); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outFile, err := os.Create(outAbs)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", outAbs), zap.Error(err))
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close() // no-op after the explicit Close below

	// The token summary and clipboard copy need the whole document, so tee
	// it into a buffer when either is requested.
	var doc bytes.Buffer
	var target io.Writer = outFile
	if cfg.Tokens.Enabled || cfg.Clipboard {
		target = io.MultiWriter(outFile, &doc)
	}
	writer := bufio.NewWriter(target)

	s := &session{
		cfg:    cfg,
		root:   rootAbs,
		outAbs: outAbs,
		rules:  NewRuleset(cfg.IgnoreDirs, cfg.ExtraIgnores, logger),
		filter: NewExtensionFilter(cfg.Extensions),
		logger: logger,
	}

	if cfg.Tree {
		logger.Debug("Generating structure section")
		if err := s.writeStructure(writer); err != nil {
			return fmt.Errorf("failed to write structure section: %w", err)
		}
	}

	logger.Debug("Merging file contents")
	if err := s.writeContents(writer); err != nil {
		return fmt.Errorf("failed to write file contents: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if cfg.Tokens.Enabled {
		m.reportTokens(doc.String(), cfg.Tokens.Model, logger)
	}
	if cfg.Clipboard {
		m.copyToClipboard(doc.String(), logger)
	}

	logger.Info("Merge completed",
		zap.String("outputFile", outAbs),
		zap.Int("mergedFiles", s.merged),
		zap.Int("skippedFiles", s.skipped),
		zap.Duration("elapsed", time.Since(startTime)))
	fmt.Printf("Success! Combined %d files into: %s\n", s.merged, outAbs)
	return nil
}

// reportTokens logs a token count for the merged document. Tokenizer
// failures degrade to a warning and never fail the run.
func (m *Merger) reportTokens(document, model string, logger *zap.Logger) {
	counter := m.Counter
	if counter == nil {
		built, err := NewTokenCounter(model)
		if err != nil {
			logger.Warn("Token counting unavailable", zap.Error(err))
			return
		}
		counter = built
	}

	count, err := counter.Count(document)
	if err != nil {
		logger.Warn("Failed to count tokens", zap.Error(err))
		return
	}
	logger.Info("Token count",
		zap.Int("tokens", count),
		zap.String("tokenizer", counter.Name()))
	fmt.Printf("Token count (%s): %d\n", counter.Name(), count)
}

// copyToClipboard copies the merged document to the clipboard; failure is a
// warning, not an error.
func (m *Merger) copyToClipboard(document string, logger *zap.Logger) {
	clip := m.Clip
	if clip == nil {
		clip = clipboard.NewSystem()
	}
	if err := clip.Copy(document); err != nil {
		logger.Warn("Failed to copy output to clipboard", zap.Error(err))
		return
	}
	logger.Info("Copied merged document to clipboard")
}

// prune filters the subdirectory list before descent; a pruned name's entire
// subtree is never visited.
func (s *session) prune(dirRel string, subdirs []string) []string {
	kept := make([]string, 0, len(subdirs))
	for _, name := range subdirs {
		rel := name
		if dirRel != "." {
			rel = filepath.Join(dirRel, name)
		}
		if s.rules.IgnoredDir(name, rel) {
			s.logger.Debug("Pruned ignored directory", zap.String("directory", rel))
			continue
		}
		kept = append(kept, name)
	}
	return kept
}

// relTo returns path relative to the traversal root, falling back to the
// input when no relative form exists.
func (s *session) relTo(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return path
	}
	return rel
}

// isOutput reports whether path is the run's own output document.
func (s *session) isOutput(path string) bool {
	return filepath.Clean(path) == s.outAbs
}

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}
