package merge_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"codemerge/pkg/merge"

	"go.uber.org/zap"
)

type stubCounter struct {
	lastInput string
}

func (s *stubCounter) Name() string { return "stub" }

func (s *stubCounter) Count(text string) (int, error) {
	s.lastInput = text
	return len([]rune(text)), nil
}

type stubCopier struct {
	copied string
}

func (s *stubCopier) Copy(text string) error {
	s.copied = text
	return nil
}

func runMerge(t *testing.T, cfg merge.Config) string {
	t.Helper()
	if err := merge.Execute(cfg, zap.NewNop()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Root, cfg.Output))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func TestMergeFiltersAndPrunes(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "src"))
	mustMkdir(t, filepath.Join(root, "Pods"))
	mustMkdir(t, filepath.Join(root, "build"))
	mustWrite(t, filepath.Join(root, "src", "main.swift"), "A")
	mustWrite(t, filepath.Join(root, "Pods", "Lib.swift"), "B")
	mustWrite(t, filepath.Join(root, "build", "out.h"), "C")

	cfg := merge.Config{
		Root:       root,
		Extensions: []string{".swift", ".h"},
		IgnoreDirs: []string{"Pods", "build"},
		Output:     "merged.txt",
	}
	out := runMerge(t, cfg)

	if got := strings.Count(out, "FILE: "); got != 1 {
		t.Fatalf("expected exactly one file block, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "FILE: "+filepath.Join("src", "main.swift")) {
		t.Fatalf("missing block for src/main.swift:\n%s", out)
	}
	if !strings.Contains(out, "A") {
		t.Fatalf("missing content of main.swift:\n%s", out)
	}
	for _, forbidden := range []string{"Lib.swift", "out.h", "B\n", "C\n"} {
		if strings.Contains(out, forbidden) {
			t.Fatalf("output leaks %q:\n%s", forbidden, out)
		}
	}
}

func TestMergeDocumentLayout(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "src"))
	mustWrite(t, filepath.Join(root, "b.swift"), "B")
	mustWrite(t, filepath.Join(root, "src", "main.swift"), "A\n")

	cfg := merge.Config{
		Root:       root,
		Extensions: []string{".swift"},
		Output:     "out.txt",
		Tree:       true,
	}
	out := runMerge(t, cfg)

	sep := strings.Repeat("=", 50)
	want := "PROJECT STRUCTURE:\n" +
		"==================\n" +
		filepath.Base(root) + "/\n" +
		"    b.swift\n" +
		"    src/\n" +
		"        main.swift\n" +
		"\n\n" +
		sep + "\n" +
		"FILE: b.swift\n" +
		sep + "\n\n" +
		"B\n\n" +
		sep + "\n" +
		"FILE: " + filepath.Join("src", "main.swift") + "\n" +
		sep + "\n\n" +
		"A\n\n"

	if out != want {
		t.Fatalf("document layout mismatch:\ngot:\n%q\nwant:\n%q", out, want)
	}
}

func TestMergeContentOnlyOmitsStructure(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.swift"), "A\n")

	cfg := merge.Config{
		Root:       root,
		Extensions: []string{".swift"},
		Output:     "out.txt",
		Tree:       false,
	}
	out := runMerge(t, cfg)

	if strings.Contains(out, "PROJECT STRUCTURE:") {
		t.Fatalf("structure section present in content-only mode:\n%s", out)
	}
	if !strings.HasPrefix(out, strings.Repeat("=", 50)+"\n") {
		t.Fatalf("content-only output should start with a separator:\n%s", out)
	}
}

func TestMergeExcludesItsOwnOutput(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.swift"), "A\n")

	// The output matches the allow-set and lives under the root.
	cfg := merge.Config{
		Root:       root,
		Extensions: []string{".swift"},
		Output:     "snapshot.swift",
		Tree:       true,
	}
	first := runMerge(t, cfg)

	if strings.Contains(first, "snapshot.swift") {
		t.Fatalf("output document references itself:\n%s", first)
	}

	second := runMerge(t, cfg)
	if first != second {
		t.Fatalf("repeated runs are not idempotent:\nfirst:\n%q\nsecond:\n%q", first, second)
	}
}

func TestMergeSkipsUnreadableFileAndContinues(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "good.swift"), "ok\n")
	// A dangling symlink with a matching extension fails on read.
	if err := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken.swift")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	cfg := merge.Config{
		Root:       root,
		Extensions: []string{".swift"},
		Output:     "out.txt",
	}
	out := runMerge(t, cfg)

	if strings.Contains(out, "broken.swift") {
		t.Fatalf("unreadable file has a block in the output:\n%s", out)
	}
	if !strings.Contains(out, "FILE: good.swift") {
		t.Fatalf("readable file missing from output:\n%s", out)
	}
}

func TestMergeDoesNotFollowDirectorySymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	outside := t.TempDir()
	mustWrite(t, filepath.Join(outside, "secret.swift"), "S\n")

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.swift"), "A\n")
	if err := os.Symlink(outside, filepath.Join(root, "linked")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	cfg := merge.Config{
		Root:       root,
		Extensions: []string{".swift"},
		Output:     "out.txt",
	}
	out := runMerge(t, cfg)

	if strings.Contains(out, "secret.swift") || strings.Contains(out, "S\n\n") {
		t.Fatalf("linked directory was traversed:\n%s", out)
	}
}

func TestMergeDecodesInvalidBytes(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "bad.swift"), []byte{'X', 0xff, 'Y', '\n'}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := merge.Config{
		Root:         root,
		Extensions:   []string{".swift"},
		Output:       "out.txt",
		DecodePolicy: merge.DecodeReplace,
	}
	out := runMerge(t, cfg)

	if !strings.Contains(out, "X\uFFFDY") {
		t.Fatalf("expected replacement marker in output:\n%q", out)
	}
}

func TestMergeExtraIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "pkg", "testdata"))
	mustWrite(t, filepath.Join(root, "pkg", "ok.swift"), "ok\n")
	mustWrite(t, filepath.Join(root, "pkg", "testdata", "fixture.swift"), "fixture\n")

	cfg := merge.Config{
		Root:         root,
		Extensions:   []string{".swift"},
		ExtraIgnores: []string{"**/testdata"},
		Output:       "out.txt",
	}
	out := runMerge(t, cfg)

	if strings.Contains(out, "fixture.swift") {
		t.Fatalf("pattern-ignored directory was traversed:\n%s", out)
	}
	if !strings.Contains(out, "ok.swift") {
		t.Fatalf("sibling file missing:\n%s", out)
	}
}

func TestMergeTokenAndClipboardServices(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.swift"), "A\n")

	counter := &stubCounter{}
	copier := &stubCopier{}
	m := &merge.Merger{
		Logger:  zap.NewNop(),
		Counter: counter,
		Clip:    copier,
	}
	cfg := merge.Config{
		Root:       root,
		Extensions: []string{".swift"},
		Output:     "out.txt",
		Tokens:     merge.TokenOptions{Enabled: true},
		Clipboard:  true,
	}
	if err := m.Run(cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	written, err := os.ReadFile(filepath.Join(root, "out.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if counter.lastInput != string(written) {
		t.Fatalf("token counter saw a different document than the output file")
	}
	if !bytes.Equal([]byte(copier.copied), written) {
		t.Fatalf("clipboard received a different document than the output file")
	}
}

func TestMergeSuccessMessageNamesResolvedOutput(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.swift"), "A\n")

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	cfg := merge.Config{
		Root:       root,
		Extensions: []string{".swift"},
		Output:     "out.txt",
	}
	runErr := merge.Execute(cfg, zap.NewNop())

	w.Close()
	os.Stdout = oldStdout
	captured, readErr := io.ReadAll(r)
	if readErr != nil {
		t.Fatalf("read captured stdout: %v", readErr)
	}

	if runErr != nil {
		t.Fatalf("Execute: %v", runErr)
	}
	if !strings.Contains(string(captured), filepath.Join(root, "out.txt")) {
		t.Fatalf("success message does not name the resolved output path: %q", captured)
	}
}

func TestMergeFailsWhenRootMissing(t *testing.T) {
	cfg := merge.Config{
		Root:       filepath.Join(t.TempDir(), "nope"),
		Extensions: []string{".swift"},
		Output:     "out.txt",
	}
	if err := merge.Execute(cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected an error for a missing root directory")
	}
}
