package merge

import "fmt"

// DecodePolicy selects how undecodable byte sequences in input files are
// handled.
type DecodePolicy string

const (
	// DecodeReplace substitutes U+FFFD for each invalid byte.
	DecodeReplace DecodePolicy = "replace"
	// DecodeSkip drops invalid bytes from the output.
	DecodeSkip DecodePolicy = "skip"
)

// DefaultOutputFile is the merged document's destination when none is
// configured.
const DefaultOutputFile = "FullProjectSource.txt"

// TokenOptions controls the optional token-count summary.
type TokenOptions struct {
	Enabled bool   // Report a token count for the merged document.
	Model   string // Tokenizer model; empty selects the default.
}

// Config holds the options for one merge run.
type Config struct {
	Root         string       // Directory to merge; empty means the working directory.
	Extensions   []string     // File extensions to include, leading dot included.
	IgnoreDirs   []string     // Directory names pruned from traversal at any depth.
	ExtraIgnores []string     // Optional gitignore-style directory patterns.
	Output       string       // Destination path for the merged document.
	Tree         bool         // Prepend a directory-structure section.
	DecodePolicy DecodePolicy // Handling of undecodable bytes.
	Tokens       TokenOptions // Token-count summary options.
	Clipboard    bool         // Copy the merged document to the system clipboard.
}

// DefaultConfig returns the compiled-in configuration.
func DefaultConfig() Config {
	return Config{
		Extensions: []string{".swift", ".cpp", ".xcprivacy", ".plist"},
		IgnoreDirs: []string{
			"Pods",
			".git",
			"DerivedData",
			"Assets.xcassets",
			"Preview Content",
			"fastlane",
			"build",
		},
		Output:       DefaultOutputFile,
		Tree:         true,
		DecodePolicy: DecodeReplace,
	}
}

// Validate checks the configuration for values no run could honor.
func (c Config) Validate() error {
	switch c.DecodePolicy {
	case "", DecodeReplace, DecodeSkip:
	default:
		return fmt.Errorf("invalid decode policy %q: must be %q or %q", c.DecodePolicy, DecodeReplace, DecodeSkip)
	}
	if c.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}
	return nil
}
