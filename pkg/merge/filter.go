package merge

import "strings"

// ExtensionFilter decides file inclusion by extension.
type ExtensionFilter struct {
	allowed map[string]struct{}
}

// NewExtensionFilter builds a filter from an allow-set of extensions, each
// including its leading dot (e.g. ".swift").
func NewExtensionFilter(extensions []string) ExtensionFilter {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[ext] = struct{}{}
	}
	return ExtensionFilter{allowed: allowed}
}

// Allowed reports whether filename's extension is in the allow-set. The
// extension runs from the last '.' to the end of the name, dot included; a
// name without a dot has the empty extension. Comparison is exact and
// case-sensitive.
func (f ExtensionFilter) Allowed(filename string) bool {
	ext := ""
	if idx := strings.LastIndexByte(filename, '.'); idx >= 0 {
		ext = filename[idx:]
	}
	_, ok := f.allowed[ext]
	return ok
}
