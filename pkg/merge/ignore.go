package merge

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Ruleset decides which directories are pruned from traversal. Exact
// directory names are the primary rule and match at any depth; optional
// gitignore-style patterns from configuration are matched against
// root-relative paths.
type Ruleset struct {
	names    map[string]struct{}
	patterns []*ignorePattern
	logger   *zap.Logger
}

// ignorePattern encapsulates a compiled regular expression pattern,
// a negation flag, and the original pattern line.
type ignorePattern struct {
	re     *regexp.Regexp
	negate bool
	line   string
}

// NewRuleset builds a Ruleset from exact directory names and optional
// pattern lines. Pattern lines support '*', '?', '**', negation via a
// leading '!', and '#' comments; invalid lines are dropped.
func NewRuleset(names []string, patternLines []string, logger *zap.Logger) *Ruleset {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs := &Ruleset{
		names:  make(map[string]struct{}, len(names)),
		logger: logger,
	}
	for _, name := range names {
		rs.names[name] = struct{}{}
	}
	for _, line := range patternLines {
		re, negate := parsePatternLine(line, logger)
		if re != nil {
			rs.patterns = append(rs.patterns, &ignorePattern{re: re, negate: negate, line: line})
			logger.Debug("Compiled ignore pattern",
				zap.String("pattern", line),
				zap.Bool("negate", negate))
		}
	}
	return rs
}

// IgnoredDir reports whether a directory should be pruned. name is the bare
// directory name, relPath its path relative to the traversal root. A name
// match cannot be negated by patterns.
func (rs *Ruleset) IgnoredDir(name, relPath string) bool {
	if _, ok := rs.names[name]; ok {
		return true
	}
	return rs.matchesPatterns(strings.ReplaceAll(relPath, "\\", "/"))
}

// matchesPatterns applies the pattern list in order; a later negation
// overrides an earlier match, as in gitignore.
func (rs *Ruleset) matchesPatterns(path string) bool {
	matched := false
	for _, pattern := range rs.patterns {
		if pattern.re.MatchString(path) {
			rs.logger.Debug("Path matches ignore pattern",
				zap.String("path", path),
				zap.String("pattern", pattern.line),
				zap.Bool("negate", pattern.negate))
			matched = !pattern.negate
		}
	}
	return matched
}

// parsePatternLine processes a single pattern line and returns a compiled
// regular expression and a negation flag. Returns nil for comments, empty
// lines, and invalid patterns.
func parsePatternLine(line string, logger *zap.Logger) (*regexp.Regexp, bool) {
	trimmedLine := strings.TrimSpace(line)

	// Ignore empty lines and comments
	if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
		return nil, false
	}

	// Handle negation
	negate := false
	if strings.HasPrefix(trimmedLine, "!") {
		negate = true
		trimmedLine = strings.TrimPrefix(trimmedLine, "!")
	}

	// Handle escaped leading '#' and '!'
	if strings.HasPrefix(trimmedLine, `\#`) || strings.HasPrefix(trimmedLine, `\!`) {
		trimmedLine = trimmedLine[1:]
	}

	// Relative paths carry neither a leading nor a trailing slash; a leading
	// slash in the pattern only roots it, a trailing one is gitignore's
	// directory marker and always holds here.
	rooted := strings.HasPrefix(trimmedLine, "/")
	trimmedLine = strings.Trim(trimmedLine, "/")
	if trimmedLine == "" {
		return nil, false
	}

	regexPattern := escapeSpecialChars(trimmedLine)
	regexPattern = shieldDoubleStarPatterns(regexPattern)
	regexPattern = wildcardToRegex(regexPattern)
	regexPattern = restoreDoubleStarPatterns(regexPattern)
	regexPattern = anchorPattern(regexPattern, rooted)

	compiledRegex, err := regexp.Compile(regexPattern)
	if err != nil {
		logger.Warn("Invalid ignore pattern",
			zap.String("pattern", trimmedLine),
			zap.Error(err))
		return nil, false
	}

	return compiledRegex, negate
}

// Precompiled regular expressions used in pattern parsing.
var (
	doubleStarMiddlePattern   = regexp.MustCompile(`/\*\*/`)
	doubleStarTrailingPattern = regexp.MustCompile(`/\*\*$`)
	doubleStarLeadingPattern  = regexp.MustCompile(`^\*\*/`)
	singleStarPattern         = regexp.MustCompile(`\*`)
)

// Placeholders shield '**' replacements from the single-star conversion;
// NUL never appears in a pattern line.
const (
	doubleStarMiddleMark   = "\x00M\x00"
	doubleStarTrailingMark = "\x00T\x00"
	doubleStarLeadingMark  = "\x00L\x00"
)

// escapeSpecialChars escapes regex special characters except for '*', '?', and '/'.
func escapeSpecialChars(pattern string) string {
	specialChars := `.+()|^$[]{}`
	for _, char := range specialChars {
		pattern = strings.ReplaceAll(pattern, string(char), `\`+string(char))
	}
	return pattern
}

// shieldDoubleStarPatterns replaces '**' constructs with placeholders.
func shieldDoubleStarPatterns(pattern string) string {
	pattern = doubleStarMiddlePattern.ReplaceAllString(pattern, doubleStarMiddleMark)
	pattern = doubleStarTrailingPattern.ReplaceAllString(pattern, doubleStarTrailingMark)
	pattern = doubleStarLeadingPattern.ReplaceAllString(pattern, doubleStarLeadingMark)
	return pattern
}

// restoreDoubleStarPatterns swaps the placeholders for their regex forms.
func restoreDoubleStarPatterns(pattern string) string {
	pattern = strings.ReplaceAll(pattern, doubleStarMiddleMark, `(/|/.+/)`)
	pattern = strings.ReplaceAll(pattern, doubleStarTrailingMark, `(/.*)?`)
	pattern = strings.ReplaceAll(pattern, doubleStarLeadingMark, `(.*/)?`)
	return pattern
}

// wildcardToRegex converts wildcard patterns '*' and '?' to regex equivalents.
func wildcardToRegex(pattern string) string {
	pattern = singleStarPattern.ReplaceAllString(pattern, `[^/]*`)
	return strings.ReplaceAll(pattern, "?", ".")
}

// anchorPattern anchors the regex pattern to match the entire relative path,
// including everything below a matched directory.
func anchorPattern(pattern string, rooted bool) string {
	pattern += `(|/.*)?$`
	if rooted {
		return "^" + pattern
	}
	return `^(|.*/)` + pattern
}
