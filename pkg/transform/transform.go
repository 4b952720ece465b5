package transform

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

// Kind identifies one of the four transformer variants.
type Kind string

// Transformer kinds.
const (
	KindArgCall  Kind = "argcall"
	KindCapture  Kind = "capture"
	KindRelocate Kind = "relocate"
	KindReplace  Kind = "replace"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindArgCall, KindCapture, KindRelocate, KindReplace}

// Syntax selects the regular expression dialect of a trigger pattern.
type Syntax string

// Supported pattern dialects.
const (
	// SyntaxDefault is the Perl-style dialect of regexp2.
	SyntaxDefault Syntax = ""

	// SyntaxRE2 restricts patterns to RE2-compatible constructs.
	SyntaxRE2 Syntax = "re2"
)

// Default configuration values.
const (
	DefaultDelimiters = "()"
	DefaultSeparator  = ","
)

// Transformer rewrites text according to one structural rule.
// Implementations are immutable after construction and safe for concurrent
// use.
type Transformer interface {
	// Name returns the configured name, used in error messages and logs.
	Name() string

	// Kind reports which of the four rules the transformer implements.
	Kind() Kind

	// Apply returns the rewritten text. When the trigger does not match,
	// the input is returned unchanged.
	Apply(text string) (string, error)
}

// Chain applies transformers in order, feeding each the previous output.
type Chain []Transformer

// Apply runs every transformer in the chain. The first failure stops the
// chain and is returned wrapped with the failing transformer's name.
func (c Chain) Apply(text string) (string, error) {
	for _, t := range c {
		out, err := t.Apply(text)
		if err != nil {
			return "", fmt.Errorf("%s %q: %w", t.Kind(), t.Name(), err)
		}
		text = out
	}
	return text, nil
}

// Names returns the names of the chained transformers.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name()
	}
	return names
}

// =============================================================================
// Shared helpers
// =============================================================================

// MatchTimeout bounds a single regex search. Patterns that backtrack past it
// fail with MATCH_FAILED instead of running on. It is read when a
// transformer is constructed.
var MatchTimeout = 2 * time.Second

// compile builds the regexp2 pattern for the given dialect.
func compile(pattern string, syntax Syntax) (*regexp2.Regexp, error) {
	if pattern == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidPattern, "pattern cannot be empty")
	}

	var opts regexp2.RegexOptions
	switch strings.ToLower(string(syntax)) {
	case "", "default", "perl":
		opts = regexp2.None
	case string(SyntaxRE2):
		opts = regexp2.RE2
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidPattern, "unknown pattern syntax %q", syntax)
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidPattern, err, "compile %q", pattern)
	}
	re.MatchTimeout = MatchTimeout
	return re, nil
}

// nextMatch finds the first match at or after rune offset from.
// A nil match means there are no further matches.
func nextMatch(re *regexp2.Regexp, text []rune, from int) (*regexp2.Match, error) {
	if from > len(text) {
		return nil, nil
	}
	m, err := re.FindRunesMatchStartingAt(text, from)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeMatchFailed, err, "search %q", re.String())
	}
	return m, nil
}

// resume returns the offset where the next search starts after a match
// spanning [start, end). Empty matches step forward one rune so the loop
// always makes progress.
func resume(start, end int) int {
	if end == start {
		return end + 1
	}
	return end
}

// parseDelimiters splits a two-character delimiter pair.
func parseDelimiters(d string) (open, close rune, err error) {
	if d == "" {
		d = DefaultDelimiters
	}
	if utf8.RuneCountInString(d) != 2 {
		return 0, 0, perrors.New(perrors.ErrCodeInvalidDelimiters,
			"delimiters must be exactly two characters (open and close), got %q", d)
	}
	r := []rune(d)
	return r[0], r[1], nil
}

// nameOr returns name, or fallback when name is empty.
func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
