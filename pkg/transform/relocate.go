package transform

import (
	"strings"

	"github.com/dlclark/regexp2"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

// RelocateConfig configures a [Relocate] transformer.
type RelocateConfig struct {
	Name    string
	Literal string // marker searched for verbatim; regex metacharacters have no meaning
}

// Relocate anchors each occurrence of a literal marker to its whole line.
//
// For every occurrence the line that contains it is emitted as the marker
// alone: text before the line is copied, the marker is written, and the rest
// of the line is consumed. The newline that ends the line is kept. Later
// passes can then treat the marker as standing for the whole line.
type Relocate struct {
	name    string
	literal string
	trigger *regexp2.Regexp
}

// NewRelocate validates cfg. The marker must be non-empty and fit on one
// line.
func NewRelocate(cfg RelocateConfig) (*Relocate, error) {
	if cfg.Literal == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidPattern, "relocate marker cannot be empty")
	}
	if strings.ContainsAny(cfg.Literal, "\r\n") {
		return nil, perrors.New(perrors.ErrCodeInvalidPattern, "relocate marker %q spans lines", cfg.Literal)
	}
	trigger, err := compile(regexp2.Escape(cfg.Literal), SyntaxDefault)
	if err != nil {
		return nil, err
	}
	return &Relocate{
		name:    nameOr(cfg.Name, cfg.Literal),
		literal: cfg.Literal,
		trigger: trigger,
	}, nil
}

// Name returns the transformer name.
func (t *Relocate) Name() string { return t.name }

// Kind returns [KindRelocate].
func (t *Relocate) Kind() Kind { return KindRelocate }

// Apply rewrites every line that contains the marker. A second marker on an
// already handled line is part of the consumed remainder.
func (t *Relocate) Apply(text string) (string, error) {
	src := []rune(text)

	var out strings.Builder
	cursor, from := 0, 0
	matched := false
	for {
		m, err := nextMatch(t.trigger, src, from)
		if err != nil {
			return "", err
		}
		if m == nil {
			break
		}

		lineStart, lineEnd := FullLineBounds(src, m.Index)
		lineStart = max(lineStart, cursor)

		out.WriteString(string(src[cursor:lineStart]))
		out.WriteString(t.literal)
		cursor = lineEnd
		from = max(lineEnd, m.Index+m.Length)
		matched = true
	}

	if !matched {
		return text, nil
	}
	out.WriteString(string(src[cursor:]))
	return out.String(), nil
}
