package transform

import (
	"strings"

	"github.com/dlclark/regexp2"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

// ReplaceConfig configures a [Replace] transformer.
type ReplaceConfig struct {
	Name        string
	Pattern     string
	Replacement string // $1, ${name} and $$ refer to groups and a literal $
	Syntax      Syntax
}

// Replace substitutes every match of a pattern. It does no structural
// scanning.
type Replace struct {
	name        string
	re          *regexp2.Regexp
	replacement string
}

// NewReplace compiles cfg.
func NewReplace(cfg ReplaceConfig) (*Replace, error) {
	re, err := compile(cfg.Pattern, cfg.Syntax)
	if err != nil {
		return nil, err
	}
	return &Replace{
		name:        nameOr(cfg.Name, cfg.Pattern),
		re:          re,
		replacement: cfg.Replacement,
	}, nil
}

// Literal returns a Replace that swaps every occurrence of from for to,
// both taken verbatim. Type tables are applied this way.
func Literal(name, from, to string) (*Replace, error) {
	if from == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidPattern, "literal token cannot be empty")
	}
	return NewReplace(ReplaceConfig{
		Name:        nameOr(name, from),
		Pattern:     regexp2.Escape(from),
		Replacement: strings.ReplaceAll(to, "$", "$$"),
	})
}

// Name returns the transformer name.
func (t *Replace) Name() string { return t.name }

// Kind returns [KindReplace].
func (t *Replace) Kind() Kind { return KindReplace }

// Apply replaces all matches.
func (t *Replace) Apply(text string) (string, error) {
	out, err := t.re.Replace(text, t.replacement, -1, -1)
	if err != nil {
		return "", perrors.Wrap(perrors.ErrCodeMatchFailed, err, "replace %q", t.re.String())
	}
	return out, nil
}
