package transform

import (
	"strings"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

// Template is a positional format string. Each %s is replaced by the next
// argument in order; %% is a literal percent sign and %n a newline. Any other
// verb is rejected when the template is parsed.
type Template struct {
	raw      string
	segments []string // literal text around placeholders; len == placeholders+1
}

// ParseTemplate parses a replacement template.
func ParseTemplate(s string) (*Template, error) {
	var (
		segments []string
		cur      strings.Builder
	)

	r := []rune(s)
	for i := 0; i < len(r); i++ {
		if r[i] != '%' {
			cur.WriteRune(r[i])
			continue
		}
		if i+1 >= len(r) {
			return nil, perrors.New(perrors.ErrCodeInvalidTemplate, "template %q ends with a lone %%", s)
		}
		i++
		switch r[i] {
		case 's':
			segments = append(segments, cur.String())
			cur.Reset()
		case '%':
			cur.WriteRune('%')
		case 'n':
			cur.WriteRune('\n')
		default:
			return nil, perrors.New(perrors.ErrCodeInvalidTemplate,
				"template %q uses unsupported verb %%%c (only %%s, %%%% and %%n)", s, r[i])
		}
	}
	segments = append(segments, cur.String())

	return &Template{raw: s, segments: segments}, nil
}

// MustParseTemplate is like [ParseTemplate] but panics on error.
func MustParseTemplate(s string) *Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Placeholders returns the number of %s placeholders.
func (t *Template) Placeholders() int {
	return len(t.segments) - 1
}

// String returns the template source.
func (t *Template) String() string {
	return t.raw
}

// Execute substitutes args positionally. The number of arguments must equal
// the number of placeholders.
func (t *Template) Execute(args ...string) (string, error) {
	if len(args) != t.Placeholders() {
		return "", perrors.New(perrors.ErrCodeArityMismatch,
			"template %q has %d placeholder(s) but got %d argument(s) %q",
			t.raw, t.Placeholders(), len(args), args)
	}

	var b strings.Builder
	for i, seg := range t.segments {
		b.WriteString(seg)
		if i < len(args) {
			b.WriteString(args[i])
		}
	}
	return b.String(), nil
}
