package transform

import (
	"strings"

	"github.com/dlclark/regexp2"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

// CaptureConfig configures a [Capture] transformer.
type CaptureConfig struct {
	Name       string
	Pattern    string // trigger pattern with exactly one capturing group
	Template   string // replacement template with exactly one %s
	Delimiters string // pair stripped from the captured value when Strip is set
	Strip      bool
	Syntax     Syntax
}

// Capture replaces each whole match with the template applied to the one
// captured group.
//
// Trigger `INJECT\((\w+)\)` with template "VALUE_%s" turns
// "a INJECT(foo) b" into "a VALUE_foo b".
type Capture struct {
	name        string
	trigger     *regexp2.Regexp
	template    *Template
	open, close rune
	strip       bool
}

// NewCapture validates cfg. The pattern must declare exactly one capturing
// group and the template exactly one placeholder.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	trigger, err := compile(cfg.Pattern, cfg.Syntax)
	if err != nil {
		return nil, err
	}
	// GetGroupNumbers includes group 0, the whole match.
	if groups := len(trigger.GetGroupNumbers()) - 1; groups != 1 {
		return nil, perrors.New(perrors.ErrCodeInvalidCaptureGroups,
			"pattern %q must have exactly one capturing group, has %d", cfg.Pattern, groups)
	}
	tmpl, err := ParseTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}
	if tmpl.Placeholders() != 1 {
		return nil, perrors.New(perrors.ErrCodeArityMismatch,
			"template %q must have exactly one placeholder, has %d", cfg.Template, tmpl.Placeholders())
	}
	open, close, err := parseDelimiters(cfg.Delimiters)
	if err != nil {
		return nil, err
	}

	return &Capture{
		name:     nameOr(cfg.Name, cfg.Pattern),
		trigger:  trigger,
		template: tmpl,
		open:     open,
		close:    close,
		strip:    cfg.Strip,
	}, nil
}

// Name returns the transformer name.
func (t *Capture) Name() string { return t.name }

// Kind returns [KindCapture].
func (t *Capture) Kind() Kind { return KindCapture }

// Apply substitutes every match, left to right.
func (t *Capture) Apply(text string) (string, error) {
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
		start, end := m.Index, m.Index+m.Length

		value := t.unwrap(m.GroupByNumber(1))
		expanded, err := t.template.Execute(value)
		if err != nil {
			return "", err
		}

		out.WriteString(string(src[cursor:start]))
		out.WriteString(expanded)
		cursor = end
		from = resume(start, end)
		matched = true
	}

	if !matched {
		return text, nil
	}
	out.WriteString(string(src[cursor:]))
	return out.String(), nil
}

// unwrap returns the captured value, without one enclosing delimiter pair
// when stripping is configured and the value is wrapped in one.
func (t *Capture) unwrap(g *regexp2.Group) string {
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	v := []rune(g.String())
	if t.strip && len(v) >= 2 && v[0] == t.open && v[len(v)-1] == t.close {
		v = v[1 : len(v)-1]
	}
	return string(v)
}
