package transform

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// ArgCallConfig configures an [ArgCall] transformer.
type ArgCallConfig struct {
	Name       string
	Pattern    string // trigger pattern
	Template   string // replacement template with one %s per argument
	Delimiters string // opening and closing delimiter, default "()"
	Strip      bool   // drop the enclosing delimiters before splitting
	Separator  string // argument separator pattern, default ","
	Syntax     Syntax
}

// ArgCall expands a trigger followed by a balanced argument list.
//
// For input "xFOO(1,2,3)y", trigger FOO, template "<%s|%s|%s>" and Strip set,
// the output is "x<1|2|3>y". A trigger without a balanced list after it is
// left untouched.
type ArgCall struct {
	name        string
	trigger     *regexp2.Regexp
	separator   *regexp2.Regexp
	template    *Template
	open, close rune
	strip       bool
}

// NewArgCall validates cfg and compiles its patterns.
func NewArgCall(cfg ArgCallConfig) (*ArgCall, error) {
	trigger, err := compile(cfg.Pattern, cfg.Syntax)
	if err != nil {
		return nil, err
	}
	sep := cfg.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	separator, err := compile(sep, cfg.Syntax)
	if err != nil {
		return nil, fmt.Errorf("separator: %w", err)
	}
	tmpl, err := ParseTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}
	open, close, err := parseDelimiters(cfg.Delimiters)
	if err != nil {
		return nil, err
	}

	return &ArgCall{
		name:      nameOr(cfg.Name, cfg.Pattern),
		trigger:   trigger,
		separator: separator,
		template:  tmpl,
		open:      open,
		close:     close,
		strip:     cfg.Strip,
	}, nil
}

// Name returns the transformer name.
func (t *ArgCall) Name() string { return t.name }

// Kind returns [KindArgCall].
func (t *ArgCall) Kind() Kind { return KindArgCall }

// Apply expands every trigger that is followed by a balanced argument list.
//
// The balanced scan starts at the last rune of the match, so a trigger may
// either end with the opening delimiter or stop just before it. A list that
// opens anywhere later is not the trigger's, and the trigger passes through
// unchanged. Text between
// the cursor and the trigger is copied verbatim, the trigger and its argument
// list are replaced by the formatted template, and the search resumes after
// the list.
func (t *ArgCall) Apply(text string) (string, error) {
	src := []rune(text)

	var out strings.Builder
	cursor, from := 0, 0
	for {
		m, err := nextMatch(t.trigger, src, from)
		if err != nil {
			return "", err
		}
		if m == nil {
			break
		}
		start, end := m.Index, m.Index+m.Length

		// The list must open on the trigger's last rune or right after it.
		spanStart, spanEnd, ok := ScanBalanced(src, max(end-1, start), t.open, t.close)
		if !ok || spanStart > end {
			from = resume(start, end)
			continue
		}

		args, err := t.arguments(src[spanStart:spanEnd])
		if err != nil {
			return "", err
		}
		expanded, err := t.template.Execute(args...)
		if err != nil {
			return "", err
		}

		out.WriteString(string(src[cursor:start]))
		out.WriteString(expanded)
		cursor = spanEnd
		from = spanEnd
	}

	if cursor == 0 {
		return text, nil
	}
	out.WriteString(string(src[cursor:]))
	return out.String(), nil
}

// arguments strips the span if configured and splits it on the separator.
func (t *ArgCall) arguments(span []rune) ([]string, error) {
	if t.strip {
		span = span[1 : len(span)-1]
	}
	return splitArgs(t.separator, span)
}

// splitArgs splits s around every separator match.
//
// Without any separator match the whole input is the single argument, even
// when it is empty. Otherwise trailing empty arguments are discarded, and an
// empty match at the very start never produces a leading empty argument.
// Nested delimiters are not taken into account.
func splitArgs(sep *regexp2.Regexp, s []rune) ([]string, error) {
	var parts []string
	last, from := 0, 0
	for {
		m, err := nextMatch(sep, s, from)
		if err != nil {
			return nil, err
		}
		if m == nil {
			break
		}
		start, end := m.Index, m.Index+m.Length
		if end == 0 {
			from = resume(start, end)
			continue
		}
		parts = append(parts, string(s[last:start]))
		last = end
		from = resume(start, end)
	}

	if parts == nil {
		return []string{string(s)}, nil
	}
	parts = append(parts, string(s[last:]))
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts, nil
}
