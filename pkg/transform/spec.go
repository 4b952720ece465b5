package transform

import (
	perrors "github.com/matzehuels/primgen/pkg/errors"
)

// Spec is the serializable description of a transformer, as written in
// manifests and API requests. Fields that do not apply to Kind are ignored.
type Spec struct {
	Name       string `json:"name" toml:"name" yaml:"name"`
	Kind       Kind   `json:"kind" toml:"kind" yaml:"kind"`
	Pattern    string `json:"pattern" toml:"pattern" yaml:"pattern"`
	Template   string `json:"template,omitempty" toml:"template" yaml:"template,omitempty"`
	Delimiters string `json:"delimiters,omitempty" toml:"delimiters" yaml:"delimiters,omitempty"`
	Strip      bool   `json:"strip,omitempty" toml:"strip" yaml:"strip,omitempty"`
	Separator  string `json:"separator,omitempty" toml:"separator" yaml:"separator,omitempty"`
	Syntax     Syntax `json:"syntax,omitempty" toml:"syntax" yaml:"syntax,omitempty"`
}

// Build constructs the transformer described by s.
//
// For [KindRelocate] the pattern is the literal marker. For [KindReplace]
// the template is the replacement string with $-references, not a
// placeholder template.
func (s Spec) Build() (Transformer, error) {
	switch s.Kind {
	case KindArgCall:
		return NewArgCall(ArgCallConfig{
			Name:       s.Name,
			Pattern:    s.Pattern,
			Template:   s.Template,
			Delimiters: s.Delimiters,
			Strip:      s.Strip,
			Separator:  s.Separator,
			Syntax:     s.Syntax,
		})
	case KindCapture:
		return NewCapture(CaptureConfig{
			Name:       s.Name,
			Pattern:    s.Pattern,
			Template:   s.Template,
			Delimiters: s.Delimiters,
			Strip:      s.Strip,
			Syntax:     s.Syntax,
		})
	case KindRelocate:
		return NewRelocate(RelocateConfig{Name: s.Name, Literal: s.Pattern})
	case KindReplace:
		return NewReplace(ReplaceConfig{
			Name:        s.Name,
			Pattern:     s.Pattern,
			Replacement: s.Template,
			Syntax:      s.Syntax,
		})
	case "":
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "rule %q has no kind", s.Name)
	default:
		return nil, perrors.New(perrors.ErrCodeUnsupported,
			"rule %q has unknown kind %q (want argcall, capture, relocate or replace)", s.Name, s.Kind)
	}
}

// BuildChain builds every spec in order.
func BuildChain(specs []Spec) (Chain, error) {
	chain := make(Chain, 0, len(specs))
	for _, s := range specs {
		t, err := s.Build()
		if err != nil {
			return nil, err
		}
		chain = append(chain, t)
	}
	return chain, nil
}
