package manifest

import (
	"sort"
	"strings"
	"unicode/utf8"

	perrors "github.com/matzehuels/primgen/pkg/errors"
	"github.com/matzehuels/primgen/pkg/transform"
)

// Variant is one specialization of a template: one type from each of its
// axes.
type Variant struct {
	// Name concatenates the type names, e.g. "DoubleBoolean". It is empty for
	// templates without axes.
	Name string `json:"name"`

	// Types holds the chosen type name per axis, in axis order.
	Types []string `json:"types,omitempty"`

	// Tokens is the merged token table of all chosen types.
	Tokens map[string]string `json:"tokens,omitempty"`
}

// Substitution is one literal token replacement.
type Substitution struct {
	Token string
	Value string
}

// Variants enumerates the cartesian product of t's axes in declaration
// order, the first axis varying slowest. Variants named in t.Skip are left
// out.
func (m *Manifest) Variants(t Template) ([]Variant, error) {
	variants := []Variant{{Tokens: map[string]string{}}}
	for _, name := range t.Axes {
		a, ok := m.Axis(name)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeUnknownAxis, "template %q: unknown axis %q", t.Name, name)
		}

		next := make([]Variant, 0, len(variants)*len(a.Types))
		for _, v := range variants {
			for _, typ := range a.Types {
				next = append(next, v.with(typ))
			}
		}
		variants = next
	}

	skip := make(map[string]bool, len(t.Skip))
	for _, s := range t.Skip {
		skip[s] = true
	}
	out := variants[:0]
	for _, v := range variants {
		if !skip[v.Name] {
			out = append(out, v)
		}
	}
	return out, nil
}

// with returns a copy of v extended by typ.
func (v Variant) with(typ Type) Variant {
	tokens := make(map[string]string, len(v.Tokens)+len(typ.Tokens))
	for k, val := range v.Tokens {
		tokens[k] = val
	}
	for k, val := range typ.Tokens {
		tokens[k] = val
	}
	types := append(append([]string(nil), v.Types...), typ.Name)
	return Variant{
		Name:   v.Name + typ.Name,
		Types:  types,
		Tokens: tokens,
	}
}

// Substitutions returns the variant's token table, longest token first and
// ties ordered by token, so a token that is a prefix of another is applied
// after it.
func (v Variant) Substitutions() []Substitution {
	return SortSubstitutions(v.Tokens)
}

// SortSubstitutions orders a token table for application.
func SortSubstitutions(tokens map[string]string) []Substitution {
	subs := make([]Substitution, 0, len(tokens))
	for tok, val := range tokens {
		subs = append(subs, Substitution{Token: tok, Value: val})
	}
	sort.Slice(subs, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(subs[i].Token), utf8.RuneCountInString(subs[j].Token)
		if li != lj {
			return li > lj
		}
		return subs[i].Token < subs[j].Token
	})
	return subs
}

// SubstitutionChain turns substitutions into literal replace transformers.
func SubstitutionChain(subs []Substitution) (transform.Chain, error) {
	chain := make(transform.Chain, 0, len(subs))
	for _, s := range subs {
		r, err := transform.Literal("", s.Token, s.Value)
		if err != nil {
			return nil, err
		}
		chain = append(chain, r)
	}
	return chain, nil
}

// OutputName applies the variant's tokens to t's output pattern.
func (v Variant) OutputName(t Template) (string, error) {
	chain, err := SubstitutionChain(v.Substitutions())
	if err != nil {
		return "", err
	}
	name, err := chain.Apply(t.Output)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if err := perrors.ValidateOutputName(name); err != nil {
		return "", err
	}
	return name, nil
}
