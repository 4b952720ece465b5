package manifest

import (
	"fmt"
	"path/filepath"

	perrors "github.com/matzehuels/primgen/pkg/errors"
	"github.com/matzehuels/primgen/pkg/transform"
)

// Validate checks names, references and paths, and builds every rule once so
// bad patterns and templates are reported before anything is generated.
func (m *Manifest) Validate() error {
	if m.OutputDir != "" && !filepath.IsAbs(m.OutputDir) {
		if err := perrors.ValidatePath(m.OutputDir); err != nil {
			return fmt.Errorf("output_dir: %w", err)
		}
	}
	if err := m.validateRules(); err != nil {
		return err
	}
	if err := m.validateAxes(); err != nil {
		return err
	}
	return m.validateTemplates()
}

func (m *Manifest) validateRules() error {
	seen := make(map[string]bool, len(m.Rules))
	for i, r := range m.Rules {
		if err := perrors.ValidateName("rule", r.Name); err != nil {
			return fmt.Errorf("rule #%d: %w", i+1, err)
		}
		if seen[r.Name] {
			return perrors.New(perrors.ErrCodeInvalidManifest, "duplicate rule %q", r.Name)
		}
		seen[r.Name] = true

		if _, err := r.Build(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return nil
}

func (m *Manifest) validateAxes() error {
	seen := make(map[string]bool, len(m.Axes))
	for _, a := range m.Axes {
		if err := perrors.ValidateName("axis", a.Name); err != nil {
			return err
		}
		if seen[a.Name] {
			return perrors.New(perrors.ErrCodeInvalidManifest, "duplicate axis %q", a.Name)
		}
		seen[a.Name] = true

		if len(a.Types) == 0 {
			return perrors.New(perrors.ErrCodeInvalidManifest, "axis %q has no types", a.Name)
		}
		types := make(map[string]bool, len(a.Types))
		for _, typ := range a.Types {
			if err := perrors.ValidateName("type", typ.Name); err != nil {
				return fmt.Errorf("axis %q: %w", a.Name, err)
			}
			if types[typ.Name] {
				return perrors.New(perrors.ErrCodeInvalidManifest, "axis %q: duplicate type %q", a.Name, typ.Name)
			}
			types[typ.Name] = true
			if _, ok := typ.Tokens[""]; ok {
				return perrors.New(perrors.ErrCodeInvalidManifest, "axis %q type %q: empty token", a.Name, typ.Name)
			}
		}
	}
	return nil
}

func (m *Manifest) validateTemplates() error {
	seen := make(map[string]bool, len(m.Templates))
	for _, t := range m.Templates {
		if err := perrors.ValidateName("template", t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return perrors.New(perrors.ErrCodeInvalidManifest, "duplicate template %q", t.Name)
		}
		seen[t.Name] = true

		if err := perrors.ValidatePath(t.Source); err != nil {
			return fmt.Errorf("template %q source: %w", t.Name, err)
		}
		if t.Output == "" {
			return perrors.New(perrors.ErrCodeInvalidManifest, "template %q has no output pattern", t.Name)
		}
		if _, err := m.RuleSpecs(t.Rules); err != nil {
			return fmt.Errorf("template %q: %w", t.Name, err)
		}
		if err := m.checkAxes(t); err != nil {
			return fmt.Errorf("template %q: %w", t.Name, err)
		}
	}
	return nil
}

// checkAxes verifies axis references and that no token is claimed by two
// axes of the same template.
func (m *Manifest) checkAxes(t Template) error {
	owner := make(map[string]string)
	used := make(map[string]bool, len(t.Axes))
	for _, name := range t.Axes {
		a, ok := m.Axis(name)
		if !ok {
			return perrors.New(perrors.ErrCodeUnknownAxis, "unknown axis %q", name)
		}
		if used[name] {
			return perrors.New(perrors.ErrCodeInvalidManifest, "axis %q listed twice", name)
		}
		used[name] = true

		for _, typ := range a.Types {
			for tok := range typ.Tokens {
				if prev, ok := owner[tok]; ok && prev != name {
					return perrors.New(perrors.ErrCodeInvalidManifest,
						"token %q is defined by both axis %q and axis %q", tok, prev, name)
				}
				owner[tok] = name
			}
		}
	}
	return nil
}

// RuleSpecs looks up rules by name, preserving order.
func (m *Manifest) RuleSpecs(names []string) ([]transform.Spec, error) {
	specs := make([]transform.Spec, 0, len(names))
	for _, name := range names {
		r, ok := m.Rule(name)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeUnknownRule, "unknown rule %q", name)
		}
		specs = append(specs, r)
	}
	return specs, nil
}
