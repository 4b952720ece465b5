// Package manifest describes a generation run: the rules available to
// templates, the type tables (axes) that templates are specialized over, and
// the templates themselves.
//
// A manifest is written in TOML or YAML:
//
//	output_dir = "gen"
//
//	[[rule]]
//	name = "hash"
//	kind = "argcall"
//	pattern = 'HASH'
//	template = "%s.hashCode()"
//	strip = true
//
//	[[axis]]
//	name = "key"
//	  [[axis.type]]
//	  name = "Double"
//	  tokens = { "#k#" = "double", "#K#" = "Double" }
//
//	[[template]]
//	name = "hashset"
//	source = "THashSet.template"
//	output = "T#K#HashSet.java"
//	axes = ["key"]
//	rules = ["hash"]
//
// Each template is expanded once per variant, the cartesian product of its
// axes. A variant carries the tokens of every type it combines.
package manifest

import (
	"path/filepath"

	"github.com/matzehuels/primgen/pkg/transform"
)

// Manifest is a decoded generation manifest.
type Manifest struct {
	// OutputDir is where generated files are written. Relative paths are
	// resolved against Dir.
	OutputDir string `toml:"output_dir" yaml:"output_dir" json:"output_dir,omitempty"`

	Rules     []transform.Spec `toml:"rule" yaml:"rules" json:"rules"`
	Axes      []Axis           `toml:"axis" yaml:"axes" json:"axes"`
	Templates []Template       `toml:"template" yaml:"templates" json:"templates"`

	// Path is the file the manifest was loaded from, empty for Parse.
	Path string `toml:"-" yaml:"-" json:"-"`

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-" yaml:"-" json:"-"`
}

// Axis is a named table of types a template can be specialized over.
type Axis struct {
	Name  string `toml:"name" yaml:"name" json:"name"`
	Types []Type `toml:"type" yaml:"types" json:"types"`
}

// Type is one entry of an axis: a name used in variant names and the
// literal tokens it substitutes.
type Type struct {
	Name   string            `toml:"name" yaml:"name" json:"name"`
	Tokens map[string]string `toml:"tokens" yaml:"tokens" json:"tokens"`
}

// Template is one source file and how to expand it.
type Template struct {
	Name   string `toml:"name" yaml:"name" json:"name"`
	Source string `toml:"source" yaml:"source" json:"source"`

	// Output is the output file name pattern. Variant tokens are
	// substituted into it the same way they are into the text.
	Output string `toml:"output" yaml:"output" json:"output"`

	Axes  []string `toml:"axes" yaml:"axes" json:"axes,omitempty"`
	Rules []string `toml:"rules" yaml:"rules" json:"rules,omitempty"`

	// Skip lists variant names that are not generated.
	Skip []string `toml:"skip" yaml:"skip" json:"skip,omitempty"`
}

// Rule returns the rule spec called name.
func (m *Manifest) Rule(name string) (transform.Spec, bool) {
	for _, r := range m.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return transform.Spec{}, false
}

// Axis returns the axis called name.
func (m *Manifest) Axis(name string) (Axis, bool) {
	for _, a := range m.Axes {
		if a.Name == name {
			return a, true
		}
	}
	return Axis{}, false
}

// Template returns the template called name.
func (m *Manifest) Template(name string) (Template, bool) {
	for _, t := range m.Templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// Resolve makes a manifest-relative path usable from the working directory.
func (m *Manifest) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.Dir == "" {
		return path
	}
	return filepath.Join(m.Dir, filepath.FromSlash(path))
}

// SourcePath returns the resolved source file of t.
func (m *Manifest) SourcePath(t Template) string {
	return m.Resolve(t.Source)
}

// OutputPath returns the resolved output directory.
func (m *Manifest) OutputPath() string {
	if m.OutputDir == "" {
		return m.Resolve(".")
	}
	return m.Resolve(m.OutputDir)
}

// Chain builds the rule transformers of t in the order its rules are listed.
func (m *Manifest) Chain(t Template) (transform.Chain, error) {
	specs, err := m.RuleSpecs(t.Rules)
	if err != nil {
		return nil, err
	}
	return transform.BuildChain(specs)
}
