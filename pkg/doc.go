// Package pkg provides the libraries behind primgen, a generator that turns
// generic source templates into type-specialized files.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [transform] - Structural text rewriting (argument calls, capture
//     injection, line relocation, global replace) and chain composition
//  2. [manifest] - Rules, type axes and templates, loaded from TOML or YAML
//  3. [pipeline] - Orchestration (read → rewrite → substitute → write)
//  4. [cache] - Expansion cache backends (file, Redis, MongoDB)
//  5. [server] - HTTP expansion API
//  6. [watch] - Regeneration on file changes
//
// # Architecture
//
// The data flow for one generation run:
//
//	primgen.toml
//	     ↓
//	[manifest] package (templates × axis types = variants)
//	     ↓
//	[pipeline] package (per variant, cached)
//	     ↓
//	[transform] rule chain, then token substitution
//	     ↓
//	generated source files
//
// # Quick Start
//
// Expand a template with an inline rule and one substitution:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/primgen/pkg/pipeline"
//	    "github.com/matzehuels/primgen/pkg/transform"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	out, _, err := runner.Expand(context.Background(), pipeline.ExpandRequest{
//	    Text: "#k# h = HASH(key);",
//	    Rules: []transform.Spec{{
//	        Kind:     transform.KindArgCall,
//	        Pattern:  "HASH",
//	        Template: "%s.hashCode()",
//	        Strip:    true,
//	    }},
//	    Substitutions: map[string]string{"#k#": "int"},
//	})
//	// out == "int h = key.hashCode();"
//
// Or generate everything a manifest describes:
//
//	m, err := manifest.Load("primgen.toml")
//	res, err := runner.Generate(ctx, m, pipeline.Options{})
//
// # Error Handling
//
// Errors carry codes from [errors] so callers can tell configuration
// mistakes (INVALID_PATTERN, ARITY_MISMATCH, UNKNOWN_RULE, ...) from I/O
// failures:
//
//	if errors.Is(err, errors.ErrCodeArityMismatch) { ... }
//
// # Observability
//
// [observability] exposes hooks for generation, cache and HTTP events.
// The CLI installs logging hooks with --verbose.
package pkg
