// Package pipeline expands templates into type-specialized source files.
//
// This package implements the read → transform → substitute → write pipeline
// shared by the CLI, the HTTP API and watch mode, so every entry point caches,
// names and reports generated files the same way.
//
// # Architecture
//
// For every template selected from a manifest the pipeline:
//
//  1. Reads the template source
//  2. Enumerates the variants of the template's axes
//  3. Runs the template's rule chain, then the variant's token table, over the
//     text (cached by content hash)
//  4. Writes the result to the variant's output name, skipping unchanged files
//
// Variants are expanded concurrently, bounded by [Options.Jobs].
//
// # Usage
//
// Create a Runner and generate a manifest:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Generate(ctx, m, pipeline.Options{Jobs: 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.Written, "files written")
//
// Expand a single text:
//
//	out, cached, err := runner.Expand(ctx, pipeline.ExpandRequest{
//	    Text:          src,
//	    Rules:         specs,
//	    Substitutions: map[string]string{"#k#": "int"},
//	})
package pipeline

import (
	"runtime"
	"time"

	"github.com/google/uuid"

	perrors "github.com/matzehuels/primgen/pkg/errors"
	"github.com/matzehuels/primgen/pkg/transform"
)

// =============================================================================
// Options - Generation Configuration
// =============================================================================

// Options configures one Generate call. CLI flags and API requests map onto
// it directly.
type Options struct {
	// OutputDir overrides the manifest's output_dir.
	OutputDir string `json:"output_dir,omitempty"`

	// Jobs bounds how many variants are expanded at once.
	// Zero means runtime.NumCPU().
	Jobs int `json:"jobs,omitempty"`

	// DryRun expands and reports without writing files.
	DryRun bool `json:"dry_run,omitempty"`

	// Refresh ignores cached expansions (results are still stored).
	Refresh bool `json:"refresh,omitempty"`

	// Only restricts generation to the named templates.
	Only []string `json:"only,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// SetDefaults fills in zero values.
func (o *Options) SetDefaults() {
	if o.Jobs == 0 {
		o.Jobs = runtime.NumCPU()
	}
}

// Validate checks option values.
func (o *Options) Validate() error {
	if o.Jobs < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "jobs must be positive, got %d", o.Jobs)
	}
	for _, name := range o.Only {
		if err := perrors.ValidateName("template", name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Validate(); err != nil {
		return err
	}
	o.SetDefaults()
	o.validated = true
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result describes one Generate run.
type Result struct {
	RunID     uuid.UUID `json:"run_id"`
	Manifest  string    `json:"manifest,omitempty"`
	OutputDir string    `json:"output_dir"`
	DryRun    bool      `json:"dry_run,omitempty"`
	Files     []File    `json:"files"`
	Stats     Stats     `json:"stats"`
}

// File is one generated output.
type File struct {
	Template string `json:"template"`
	Variant  string `json:"variant,omitempty"`

	// Path is relative to the output directory, with forward slashes.
	Path string `json:"path"`

	Size    int  `json:"size"`
	Cached  bool `json:"cached"`
	Changed bool `json:"changed"`
}

// Stats summarizes a run.
type Stats struct {
	Templates int           `json:"templates"`
	Variants  int           `json:"variants"`
	CacheHits int           `json:"cache_hits"`
	Written   int           `json:"written"`
	Unchanged int           `json:"unchanged"`
	Duration  time.Duration `json:"duration_ns"`
}

// ExpandRequest is the input of [Runner.Expand].
type ExpandRequest struct {
	Text          string
	Rules         []transform.Spec
	Substitutions map[string]string

	// Refresh skips the cache lookup.
	Refresh bool

	// Template and Variant label the expansion in hooks and errors.
	Template string
	Variant  string
}
