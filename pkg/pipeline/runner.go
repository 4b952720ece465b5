package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/primgen/pkg/cache"
	perrors "github.com/matzehuels/primgen/pkg/errors"
	primio "github.com/matzehuels/primgen/pkg/io"
	"github.com/matzehuels/primgen/pkg/manifest"
	"github.com/matzehuels/primgen/pkg/observability"
	"github.com/matzehuels/primgen/pkg/transform"
)

// keyTypeExpansion labels expansion entries in cache hooks.
const keyTypeExpansion = "expansion"

// Runner encapsulates expansion with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can safely share one.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// compiled is a ready-to-run expansion: rule chain, token chain and the
// parts of the cache key that do not depend on the text.
type compiled struct {
	rules    transform.Chain
	tokens   transform.Chain
	rulesKey []string
	subs     map[string]string
}

func compile(specs []transform.Spec, subs map[string]string) (*compiled, error) {
	rules, err := transform.BuildChain(specs)
	if err != nil {
		return nil, err
	}
	tokens, err := manifest.SubstitutionChain(manifest.SortSubstitutions(subs))
	if err != nil {
		return nil, err
	}
	return &compiled{
		rules:    rules,
		tokens:   tokens,
		rulesKey: specKeys(specs),
		subs:     subs,
	}, nil
}

// specKeys encodes rule specs for cache keys.
func specKeys(specs []transform.Spec) []string {
	keys := make([]string, len(specs))
	for i, s := range specs {
		data, _ := json.Marshal(s)
		keys[i] = string(data)
	}
	return keys
}

// Expand applies req.Rules and then req.Substitutions to req.Text.
// It reports whether the result came from the cache.
func (r *Runner) Expand(ctx context.Context, req ExpandRequest) (string, bool, error) {
	c, err := compile(req.Rules, req.Substitutions)
	if err != nil {
		return "", false, err
	}
	return r.expand(ctx, req.Text, c, req.Refresh, req.Template, req.Variant)
}

func (r *Runner) expand(ctx context.Context, text string, c *compiled, refresh bool, tmpl, variant string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	key := r.Keyer.ExpansionKey(cache.HashString(text), cache.ExpansionKeyOpts{
		Rules:         c.rulesKey,
		Substitutions: c.subs,
	})

	if !refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		if err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyTypeExpansion)
			return string(data), true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeExpansion)
	}

	hooks := observability.Pipeline()
	hooks.OnExpandStart(ctx, tmpl, variant)
	start := time.Now()

	out, err := c.rules.Apply(text)
	if err == nil {
		out, err = c.tokens.Apply(out)
	}
	hooks.OnExpandComplete(ctx, tmpl, variant, len(out), time.Since(start), err)
	if err != nil {
		return "", false, err
	}

	setErr := cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, []byte(out), cache.TTLExpansion)
	})
	if setErr != nil {
		r.Logger.Warn("cache write failed", "err", setErr)
	} else {
		observability.Cache().OnCacheSet(ctx, keyTypeExpansion, len(out))
	}
	return out, false, nil
}

// job is one variant waiting to be expanded.
type job struct {
	template string
	variant  manifest.Variant
	text     string
	path     string
	c        *compiled
}

// Generate expands every selected template of m and writes the results.
//
// The first failing variant cancels the rest of the run; its error names
// the template and variant.
func (r *Runner) Generate(ctx context.Context, m *manifest.Manifest, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()

	templates, err := selectTemplates(m, opts.Only)
	if err != nil {
		return nil, err
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = m.OutputPath()
	}
	result := &Result{
		RunID:     uuid.New(),
		Manifest:  m.Path,
		OutputDir: outDir,
		DryRun:    opts.DryRun,
	}

	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, m.Path, len(templates))
	r.Logger.Debug("generate", "run", result.RunID, "templates", len(templates), "jobs", opts.Jobs)

	jobs, err := r.plan(m, templates)
	if err == nil {
		result.Files, err = r.run(ctx, jobs, outDir, opts)
	}
	result.Stats.Duration = time.Since(start)
	hooks.OnGenerateComplete(ctx, m.Path, len(result.Files), result.Stats.Duration, err)
	if err != nil {
		return nil, err
	}

	result.Stats.Templates = len(templates)
	result.Stats.Variants = len(jobs)
	for _, f := range result.Files {
		if f.Cached {
			result.Stats.CacheHits++
		}
		switch {
		case opts.DryRun:
		case f.Changed:
			result.Stats.Written++
		default:
			result.Stats.Unchanged++
		}
	}

	r.Logger.Info("generated",
		"templates", result.Stats.Templates,
		"files", len(result.Files),
		"written", result.Stats.Written,
		"cached", result.Stats.CacheHits,
		"duration", result.Stats.Duration)
	return result, nil
}

// selectTemplates applies the Only filter, keeping manifest order.
func selectTemplates(m *manifest.Manifest, only []string) ([]manifest.Template, error) {
	if len(only) == 0 {
		return m.Templates, nil
	}
	selected := make([]manifest.Template, 0, len(only))
	for _, name := range only {
		if _, ok := m.Template(name); !ok {
			return nil, perrors.New(perrors.ErrCodeNotFound, "unknown template %q", name)
		}
	}
	want := make(map[string]bool, len(only))
	for _, name := range only {
		want[name] = true
	}
	for _, t := range m.Templates {
		if want[t.Name] {
			selected = append(selected, t)
		}
	}
	return selected, nil
}

// plan reads sources, builds chains and resolves output names. Two variants
// resolving to the same output name is a manifest error.
func (r *Runner) plan(m *manifest.Manifest, templates []manifest.Template) ([]job, error) {
	var jobs []job
	owners := make(map[string]string)

	for _, t := range templates {
		text, err := primio.ReadTemplate(m.SourcePath(t))
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		specs, err := m.RuleSpecs(t.Rules)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		variants, err := m.Variants(t)
		if err != nil {
			return nil, err
		}

		for _, v := range variants {
			path, err := v.OutputName(t)
			if err != nil {
				return nil, fmt.Errorf("template %q variant %q: %w", t.Name, v.Name, err)
			}
			label := t.Name + "/" + v.Name
			if prev, ok := owners[path]; ok {
				return nil, perrors.New(perrors.ErrCodeInvalidManifest,
					"%s and %s both write %s", prev, label, path)
			}
			owners[path] = label

			c, err := compile(specs, v.Tokens)
			if err != nil {
				return nil, fmt.Errorf("template %q variant %q: %w", t.Name, v.Name, err)
			}
			jobs = append(jobs, job{template: t.Name, variant: v, text: text, path: path, c: c})
		}
	}
	return jobs, nil
}

// run expands jobs on a bounded worker pool and returns files sorted by
// path.
func (r *Runner) run(ctx context.Context, jobs []job, outDir string, opts Options) ([]File, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)

	var (
		mu    sync.Mutex
		files = make([]File, 0, len(jobs))
	)
	for _, j := range jobs {
		j := j // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			out, cached, err := r.expand(gctx, j.text, j.c, opts.Refresh, j.template, j.variant.Name)
			if err != nil {
				return fmt.Errorf("template %q variant %q: %w", j.template, j.variant.Name, err)
			}

			dest := filepath.Join(outDir, filepath.FromSlash(j.path))
			changed, err := r.emit(dest, []byte(out), opts.DryRun)
			if err != nil {
				return err
			}
			r.Logger.Debug("expanded", "template", j.template, "variant", j.variant.Name,
				"path", j.path, "cached", cached, "changed", changed)

			mu.Lock()
			files = append(files, File{
				Template: j.template,
				Variant:  j.variant.Name,
				Path:     j.path,
				Size:     len(out),
				Cached:   cached,
				Changed:  changed,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, k int) bool { return files[i].Path < files[k].Path })
	return files, nil
}

// emit writes data to dest, or in a dry run reports whether it would change.
func (r *Runner) emit(dest string, data []byte, dryRun bool) (bool, error) {
	if !dryRun {
		return primio.WriteFile(dest, data)
	}
	existing, err := os.ReadFile(dest)
	if err != nil {
		return true, nil
	}
	return string(existing) != string(data), nil
}
