package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/primgen/pkg/cache"
	perrors "github.com/matzehuels/primgen/pkg/errors"
	"github.com/matzehuels/primgen/pkg/manifest"
	"github.com/matzehuels/primgen/pkg/observability"
	"github.com/matzehuels/primgen/pkg/transform"
)

const setTemplate = `package gen;

public class T#K#Set {
    #k#[] items; // #e# replaced
    int hash(#k# v) { return HASH(v); }
}
`

const testManifest = `
output_dir = "out"

[[rule]]
name = "line"
kind = "relocate"
pattern = "#e#"

[[rule]]
name = "hash"
kind = "argcall"
pattern = 'HASH'
template = "Hash.of(%s)"
strip = true

[[axis]]
name = "key"
  [[axis.type]]
  name = "Int"
  tokens = { "#k#" = "int", "#K#" = "Int" }
  [[axis.type]]
  name = "Long"
  tokens = { "#k#" = "long", "#K#" = "Long" }

[[template]]
name = "set"
source = "TSet.template"
output = "T#K#Set.java"
axes = ["key"]
rules = ["line", "hash"]

[[template]]
name = "readme"
source = "README.template"
output = "README.txt"
`

// setup writes the test manifest and its templates to a temp dir.
func setup(t *testing.T, manifestText string) *manifest.Manifest {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"primgen.toml":    manifestText,
		"TSet.template":   setTemplate,
		"README.template": "generated sets\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m, err := manifest.Load(filepath.Join(dir, "primgen.toml"))
	if err != nil {
		t.Fatalf("manifest.Load() error = %v", err)
	}
	return m
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"zero value", Options{}, false},
		{"explicit jobs", Options{Jobs: 4}, false},
		{"only", Options{Only: []string{"set", "map"}}, false},
		{"negative jobs", Options{Jobs: -1}, true},
		{"bad only name", Options{Only: []string{"a/b"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.opts.Jobs <= 0 {
				t.Errorf("defaults not applied: %+v", tt.opts)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()
	req := ExpandRequest{
		Text: "x = MAX(a,b); // #k#",
		Rules: []transform.Spec{
			{Name: "max", Kind: transform.KindArgCall, Pattern: "MAX", Template: "Math.max(%s, %s)", Strip: true},
		},
		Substitutions: map[string]string{"#k#": "int"},
	}

	out, cached, err := r.Expand(ctx, req)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if out != "x = Math.max(a, b); // int" || cached {
		t.Errorf("Expand() = %q, cached %v", out, cached)
	}

	out2, cached, err := r.Expand(ctx, req)
	if err != nil || !cached || out2 != out {
		t.Errorf("second Expand() = %q, cached %v, err %v; want cache hit", out2, cached, err)
	}

	req.Refresh = true
	if _, cached, _ := r.Expand(ctx, req); cached {
		t.Error("Refresh should bypass the cache")
	}

	req.Refresh = false
	req.Substitutions = map[string]string{"#k#": "long"}
	out3, cached, _ := r.Expand(ctx, req)
	if cached || !strings.HasSuffix(out3, "long") {
		t.Errorf("changed substitutions should miss: %q, cached %v", out3, cached)
	}
}

func TestExpandErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	_, _, err := r.Expand(ctx, ExpandRequest{
		Text:  "x",
		Rules: []transform.Spec{{Kind: transform.KindCapture, Pattern: "x", Template: "%s"}},
	})
	if !perrors.Is(err, perrors.ErrCodeInvalidCaptureGroups) {
		t.Errorf("bad rule error = %v", err)
	}

	_, _, err = r.Expand(ctx, ExpandRequest{
		Text:  "PAIR(a)",
		Rules: []transform.Spec{{Name: "pair", Kind: transform.KindArgCall, Pattern: "PAIR", Template: "%s%s", Strip: true}},
	})
	if !perrors.Is(err, perrors.ErrCodeArityMismatch) {
		t.Errorf("arity error = %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, _, err := r.Expand(cctx, ExpandRequest{Text: "x"}); err != context.Canceled {
		t.Errorf("cancelled Expand() error = %v, want context.Canceled", err)
	}
}

func TestGenerate(t *testing.T) {
	m := setup(t, testManifest)
	r := newFileRunner(t)

	result, err := r.Generate(context.Background(), m, Options{Jobs: 2})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var paths []string
	for _, f := range result.Files {
		paths = append(paths, f.Path)
	}
	if diff := cmp.Diff([]string{"README.txt", "TIntSet.java", "TLongSet.java"}, paths); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	got, err := os.ReadFile(filepath.Join(m.Dir, "out", "TLongSet.java"))
	if err != nil {
		t.Fatal(err)
	}
	want := `package gen;

public class TLongSet {
#e#
    int hash(long v) { return Hash.of(v); }
}
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("TLongSet.java mismatch (-want +got):\n%s", diff)
	}

	if result.Stats.Templates != 2 || result.Stats.Variants != 3 || result.Stats.Written != 3 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if result.RunID.String() == "" || result.OutputDir != filepath.Join(m.Dir, "out") {
		t.Errorf("RunID %v, OutputDir %q", result.RunID, result.OutputDir)
	}
}

func TestGenerateSecondRunIsCachedAndUnchanged(t *testing.T) {
	m := setup(t, testManifest)
	r := newFileRunner(t)
	ctx := context.Background()

	if _, err := r.Generate(ctx, m, Options{}); err != nil {
		t.Fatal(err)
	}
	result, err := r.Generate(ctx, m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.CacheHits != 3 || result.Stats.Unchanged != 3 || result.Stats.Written != 0 {
		t.Errorf("second run Stats = %+v", result.Stats)
	}
}

func TestGenerateDryRun(t *testing.T) {
	m := setup(t, testManifest)
	r := NewRunner(nil, nil, nil)

	result, err := r.Generate(context.Background(), m, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 3 || result.Stats.Written != 0 {
		t.Errorf("dry run Files %d, Stats %+v", len(result.Files), result.Stats)
	}
	for _, f := range result.Files {
		if !f.Changed {
			t.Errorf("%s should be reported as changed", f.Path)
		}
	}
	if _, err := os.Stat(filepath.Join(m.Dir, "out")); !os.IsNotExist(err) {
		t.Error("dry run should not create the output directory")
	}
}

func TestGenerateOnlyAndOutputDir(t *testing.T) {
	m := setup(t, testManifest)
	r := NewRunner(nil, nil, nil)
	out := t.TempDir()

	result, err := r.Generate(context.Background(), m, Options{Only: []string{"readme"}, OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 1 || result.Files[0].Template != "readme" {
		t.Errorf("Files = %+v", result.Files)
	}
	if _, err := os.Stat(filepath.Join(out, "README.txt")); err != nil {
		t.Errorf("README.txt not written to OutputDir: %v", err)
	}

	_, err = r.Generate(context.Background(), m, Options{Only: []string{"nope"}})
	if !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("unknown template error = %v, want %v", err, perrors.ErrCodeNotFound)
	}
}

func TestGenerateJobsDoNotChangeOutput(t *testing.T) {
	m := setup(t, testManifest)
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	serial, err := r.Generate(ctx, m, Options{Jobs: 1, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := r.Generate(ctx, m, Options{Jobs: 8, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(serial.Files, parallel.Files); diff != "" {
		t.Errorf("Jobs changed the result (-serial +parallel):\n%s", diff)
	}
}

func TestGenerateErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	t.Run("expansion error names template and variant", func(t *testing.T) {
		m := setup(t, strings.Replace(testManifest, `template = "Hash.of(%s)"`, `template = "Hash.of(%s, %s)"`, 1))
		_, err := r.Generate(ctx, m, Options{})
		if !perrors.Is(err, perrors.ErrCodeArityMismatch) {
			t.Fatalf("error = %v, want %v", err, perrors.ErrCodeArityMismatch)
		}
		if !strings.Contains(err.Error(), `template "set" variant`) {
			t.Errorf("error should name template and variant: %v", err)
		}
	})

	t.Run("duplicate output names", func(t *testing.T) {
		m := setup(t, strings.Replace(testManifest, `output = "T#K#Set.java"`, `output = "Set.java"`, 1))
		_, err := r.Generate(ctx, m, Options{})
		if !perrors.Is(err, perrors.ErrCodeInvalidManifest) {
			t.Errorf("error = %v, want %v", err, perrors.ErrCodeInvalidManifest)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		m := setup(t, testManifest)
		if err := os.Remove(filepath.Join(m.Dir, "TSet.template")); err != nil {
			t.Fatal(err)
		}
		_, err := r.Generate(ctx, m, Options{})
		if !perrors.Is(err, perrors.ErrCodeFileNotFound) {
			t.Errorf("error = %v, want %v", err, perrors.ErrCodeFileNotFound)
		}
	})
}

type countingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	expands, hits, misses, generates atomic.Int32
}

func (h *countingHooks) OnExpandComplete(context.Context, string, string, int, time.Duration, error) {
	h.expands.Add(1)
}
func (h *countingHooks) OnGenerateComplete(context.Context, string, int, time.Duration, error) {
	h.generates.Add(1)
}
func (h *countingHooks) OnCacheHit(context.Context, string)  { h.hits.Add(1) }
func (h *countingHooks) OnCacheMiss(context.Context, string) { h.misses.Add(1) }

func TestGenerateFiresHooks(t *testing.T) {
	defer observability.Reset()
	h := &countingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)

	m := setup(t, testManifest)
	r := newFileRunner(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := r.Generate(ctx, m, Options{}); err != nil {
			t.Fatal(err)
		}
	}

	if h.generates.Load() != 2 || h.expands.Load() != 3 || h.misses.Load() != 3 || h.hits.Load() != 3 {
		t.Errorf("hooks: generates %d, expands %d, misses %d, hits %d",
			h.generates.Load(), h.expands.Load(), h.misses.Load(), h.hits.Load())
	}
}

// The shipped example project must keep generating.
func TestGenerateExampleProject(t *testing.T) {
	m, err := manifest.Load(filepath.Join("..", "..", "examples", "collections", "primgen.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	outDir := t.TempDir()
	res, err := NewRunner(nil, nil, nil).Generate(context.Background(), m, Options{OutputDir: outDir, Jobs: 2})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var paths []string
	for _, f := range res.Files {
		paths = append(paths, f.Path)
	}
	if diff := cmp.Diff([]string{"TDoubleSet.java", "TIntSet.java", "TLongSet.java"}, paths); diff != "" {
		t.Errorf("generated files mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "TLongSet.java"))
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{
		"public final class TLongSet {",
		"private long[] items = new long[8];",
		"if (items[i] == value) {",
		"public boolean containsBoxed(Long value) {",
		"return contains(value.longValue());",
		"h += Long.hashCode(items[i]);",
		"    public boolean equals(Object o) {\n        return o instanceof TLongSet other && other.size == size;\n    }\n}\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("TLongSet.java missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "#") {
		t.Errorf("TLongSet.java has unexpanded tokens:\n%s", got)
	}
}
