package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

func TestFilterRelevant(t *testing.T) {
	f := newFilter([]string{"/src/gen"})
	f.trees = []string{"/src"}
	f.files["/etc/primgen.toml"] = true

	tests := []struct {
		name string
		evt  fsnotify.Event
		want bool
	}{
		{"empty name", fsnotify.Event{Name: "", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: "/src/T.template", Op: fsnotify.Chmod}, false},
		{"dot file", fsnotify.Event{Name: "/src/.T.template.swp", Op: fsnotify.Write}, false},
		{"ignored dir", fsnotify.Event{Name: "/src/gen/TIntSet.java", Op: fsnotify.Write}, false},
		{"outside tree", fsnotify.Event{Name: "/other/T.template", Op: fsnotify.Write}, false},
		{"sibling of watched file", fsnotify.Event{Name: "/etc/passwd", Op: fsnotify.Write}, false},
		{"template write", fsnotify.Event{Name: "/src/T.template", Op: fsnotify.Write}, true},
		{"nested create", fsnotify.Event{Name: "/src/maps/T.template", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "/src/T.template", Op: fsnotify.Remove}, true},
		{"watched file rename", fsnotify.Event{Name: "/etc/primgen.toml", Op: fsnotify.Rename}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.relevant(tt.evt); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.evt, got, tt.want)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	if !within("/a", "/a") || !within("/a", "/a/b/c") {
		t.Error("within should include the root and its descendants")
	}
	if within("/a", "/ab") || within("/a/b", "/a") {
		t.Error("within should exclude siblings and parents")
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{dir}, Options{
			Debounce: 100 * time.Millisecond,
			Logger:   log.New(io.Discard),
		}, func(changed []string) { calls <- changed })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	a := filepath.Join(dir, "A.template")
	b := filepath.Join(dir, "B.template")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(a, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(b, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-calls:
		if len(changed) != 2 || changed[0] != a || changed[1] != b {
			t.Errorf("changed = %v, want [%s %s]", changed, a, b)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fn was not called")
	}

	select {
	case extra := <-calls:
		t.Errorf("one burst should call fn once, got extra call %v", extra)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchMissingPath(t *testing.T) {
	err := Watch(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, Options{}, func([]string) {})
	if err == nil {
		t.Error("Watch on a missing path should fail")
	}
}
