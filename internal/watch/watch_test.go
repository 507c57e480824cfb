package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects invalidated spec paths.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) Invalidate(specPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, specPath)
}

func (r *recorder) has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths {
		if p == path {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, root string, rec *recorder) (*Watcher, context.CancelFunc) {
	t.Helper()
	w, err := New(root, rec, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})
	return w, cancel
}

func TestWatcherInvalidatesOnMaturityChange(t *testing.T) {
	root := t.TempDir()
	feature := filepath.Join(root, "001-cart")
	require.NoError(t, os.MkdirAll(feature, 0o755))

	rec := &recorder{}
	startWatcher(t, root, rec)

	require.NoError(t, os.WriteFile(filepath.Join(feature, "maturity.json"), []byte("{}"), 0o644))

	spec := filepath.Join(feature, "spec.md")
	assert.Eventually(t, func() bool { return rec.has(spec) }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherWatchesNewFeatureDirectories(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	w, _ := startWatcher(t, root, rec)

	feature := filepath.Join(root, "002-checkout")
	require.NoError(t, os.MkdirAll(feature, 0o755))
	require.Eventually(t, func() bool {
		for _, p := range w.WatchList() {
			if p == feature {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(feature, "maturity.md"), []byte("## US1\n"), 0o644))
	assert.Eventually(t, func() bool {
		return rec.has(filepath.Join(feature, "spec.md"))
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherReportsSpecChanges(t *testing.T) {
	root := t.TempDir()
	feature := filepath.Join(root, "001-cart")
	require.NoError(t, os.MkdirAll(feature, 0o755))

	rec := &recorder{}
	w, _ := startWatcher(t, root, rec)

	spec := filepath.Join(feature, "spec.md")
	require.NoError(t, os.WriteFile(spec, []byte("# Cart\n"), 0o644))

	select {
	case e := <-w.Events():
		assert.Equal(t, spec, e.Path)
		assert.Equal(t, KindSpec, e.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for spec change")
	}
	assert.False(t, rec.has(spec), "spec edits do not invalidate maturity records")
}

func TestWatcherStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, &recorder{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	_, open := <-w.Events()
	assert.False(t, open)
}
