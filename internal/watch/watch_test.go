package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) record(changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, changed)
}

func (r *recorder) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if slices.Contains(c, path) {
			return true
		}
	}
	return false
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, root string, rec *recorder) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go Watch(ctx, root, HasExt(".sy"), 50*time.Millisecond, logger, rec.record)
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_NewFile(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatch(t, root, rec)

	_ = os.WriteFile(filepath.Join(root, "new.sy"), []byte("{}"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("new.sy")
	}, "new file not reported")
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatch(t, root, rec)

	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("unexpected callbacks: %v", rec.calls)
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatch(t, root, rec)

	sub := filepath.Join(root, "box")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.sy"), []byte("{}"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("box/deep.sy")
	}, "file in new subdir not reported")
}

func TestWatch_DebouncesBurst(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatch(t, root, rec)

	for _, name := range []string{"a.sy", "b.sy", "c.sy"} {
		_ = os.WriteFile(filepath.Join(root, name), []byte("{}"), 0o644)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("a.sy") && rec.seen("b.sy") && rec.seen("c.sy")
	}, "burst not reported")
	if n := rec.count(); n > 2 {
		t.Errorf("burst produced %d callbacks, want it coalesced", n)
	}
}

func TestWatch_Remove(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.sy")
	_ = os.WriteFile(path, []byte("{}"), 0o644)

	rec := &recorder{}
	startWatch(t, root, rec)
	_ = os.Remove(path)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("gone.sy")
	}, "removal not reported")
}

func TestHasExt(t *testing.T) {
	m := HasExt(".sy", ".png")
	if !m("a/b.sy") || !m("assets/x.png") || m("readme.md") {
		t.Error("HasExt matched incorrectly")
	}
}
