package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "pages.jsonl")
	if err := os.WriteFile(corpus, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher(corpus, func(path string) {
		if path != corpus {
			t.Errorf("callback path = %s", path)
		}
		calls.Add(1)
	}, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(corpus, []byte("{\"content\":\"x\"}\n"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("onChange was not called")
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("burst of writes should produce one callback, got %d", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "pages.jsonl")

	var calls atomic.Int32
	w := NewWatcher(corpus, func(string) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("changes to other files should be ignored")
	}

	// Creating the corpus later is picked up.
	if err := os.WriteFile(corpus, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return calls.Load() == 1 }) {
		t.Error("corpus creation should trigger a reload")
	}
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "pages.jsonl")
	var calls atomic.Int32
	w := NewWatcher(corpus, func(string) { calls.Add(1) }, WithDebounce(200*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(corpus, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()
	w.Stop()
	time.Sleep(400 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("no callback should run after Stop")
	}
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent", "pages.jsonl"), nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error for a missing directory")
	}
}
