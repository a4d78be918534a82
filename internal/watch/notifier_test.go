package watch

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
			// bursts of events for other paths are expected, keep draining
		case <-deadline:
			t.Fatalf("no notification for %s", want)
		}
	}
}

func TestNotifier_DeliversWrites(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "-home-u-repo")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 64)
	n := New(root, func(path string) { changed <- path }, testLogger())
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer n.Stop()

	path := filepath.Join(project, "s1.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, path)
}

func TestNotifier_IgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()

	changed := make(chan string, 64)
	n := New(root, func(path string) { changed <- path }, testLogger())
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer n.Stop()

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changed:
		t.Fatalf("unexpected notification for %s", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNotifier_PicksUpNewProjectDirs(t *testing.T) {
	root := t.TempDir()

	changed := make(chan string, 64)
	n := New(root, func(path string) { changed <- path }, testLogger())
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer n.Stop()

	// directory created after Start
	project := filepath.Join(root, "-new-project")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatal(err)
	}
	// give the watcher a moment to pick up the new directory
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(project, "s1.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, path)
}

func TestNotifier_StopIsIdempotentAndBounded(t *testing.T) {
	root := t.TempDir()

	n := New(root, func(string) {}, testLogger())
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		n.Stop()
		n.Stop() // second stop is a no-op
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return")
	}
}
