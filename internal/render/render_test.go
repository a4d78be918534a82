package render

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/getnexar/skynet/internal/catalog"
)

func TestRenderSession(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "skynet.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.CreateSession("s1", "/proj", catalog.StatusActive); err != nil {
		t.Fatal(err)
	}
	for _, m := range []catalog.Message{
		{SessionID: "s1", Role: "user", Content: "hello there", UUID: "m1", Timestamp: "t1"},
		{SessionID: "s1", Role: "assistant", UUID: "m2", Seq: 0, Timestamp: "t2",
			ToolName: "Bash", ToolInput: `{"command":"ls"}`},
	} {
		if _, err := store.AppendMessage(m); err != nil {
			t.Fatal(err)
		}
	}

	out, err := RenderSession(store, "s1", Options{Width: 80})
	if err != nil {
		t.Fatalf("RenderSession failed: %v", err)
	}

	for _, want := range []string{"s1", "/proj", "hello there", "Bash", "ls"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderSession_NotFound(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "skynet.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := RenderSession(store, "missing", Options{}); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestWrapLine(t *testing.T) {
	lines := wrapLine("abcdef", 3)
	if len(lines) != 2 || lines[0] != "abc" || lines[1] != "def" {
		t.Errorf("wrapLine = %v", lines)
	}

	// no wrap when width is zero
	lines = wrapLine("abcdef", 0)
	if len(lines) != 1 || lines[0] != "abcdef" {
		t.Errorf("wrapLine = %v", lines)
	}

	// double-width runes count as two columns
	lines = wrapLine("你好你", 4)
	if len(lines) != 2 || lines[0] != "你好" {
		t.Errorf("wrapLine = %v", lines)
	}
}
