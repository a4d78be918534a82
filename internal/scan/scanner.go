// Package scan enumerates transcript files under a projects root.
package scan

import (
	"os"
	"path/filepath"
	"strings"
)

// TranscriptExt is the file extension transcripts are written with.
const TranscriptExt = ".jsonl"

// excludeMarker names the directory used for nested agent transcripts,
// which are not sessions of their own.
const excludeMarker = "subagents"

// ListTranscripts returns every transcript file one level below a project
// subdirectory of root. Paths containing the subagents marker are skipped,
// as are non-directory entries at the project level.
func ListTranscripts(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		sub, err := os.ReadDir(dir)
		if err != nil {
			continue // project dir vanished or unreadable, skip
		}
		for _, f := range sub {
			if f.IsDir() {
				continue
			}
			if filepath.Ext(f.Name()) != TranscriptExt {
				continue
			}
			path := filepath.Join(dir, f.Name())
			if containsMarker(path) {
				continue
			}
			files = append(files, path)
		}
	}
	return files, nil
}

func containsMarker(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == excludeMarker {
			return true
		}
	}
	return false
}
