// Package transcript parses append-only JSONL session transcripts written
// by Claude Code into structured message records. Parsing is best-effort:
// lines that fail to decode, or whose shape is not a known record type, are
// skipped and parsing continues with the next line.
package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB, tool outputs can get large

// Message kinds.
const (
	KindText    = "text"
	KindToolUse = "tool_use"
)

// Message is one structured record extracted from a transcript line.
// A single raw line may expand into several messages (one per content
// block); they all share the line's UUID and timestamp and are told
// apart by Seq.
type Message struct {
	UUID       string
	Role       string // "user" or "assistant"
	Content    string
	Timestamp  string
	Seq        int // index among messages derived from the same raw line
	Kind       string
	ToolName   string
	ToolInput  string
	ToolOutput string
}

type record struct {
	Type      string          `json:"type"`
	UUID      string          `json:"uuid"`
	Timestamp string          `json:"timestamp"`
	SessionID string          `json:"sessionId"`
	Message   json.RawMessage `json:"message"`
}

type recordMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ParseFile reads a transcript and returns its messages in file order.
func ParseFile(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []Message

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		messages = append(messages, parseRecord(rec)...)
	}

	return messages, scanner.Err()
}

// parseRecord classifies a decoded line by its top-level type and expands
// it into zero or more messages. Only "user" and "assistant" records are
// processed; everything else is ignored.
func parseRecord(rec record) []Message {
	if rec.Type != "user" && rec.Type != "assistant" {
		return nil
	}

	var msg recordMessage
	if len(rec.Message) > 0 {
		// best effort, a missing or malformed message still yields the
		// empty-content user fallback below
		_ = json.Unmarshal(rec.Message, &msg)
	}

	var out []Message

	switch rec.Type {
	case "user":
		// user content is expected to be a plain string; anything else
		// defaults to empty
		var text string
		_ = json.Unmarshal(msg.Content, &text)
		out = append(out, Message{
			UUID:      rec.UUID,
			Role:      "user",
			Content:   text,
			Timestamp: rec.Timestamp,
			Kind:      KindText,
		})

	case "assistant":
		out = parseAssistantContent(rec, msg.Content)
	}

	for i := range out {
		out[i].Seq = i
	}
	return out
}

func parseAssistantContent(rec record, content json.RawMessage) []Message {
	var out []Message

	var rawBlocks []json.RawMessage
	if err := json.Unmarshal(content, &rawBlocks); err == nil {
		for _, raw := range rawBlocks {
			var b contentBlock
			if err := json.Unmarshal(raw, &b); err != nil {
				continue
			}
			switch b.Type {
			case "text":
				out = append(out, Message{
					UUID:      rec.UUID,
					Role:      "assistant",
					Content:   b.Text,
					Timestamp: rec.Timestamp,
					Kind:      KindText,
				})
			case "tool_use":
				out = append(out, Message{
					UUID:      rec.UUID,
					Role:      "assistant",
					Timestamp: rec.Timestamp,
					Kind:      KindToolUse,
					ToolName:  b.Name,
					ToolInput: stringifyInput(b.Input),
				})
			}
		}
		return out
	}

	// fallback: plain string content
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		out = append(out, Message{
			UUID:      rec.UUID,
			Role:      "assistant",
			Content:   text,
			Timestamp: rec.Timestamp,
			Kind:      KindText,
		})
	}
	return out
}

// stringifyInput flattens a tool_use input for storage and search. Objects
// are kept as compact JSON, string inputs are stored bare.
func stringifyInput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// SessionID scans a transcript for the first line carrying a sessionId
// field and returns its value. The scan stops at the first match; an empty
// string means no line in the file carries one (yet).
func SessionID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec struct {
			SessionID string `json:"sessionId"`
		}
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.SessionID != "" {
			return rec.SessionID, nil
		}
	}

	return "", scanner.Err()
}

// ProjectPath derives a project path from a transcript's location, assuming
// the .../projects/<encoded-path>/<file>.jsonl layout Claude Code uses. It
// returns "" when the layout does not match; callers fall back to another
// source (typically the file's parent directory).
func ProjectPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, p := range parts {
		if p != "projects" {
			continue
		}
		// need an encoded segment that is not the file itself
		if i+1 < len(parts)-1 {
			return parts[i+1]
		}
		return ""
	}
	return ""
}
