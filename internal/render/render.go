// Package render formats a cataloged session for terminal output.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/getnexar/skynet/internal/catalog"
)

const (
	colorReset  = "\033[0m"
	colorUser   = "\033[1;34m" // bold blue
	colorAssist = "\033[1;32m" // bold green
	colorTool   = "\033[2;33m" // dim yellow for tool calls
	colorDim    = "\033[2m"
)

type Options struct {
	Width int // wrap width (0 = no wrap)
	Limit int // max messages (0 = store default)
}

// RenderSession formats a session header followed by its messages in
// timestamp order.
func RenderSession(store *catalog.Store, sessionID string, opts Options) (string, error) {
	session, err := store.GetSession(sessionID)
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return "", fmt.Errorf("session not found: %s", sessionID)
	}

	messages, err := store.ListMessages(sessionID, opts.Limit)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s%s%s  %s[%s]%s\n", colorDim, session.SessionID, colorReset,
		colorDim, session.Status, colorReset)
	fmt.Fprintf(&b, "%s%s · updated %s%s\n\n", colorDim, session.ProjectPath,
		session.UpdatedAt, colorReset)

	for _, m := range messages {
		b.WriteString(renderMessage(m, opts.Width))
		b.WriteString("\n")
	}

	return b.String(), nil
}

func renderMessage(m catalog.Message, width int) string {
	var b strings.Builder

	header := colorUser + "user" + colorReset
	if m.Role == "assistant" {
		header = colorAssist + "assistant" + colorReset
	}
	fmt.Fprintf(&b, "%s %s%s%s\n", header, colorDim, m.Timestamp, colorReset)

	if m.ToolName != "" {
		input := m.ToolInput
		if len(input) > 200 {
			input = input[:200] + "..."
		}
		fmt.Fprintf(&b, "  %s⚙ %s %s%s\n", colorTool, m.ToolName, input, colorReset)
		return b.String()
	}

	for _, line := range strings.Split(m.Content, "\n") {
		for _, wrapped := range wrapLine(line, width-2) {
			b.WriteString("  " + wrapped + "\n")
		}
	}
	return b.String()
}

// wrapLine breaks a single line into lines that fit within maxWidth visible
// columns, measured with runewidth so double-width characters count as two.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	result = append(result, cur.String())
	return result
}
