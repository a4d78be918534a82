// Package ingest reconciles transcript files against the session catalog.
// Every change notification re-parses the whole file: transcripts are
// append-only but no offset is reliable across producer restarts, so the
// coordinator is driven to convergence from scratch on each invocation.
package ingest

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/scan"
	"github.com/getnexar/skynet/internal/transcript"
)

type Coordinator struct {
	store     *catalog.Store
	logger    *log.Logger
	observers *observerSet
}

func New(store *catalog.Store, logger *log.Logger) *Coordinator {
	return &Coordinator{
		store:     store,
		logger:    logger,
		observers: &observerSet{logger: logger},
	}
}

// OnSessionUpdate registers an observer. Observers are invoked after each
// successful reconciliation, in registration order.
func (c *Coordinator) OnSessionUpdate(fn Observer) {
	c.observers.add(fn)
}

// Reconcile re-derives catalog state from the transcript at path and
// notifies observers. A file with no discoverable session identifier is
// not ready yet; that is a no-op, retried on the next notification.
// Catalog failures abort only this invocation.
func (c *Coordinator) Reconcile(path string) error {
	sessionID, err := transcript.SessionID(path)
	if err != nil {
		return fmt.Errorf("session id %s: %w", path, err)
	}
	if sessionID == "" {
		return nil
	}

	existing, err := c.store.GetSession(sessionID)
	if err != nil {
		return fmt.Errorf("get session %s: %w", sessionID, err)
	}
	if existing == nil {
		projectPath := transcript.ProjectPath(path)
		if projectPath == "" {
			projectPath = filepath.Dir(path)
		}
		_, err := c.store.CreateSession(sessionID, projectPath, catalog.StatusActive)
		// a concurrent pass may have created it between the lookup and here
		if err != nil && !errors.Is(err, catalog.ErrSessionExists) {
			return fmt.Errorf("create session %s: %w", sessionID, err)
		}
	}

	messages, err := transcript.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, m := range messages {
		_, err := c.store.AppendMessage(catalog.Message{
			SessionID:  sessionID,
			Role:       m.Role,
			Content:    m.Content,
			UUID:       m.UUID,
			Timestamp:  m.Timestamp,
			Seq:        m.Seq,
			ToolName:   m.ToolName,
			ToolInput:  m.ToolInput,
			ToolOutput: m.ToolOutput,
		})
		if err != nil {
			return fmt.Errorf("append message %s: %w", sessionID, err)
		}
	}

	c.observers.publish(sessionID, messages)
	return nil
}

// HandleFileChange is the change-notifier callback. Reconciliation errors
// are logged and swallowed so that the watch loop never dies; the next
// notification for the file retries from scratch.
func (c *Coordinator) HandleFileChange(path string) {
	if err := c.Reconcile(path); err != nil {
		c.logger.Printf("reconcile %s: %v", path, err)
	}
}

type Stats struct {
	Scanned  int
	Ingested int
	Errors   int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d ingested=%d errors=%d", s.Scanned, s.Ingested, s.Errors)
}

// SeedExisting reconciles every transcript already on disk under root.
// Used once at startup and for on-demand full reconciliation passes.
func (c *Coordinator) SeedExisting(root string) (Stats, error) {
	var stats Stats

	files, err := scan.ListTranscripts(root)
	if err != nil {
		return stats, fmt.Errorf("scan %s: %w", root, err)
	}
	stats.Scanned = len(files)

	for _, f := range files {
		if err := c.Reconcile(f); err != nil {
			stats.Errors++
			c.logger.Printf("reconcile %s: %v", f, err)
			continue
		}
		stats.Ingested++
	}
	return stats, nil
}
