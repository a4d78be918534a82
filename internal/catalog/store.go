// Package catalog is the durable store of sessions and their messages,
// backed by SQLite.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Session statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// ErrSessionExists is returned by CreateSession when the identifier is
// already present in the catalog.
var ErrSessionExists = errors.New("session already exists")

type Session struct {
	ID          int64
	SessionID   string
	ProjectPath string
	Status      string
	CreatedAt   string
	UpdatedAt   string
}

type Message struct {
	ID         int64
	SessionID  string
	Role       string
	Content    string
	UUID       string
	Timestamp  string
	Seq        int
	ToolName   string
	ToolInput  string
	ToolOutput string
}

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS sessions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   TEXT NOT NULL UNIQUE,
    project_path TEXT NOT NULL,
    status       TEXT NOT NULL,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   TEXT NOT NULL,
    role         TEXT NOT NULL,
    content      TEXT NOT NULL DEFAULT '',
    message_uuid TEXT NOT NULL,
    seq          INTEGER NOT NULL DEFAULT 0,
    ts           TEXT NOT NULL DEFAULT '',
    tool_name    TEXT NOT NULL DEFAULT '',
    tool_input   TEXT NOT NULL DEFAULT '',
    tool_output  TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (session_id) REFERENCES sessions (session_id)
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions (status);
CREATE INDEX IF NOT EXISTS idx_messages_session_ts ON messages (session_id, ts);

-- a transcript is re-parsed in full on every change event, so appends must
-- be idempotent on the (session, source uuid, block index) identity
CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_identity
ON messages (session_id, message_uuid, seq);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    content=messages,
    content_rowid=id,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.id, old.content);
END;
`

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Raw() *sql.DB {
	return s.db
}

// now returns the current UTC time in the same ISO-8601 form the transcript
// producer uses, so session and message timestamps sort together.
func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// CreateSession inserts a new session. It fails with ErrSessionExists when
// the identifier is already cataloged.
func (s *Store) CreateSession(sessionID, projectPath, status string) (*Session, error) {
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO sessions (session_id, project_path, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, projectPath, status, ts, ts,
	)
	if err != nil {
		if existing, lookupErr := s.GetSession(sessionID); lookupErr == nil && existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:          id,
		SessionID:   sessionID,
		ProjectPath: projectPath,
		Status:      status,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// GetSession returns the session with the given identifier, or nil when it
// is not cataloged.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	var sess Session
	err := s.db.QueryRow(
		`SELECT id, session_id, project_path, status, created_at, updated_at
		 FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&sess.ID, &sess.SessionID, &sess.ProjectPath, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns sessions newest-first, optionally filtered by status.
func (s *Store) ListSessions(status string) ([]Session, error) {
	query := `SELECT id, session_id, project_path, status, created_at, updated_at
	          FROM sessions ORDER BY created_at DESC`
	args := []interface{}{}
	if status != "" {
		query = `SELECT id, session_id, project_path, status, created_at, updated_at
		         FROM sessions WHERE status = ? ORDER BY created_at DESC`
		args = append(args, status)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.SessionID, &sess.ProjectPath, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateSessionStatus sets a session's status and bumps its updated_at.
// It returns nil when the session is not cataloged.
func (s *Store) UpdateSessionStatus(sessionID, status string) (*Session, error) {
	res, err := s.db.Exec(
		`UPDATE sessions SET status = ?, updated_at = ? WHERE session_id = ?`,
		status, now(), sessionID,
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetSession(sessionID)
}

// AppendMessage inserts a message. Re-appending a message with the same
// (session, uuid, seq) identity is a no-op that returns the stored row, so
// repeated reconciliation of an unchanged file accumulates nothing.
func (s *Store) AppendMessage(m Message) (*Message, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO messages
		 (session_id, role, content, message_uuid, seq, ts, tool_name, tool_input, tool_output)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.SessionID, m.Role, m.Content, m.UUID, m.Seq, m.Timestamp,
		m.ToolName, m.ToolInput, m.ToolOutput,
	)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		m.ID = id
		return &m, nil
	}

	// already present from an earlier reconciliation
	return s.getMessage(m.SessionID, m.UUID, m.Seq)
}

func (s *Store) getMessage(sessionID, uuid string, seq int) (*Message, error) {
	var m Message
	err := s.db.QueryRow(
		`SELECT id, session_id, role, content, message_uuid, seq, ts, tool_name, tool_input, tool_output
		 FROM messages WHERE session_id = ? AND message_uuid = ? AND seq = ?`,
		sessionID, uuid, seq,
	).Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.UUID, &m.Seq, &m.Timestamp,
		&m.ToolName, &m.ToolInput, &m.ToolOutput)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns up to limit messages for a session in timestamp
// order. A limit of 0 or less means the default of 100.
func (s *Store) ListMessages(sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, role, content, message_uuid, seq, ts, tool_name, tool_input, tool_output
		 FROM messages WHERE session_id = ?
		 ORDER BY ts ASC, id ASC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.UUID, &m.Seq, &m.Timestamp,
			&m.ToolName, &m.ToolInput, &m.ToolOutput); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Store) SessionCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

func (s *Store) MessageCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}
