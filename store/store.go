// Package store persists chat sessions, messages, and checkpoints in sqlite.
// Full-document snapshot blobs are brotli-compressed; everything else is
// plain columns.
package store

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"
	_ "modernc.org/sqlite"

	"texpilot/types"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS sessions (
    session_id  TEXT PRIMARY KEY,
    document_id TEXT NOT NULL,
    project_id  TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS sessions_document ON sessions(document_id, project_id);

CREATE TABLE IF NOT EXISTS messages (
    message_id    TEXT PRIMARY KEY,
    document_id   TEXT NOT NULL,
    role          TEXT NOT NULL,
    kind          TEXT NOT NULL,
    content       TEXT NOT NULL,
    applied       TEXT NOT NULL DEFAULT '',
    checkpoint_id TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS messages_document ON messages(document_id);

CREATE TABLE IF NOT EXISTS checkpoints (
    checkpoint_id  TEXT PRIMARY KEY,
    document_id    TEXT NOT NULL,
    session_id     TEXT NOT NULL DEFAULT '',
    message_id     TEXT NOT NULL DEFAULT '',
    name           TEXT NOT NULL DEFAULT '',
    content_before BLOB NOT NULL,
    content_after  BLOB,
    additions      INTEGER NOT NULL DEFAULT 0,
    deletions      INTEGER NOT NULL DEFAULT 0,
    is_current     INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS checkpoints_document ON checkpoints(document_id);
`

// DB wraps the sqlite connection behind the persistence operations the
// engine needs.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies the
// schema.
func Open(dbPath string) (*DB, error) {
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

	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// CheckpointOptions carries the optional fields of CreateCheckpoint.
type CheckpointOptions struct {
	Name          string
	ContentBefore string
	ContentAfter  string
	MessageID     string
	Additions     int
	Deletions     int
	SetCurrent    bool
}

// CreateCheckpoint persists a checkpoint and returns its id. When SetCurrent
// is set, previous checkpoints for the document lose their current flag in
// the same transaction.
func (d *DB) CreateCheckpoint(documentID, sessionID string, opts CheckpointOptions) (string, error) {
	before, err := compress([]byte(opts.ContentBefore))
	if err != nil {
		return "", fmt.Errorf("compress content_before: %w", err)
	}
	after, err := compress([]byte(opts.ContentAfter))
	if err != nil {
		return "", fmt.Errorf("compress content_after: %w", err)
	}

	id := types.NewID()

	tx, err := d.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if opts.SetCurrent {
		if _, err := tx.Exec("UPDATE checkpoints SET is_current = 0 WHERE document_id = ?", documentID); err != nil {
			return "", err
		}
	}

	_, err = tx.Exec(`INSERT INTO checkpoints
		(checkpoint_id, document_id, session_id, message_id, name, content_before, content_after, additions, deletions, is_current, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, documentID, sessionID, opts.MessageID, opts.Name,
		before, after, opts.Additions, opts.Deletions,
		boolToInt(opts.SetCurrent), now())
	if err != nil {
		return "", err
	}

	return id, tx.Commit()
}

// Checkpoints returns all checkpoints for a document, oldest first. Snapshot
// contents are not decompressed; use RestoreToCheckpoint for that.
func (d *DB) Checkpoints(documentID string) ([]*types.Checkpoint, error) {
	rows, err := d.db.Query(
		"SELECT checkpoint_id, name, additions, deletions, created_at FROM checkpoints WHERE document_id = ? ORDER BY rowid",
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Checkpoint
	for rows.Next() {
		var cp types.Checkpoint
		var createdAt string
		if err := rows.Scan(&cp.ID, &cp.Description, &cp.Additions, &cp.Deletions, &createdAt); err != nil {
			return nil, err
		}
		cp.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, &cp)
	}
	return out, rows.Err()
}

// RestoreToCheckpoint returns the decompressed pre-edit content of a
// checkpoint. Unknown ids fail; the caller leaves the document untouched.
func (d *DB) RestoreToCheckpoint(checkpointID string) (string, error) {
	var blob []byte
	err := d.db.QueryRow(
		"SELECT content_before FROM checkpoints WHERE checkpoint_id = ?", checkpointID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("checkpoint %s not found", checkpointID)
	}
	if err != nil {
		return "", err
	}

	content, err := decompress(blob)
	if err != nil {
		return "", fmt.Errorf("decompress checkpoint %s: %w", checkpointID, err)
	}
	return string(content), nil
}

// ChatSession returns the session id and confirmed message history for a
// document, creating the session row on first access.
func (d *DB) ChatSession(documentID, projectID string) (string, []types.ChatMessage, error) {
	var sessionID string
	err := d.db.QueryRow(
		"SELECT session_id FROM sessions WHERE document_id = ? AND project_id = ?",
		documentID, projectID,
	).Scan(&sessionID)
	if err == sql.ErrNoRows {
		sessionID = types.NewID()
		_, err = d.db.Exec(
			"INSERT INTO sessions (session_id, document_id, project_id, created_at) VALUES (?, ?, ?, ?)",
			sessionID, documentID, projectID, now())
	}
	if err != nil {
		return "", nil, err
	}

	msgs, err := d.ChatHistory(documentID)
	if err != nil {
		return "", nil, err
	}
	return sessionID, msgs, nil
}

// SendChatMessage persists one message and returns it with server-assigned
// fields filled in.
func (d *DB) SendChatMessage(documentID string, msg types.ChatMessage) (types.ChatMessage, error) {
	if msg.ID == "" {
		msg.ID = types.NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO messages
		(message_id, document_id, role, kind, content, applied, checkpoint_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, documentID, string(msg.Role), string(msg.Kind), msg.Content,
		string(msg.Applied), msg.CheckpointID, msg.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return types.ChatMessage{}, err
	}
	return msg, nil
}

// ChatHistory returns all messages for a document in insertion order.
func (d *DB) ChatHistory(documentID string) ([]types.ChatMessage, error) {
	rows, err := d.db.Query(
		"SELECT message_id, role, kind, content, applied, checkpoint_id, created_at FROM messages WHERE document_id = ? ORDER BY rowid",
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ChatMessage
	for rows.Next() {
		var m types.ChatMessage
		var role, kind, applied, createdAt string
		if err := rows.Scan(&m.ID, &role, &kind, &m.Content, &applied, &m.CheckpointID, &createdAt); err != nil {
			return nil, err
		}
		m.Role = types.Role(role)
		m.Kind = types.MessageKind(kind)
		m.Applied = types.AppliedState(applied)
		m.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// compress brotli-compresses a blob (quality 1 for speed).
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, 1)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompress reverses compress.
func decompress(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}

func now() string {
	return time.Now().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
