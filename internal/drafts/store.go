// Package drafts keeps snapshots of running sessions in a local SQLite
// file so an interrupted session can be resumed after a restart.
package drafts

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/repcoach/internal/session"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no draft exists for the session.
var ErrNotFound = errors.New("draft not found")

var _ session.DraftStore = (*Store)(nil)

// Store is a session.DraftStore backed by SQLite.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the draft database at dir/drafts.db.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating drafts dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "drafts.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening drafts db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS drafts (
		session_id TEXT PRIMARY KEY,
		client_id  TEXT NOT NULL,
		state      TEXT NOT NULL,
		payload    TEXT NOT NULL,
		checksum   TEXT NOT NULL,
		saved_at   TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating drafts table: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Put stores d, replacing any earlier draft of the same session.
func (s *Store) Put(ctx context.Context, d session.Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	saved := d.SavedAt
	if saved.IsZero() {
		saved = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO drafts (session_id, client_id, state, payload, checksum, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.Session.ID.String(), d.Session.ClientID.String(), string(d.State),
		string(payload), checksum(payload), saved.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// Get returns the draft of a session.
func (s *Store) Get(ctx context.Context, sessionID uuid.UUID) (session.Draft, error) {
	var payload, sum string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, checksum FROM drafts WHERE session_id = ?`, sessionID.String(),
	).Scan(&payload, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Draft{}, ErrNotFound
	}
	if err != nil {
		return session.Draft{}, fmt.Errorf("querying draft: %w", err)
	}
	return decode(payload, sum)
}

// Delete removes a session's draft. Deleting a missing draft is not an error.
func (s *Store) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE session_id = ?`, sessionID.String()); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// List returns every readable draft, oldest first. Drafts that fail their
// checksum or cannot be decoded are logged and skipped.
func (s *Store) List(ctx context.Context) ([]session.Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, payload, checksum FROM drafts ORDER BY saved_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying drafts: %w", err)
	}
	defer rows.Close()

	var result []session.Draft
	for rows.Next() {
		var id, payload, sum string
		if err := rows.Scan(&id, &payload, &sum); err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}
		d, err := decode(payload, sum)
		if err != nil {
			s.log.Warn("skipping unreadable draft", "session", id, "error", err)
			continue
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// Close closes the draft database.
func (s *Store) Close() error {
	return s.db.Close()
}

func decode(payload, sum string) (session.Draft, error) {
	var d session.Draft
	if checksum([]byte(payload)) != sum {
		return d, errors.New("draft checksum mismatch")
	}
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return d, fmt.Errorf("decoding draft: %w", err)
	}
	return d, nil
}

// checksum returns the hex SHA-256 of b.
func checksum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
