// Package snapshot persists owner partitions to SQLite. It is the
// durable boundary around the in-memory core: Save serializes a
// partition's full record set, Load reads it back for an
// identity-preserving restore.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/companionlabs/keepsake/internal/model"
)

// SQLiteStore writes snapshots to a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a snapshot database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id               TEXT NOT NULL,
		owner            TEXT NOT NULL,
		content          BLOB,
		type             TEXT NOT NULL,
		associations     TEXT,
		importance       REAL NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL,
		last_accessed_at TEXT,
		access_count     INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (owner, id)
	);
	CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner);
	CREATE INDEX IF NOT EXISTS idx_memories_owner_type ON memories(owner, type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save replaces the owner's snapshot rows with the given records.
func (s *SQLiteStore) Save(ctx context.Context, owner string, records []model.Memory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("clear partition: %w", err)
	}

	for _, m := range records {
		var assocJSON *string
		if len(m.Associations) > 0 {
			b, _ := json.Marshal(m.Associations)
			v := string(b)
			assocJSON = &v
		}
		var lastAccessed *string
		if m.LastAccessedAt != nil {
			v := m.LastAccessedAt.UTC().Format(time.RFC3339Nano)
			lastAccessed = &v
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO memories (id, owner, content, type, associations, importance, created_at, last_accessed_at, access_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, owner, []byte(m.Content), string(m.Type), assocJSON,
			m.Importance, m.CreatedAt.UTC().Format(time.RFC3339Nano), lastAccessed, m.AccessCount)
		if err != nil {
			return fmt.Errorf("insert memory %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// Load reads the owner's snapshot, ordered by creation time then id.
func (s *SQLiteStore) Load(ctx context.Context, owner string) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, content, type, associations, importance, created_at, last_accessed_at, access_count
		 FROM memories WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// Owners lists every owner with a snapshot, with record counts.
func (s *SQLiteStore) Owners(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner, COUNT(*) FROM memories GROUP BY owner ORDER BY owner`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make(map[string]int)
	for rows.Next() {
		var owner string
		var n int
		if err := rows.Scan(&owner, &n); err != nil {
			return nil, err
		}
		owners[owner] = n
	}
	return owners, rows.Err()
}

// Close closes the snapshot store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanMemory(rows *sql.Rows) (model.Memory, error) {
	var m model.Memory
	var content []byte
	var typ, createdAt string
	var assocJSON, lastAccessed sql.NullString

	err := rows.Scan(&m.ID, &m.Owner, &content, &typ, &assocJSON,
		&m.Importance, &createdAt, &lastAccessed, &m.AccessCount)
	if err != nil {
		return m, err
	}

	m.Content = json.RawMessage(content)
	m.Type = model.MemoryType(typ)
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if assocJSON.Valid {
		json.Unmarshal([]byte(assocJSON.String), &m.Associations)
	}
	if lastAccessed.Valid {
		t, _ := time.Parse(time.RFC3339Nano, lastAccessed.String)
		m.LastAccessedAt = &t
	}
	return m, nil
}
