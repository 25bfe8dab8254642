package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/serroba/crdt-docs/internal/crdt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS operations (
	doc_id    TEXT    NOT NULL,
	log_index INTEGER NOT NULL,
	payload   TEXT    NOT NULL,
	PRIMARY KEY (doc_id, log_index)
);

CREATE TABLE IF NOT EXISTS snapshots (
	doc_id     TEXT PRIMARY KEY,
	log_index  INTEGER NOT NULL,
	clock      INTEGER NOT NULL,
	characters TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLiteStore persists documents, operation logs, and snapshots in SQLite.
// Operations and character state are stored as JSON payloads, keeping the
// schema independent of engine internals.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite store at the given path
// and ensures the schema exists. The special path ":memory:" opens an
// in-memory database, useful in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateDocument creates a new document with the given ID.
func (s *SQLiteStore) CreateDocument(docID string) error {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO documents (id, created_at) VALUES (?, ?)`,
		docID, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	if affected == 0 {
		return ErrDocumentExists
	}

	return nil
}

// DocumentExists checks if a document exists.
func (s *SQLiteStore) DocumentExists(docID string) (bool, error) {
	var one int

	err := s.db.QueryRow(`SELECT 1 FROM documents WHERE id = ?`, docID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("document exists: %w", err)
	}

	return true, nil
}

// DeleteDocument removes a document, its log, and its snapshot.
func (s *SQLiteStore) DeleteDocument(docID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, docID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if affected == 0 {
		return ErrDocumentNotFound
	}

	if _, err := tx.Exec(`DELETE FROM operations WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("delete operations: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	return tx.Commit()
}

// AppendOperation appends an operation to the document's log.
func (s *SQLiteStore) AppendOperation(docID string, op crdt.Operation) (int64, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return 0, fmt.Errorf("encode operation: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := documentExistsTx(tx, docID)
	if err != nil {
		return 0, err
	}

	if !exists {
		return 0, ErrDocumentNotFound
	}

	// The next index continues past both the live log and any snapshot,
	// so pruned entries never get their indexes reused.
	var index int64

	err = tx.QueryRow(`
		SELECT 1 + MAX(n) FROM (
			SELECT COALESCE(MAX(log_index), 0) AS n FROM operations WHERE doc_id = ?
			UNION ALL
			SELECT COALESCE(MAX(log_index), 0) AS n FROM snapshots WHERE doc_id = ?
		)`, docID, docID).Scan(&index)
	if err != nil {
		return 0, fmt.Errorf("next log index: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO operations (doc_id, log_index, payload) VALUES (?, ?, ?)`,
		docID, index, string(payload),
	); err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}

	return index, nil
}

// LoadOperations retrieves all logged operations after the given index.
func (s *SQLiteStore) LoadOperations(docID string, sinceIndex int64) ([]LoggedOperation, error) {
	exists, err := s.DocumentExists(docID)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, ErrDocumentNotFound
	}

	rows, err := s.db.Query(`
		SELECT log_index, payload FROM operations
		WHERE doc_id = ? AND log_index > ?
		ORDER BY log_index`, docID, sinceIndex)
	if err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}
	defer rows.Close()

	var result []LoggedOperation

	for rows.Next() {
		var (
			entry   LoggedOperation
			payload string
		)

		if err := rows.Scan(&entry.Index, &payload); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}

		if err := json.Unmarshal([]byte(payload), &entry.Op); err != nil {
			return nil, fmt.Errorf("decode operation: %w", err)
		}

		result = append(result, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}

	return result, nil
}

// SaveSnapshot persists a snapshot covering the log up to logIndex.
func (s *SQLiteStore) SaveSnapshot(docID string, logIndex, clock int64, chars []crdt.Character) error {
	characters, err := json.Marshal(chars)
	if err != nil {
		return fmt.Errorf("encode characters: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := documentExistsTx(tx, docID)
	if err != nil {
		return err
	}

	if !exists {
		return ErrDocumentNotFound
	}

	if _, err := tx.Exec(`
		INSERT INTO snapshots (doc_id, log_index, clock, characters, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (doc_id) DO UPDATE SET
			log_index = excluded.log_index,
			clock = excluded.clock,
			characters = excluded.characters,
			created_at = excluded.created_at`,
		docID, logIndex, clock, string(characters), time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	// Prune log entries now covered by the snapshot.
	if _, err := tx.Exec(
		`DELETE FROM operations WHERE doc_id = ? AND log_index <= ?`,
		docID, logIndex,
	); err != nil {
		return fmt.Errorf("prune operations: %w", err)
	}

	return tx.Commit()
}

// LoadSnapshot retrieves the latest snapshot for a document.
func (s *SQLiteStore) LoadSnapshot(docID string) (Snapshot, error) {
	exists, err := s.DocumentExists(docID)
	if err != nil {
		return Snapshot{}, err
	}

	if !exists {
		return Snapshot{}, ErrDocumentNotFound
	}

	var (
		snapshot   Snapshot
		characters string
		createdAt  int64
	)

	err = s.db.QueryRow(`
		SELECT log_index, clock, characters, created_at
		FROM snapshots WHERE doc_id = ?`, docID).
		Scan(&snapshot.LogIndex, &snapshot.Clock, &characters, &createdAt)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrSnapshotNotFound
	}

	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(characters), &snapshot.Characters); err != nil {
		return Snapshot{}, fmt.Errorf("decode characters: %w", err)
	}

	snapshot.DocID = docID
	snapshot.CreatedAt = time.UnixMilli(createdAt)

	return snapshot, nil
}

// LatestIndex returns the highest log index recorded for a document.
func (s *SQLiteStore) LatestIndex(docID string) (int64, error) {
	exists, err := s.DocumentExists(docID)
	if err != nil {
		return 0, err
	}

	if !exists {
		return 0, ErrDocumentNotFound
	}

	var index int64

	err = s.db.QueryRow(`
		SELECT MAX(n) FROM (
			SELECT COALESCE(MAX(log_index), 0) AS n FROM operations WHERE doc_id = ?
			UNION ALL
			SELECT COALESCE(MAX(log_index), 0) AS n FROM snapshots WHERE doc_id = ?
		)`, docID, docID).Scan(&index)
	if err != nil {
		return 0, fmt.Errorf("latest index: %w", err)
	}

	return index, nil
}

// documentExistsTx checks document existence inside a transaction.
func documentExistsTx(tx *sql.Tx, docID string) (bool, error) {
	var one int

	err := tx.QueryRow(`SELECT 1 FROM documents WHERE id = ?`, docID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("document exists: %w", err)
	}

	return true, nil
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
