// Package sqlite provides the SQLite-backed journal.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/marketplace/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/marketplace/internal/services/market/storage"
	"github.com/louisbranch/marketplace/internal/services/market/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists journal entries in SQLite.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record appends one entry.
func (s *Store) Record(ctx context.Context, entry storage.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	verdict := strings.TrimSpace(entry.Verdict)
	if verdict == "" {
		return fmt.Errorf("verdict is required")
	}
	recordedAt := entry.RecordedAt.UTC()
	if recordedAt.IsZero() {
		recordedAt = s.clock().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO journal_entries (
		   input_index,
		   request_id,
		   sender,
		   method,
		   token_id,
		   verdict,
		   rejection_code,
		   rejection_message,
		   settlement_json,
		   recorded_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(entry.InputIndex),
		entry.RequestID,
		entry.Sender,
		entry.Method,
		entry.TokenID,
		verdict,
		entry.RejectionCode,
		entry.RejectionMessage,
		nullableBytes(entry.SettlementJSON),
		toMillis(recordedAt),
	)
	if err != nil {
		if isInputIndexUniqueViolation(err) {
			return storage.ErrAlreadyRecorded
		}
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// ListEntries returns entries with Seq greater than afterSeq.
func (s *Store) ListEntries(ctx context.Context, afterSeq int64, pageSize int) (storage.EntryPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.EntryPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EntryPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.EntryPage{}, fmt.Errorf("page size must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT seq, input_index, request_id, sender, method, token_id,
		        verdict, rejection_code, rejection_message, settlement_json,
		        recorded_at
		   FROM journal_entries
		  WHERE seq > ?
		  ORDER BY seq ASC
		  LIMIT ?`,
		afterSeq,
		pageSize+1,
	)
	if err != nil {
		return storage.EntryPage{}, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	page := storage.EntryPage{Entries: make([]storage.Entry, 0, pageSize)}
	for rows.Next() {
		var entry storage.Entry
		var inputIndex int64
		var recordedAt int64
		if err := rows.Scan(
			&entry.Seq,
			&inputIndex,
			&entry.RequestID,
			&entry.Sender,
			&entry.Method,
			&entry.TokenID,
			&entry.Verdict,
			&entry.RejectionCode,
			&entry.RejectionMessage,
			&entry.SettlementJSON,
			&recordedAt,
		); err != nil {
			return storage.EntryPage{}, fmt.Errorf("list journal entries: %w", err)
		}
		entry.InputIndex = uint64(inputIndex)
		entry.RecordedAt = fromMillis(recordedAt)
		page.Entries = append(page.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return storage.EntryPage{}, fmt.Errorf("list journal entries: %w", err)
	}
	if len(page.Entries) > pageSize {
		page.NextSeq = page.Entries[pageSize-1].Seq
		page.Entries = page.Entries[:pageSize]
	}
	return page, nil
}

func nullableBytes(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return value
}

func isInputIndexUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "journal_entries.input_index")
}

var _ storage.Journal = (*Store)(nil)
