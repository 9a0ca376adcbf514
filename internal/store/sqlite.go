package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/geardb/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS save_files (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLite keeps save files in an embedded database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite store requires a database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create save_files table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Backend() string { return BackendSQLite }

func (s *SQLite) Close() error { return s.db.Close() }

// ReadSaveFile returns the stored document for name.
func (s *SQLite) ReadSaveFile(ctx context.Context, name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.db.QueryRowContext(ctx, `SELECT data FROM save_files WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read save file %s: %w", name, err)
	}
	return data, nil
}

// WriteSaveFile inserts or replaces the document for name.
func (s *SQLite) WriteSaveFile(ctx context.Context, name string, data []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO save_files (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("write save file %s: %w", name, err)
	}
	return nil
}

// ListSaveFiles lists stored documents by name.
func (s *SQLite) ListSaveFiles(ctx context.Context) ([]core.SaveFileInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, length(data), updated_at FROM save_files ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list save files: %w", err)
	}
	defer rows.Close()

	var files []core.SaveFileInfo
	for rows.Next() {
		var (
			info    core.SaveFileInfo
			updated int64
		)
		if err := rows.Scan(&info.Name, &info.Size, &updated); err != nil {
			return nil, fmt.Errorf("scan save file: %w", err)
		}
		info.ModifiedAt = time.Unix(0, updated).UTC()
		files = append(files, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list save files: %w", err)
	}
	return files, nil
}
