package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/geardb/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS save_files (
	name       TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres keeps save files as JSONB rows in the save_files table.
type Postgres struct {
	pool  *pgxpool.Pool
	owned bool
}

// NewPostgres connects to url and creates the save_files table if missing.
func NewPostgres(ctx context.Context, url string, maxConns, minConns int) (*Postgres, error) {
	if url == "" {
		return nil, errors.New("postgres store requires a database URL")
	}
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}
	if minConns > 0 {
		poolConfig.MinConns = int32(minConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{pool: pool, owned: true}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresFromPool wraps an existing pool. The caller keeps ownership
// of the pool; Close does not close it.
func NewPostgresFromPool(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create save_files table: %w", err)
	}
	return nil
}

func (p *Postgres) Backend() string { return BackendPostgres }

func (p *Postgres) Close() error {
	if p.owned {
		p.pool.Close()
	}
	return nil
}

// ReadSaveFile returns the stored document for name.
func (p *Postgres) ReadSaveFile(ctx context.Context, name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = p.pool.QueryRow(ctx, `SELECT data::text FROM save_files WHERE name = $1`, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read save file %s: %w", name, err)
	}
	return data, nil
}

// WriteSaveFile inserts or replaces the document for name.
func (p *Postgres) WriteSaveFile(ctx context.Context, name string, data []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO save_files (name, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := p.pool.Exec(ctx, query, name, string(data)); err != nil {
		return fmt.Errorf("write save file %s: %w", name, err)
	}
	return nil
}

// ListSaveFiles lists stored documents by name.
func (p *Postgres) ListSaveFiles(ctx context.Context) ([]core.SaveFileInfo, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT name, octet_length(data::text), updated_at
		FROM save_files
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list save files: %w", err)
	}
	defer rows.Close()

	var files []core.SaveFileInfo
	for rows.Next() {
		var (
			name    string
			size    int64
			updated pgtype.Timestamptz
		)
		if err := rows.Scan(&name, &size, &updated); err != nil {
			return nil, fmt.Errorf("scan save file: %w", err)
		}
		info := core.SaveFileInfo{Name: name, Size: size}
		if updated.Valid {
			info.ModifiedAt = updated.Time.UTC()
		}
		files = append(files, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list save files: %w", err)
	}
	return files, nil
}
