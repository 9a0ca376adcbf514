// Package store provides the save-file backends used by the editor: a
// directory of .gdb files, a PostgreSQL table and an embedded SQLite
// database. Every backend stores the encoded save document as opaque
// bytes; decoding and validation stay in core.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/geardb/internal/core"
)

// Backend names accepted by New.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Store is a core.SaveFileStore that owns resources.
type Store interface {
	core.SaveFileStore
	Backend() string
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Dir         string // file backend
	DatabaseURL string // postgres backend
	MaxConns    int
	MinConns    int
	SQLitePath  string // sqlite backend
}

// New opens the backend named by opts.Backend.
func New(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		s, err = NewFile(opts.Dir)
	case BackendPostgres:
		s, err = NewPostgres(ctx, opts.DatabaseURL, opts.MaxConns, opts.MinConns)
	case BackendSQLite:
		s, err = NewSQLite(ctx, opts.SQLitePath)
	default:
		err = fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// cleanName drops a trailing .gdb and rejects names that could escape the
// store directory.
func cleanName(name string) (string, error) {
	name = strings.TrimSuffix(name, core.SaveExtension)
	if err := core.ValidateName(name); err != nil {
		return "", err
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: save file name %q", core.ErrInvalidName, name)
	}
	return name, nil
}

// notFound wraps core.ErrSaveFileNotFound with the name.
func notFound(name string) error {
	return fmt.Errorf("%w: %s", core.ErrSaveFileNotFound, name)
}
