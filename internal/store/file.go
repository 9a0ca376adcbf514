package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/geardb/internal/core"
)

// File keeps one <name>.gdb file per save in a directory.
type File struct {
	dir string
}

// NewFile opens dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) Backend() string { return BackendFile }

func (f *File) Close() error { return nil }

// Dir returns the directory the store writes to.
func (f *File) Dir() string { return f.dir }

func (f *File) path(name string) string {
	return filepath.Join(f.dir, name+core.SaveExtension)
}

// ReadSaveFile returns the contents of <dir>/<name>.gdb.
func (f *File) ReadSaveFile(ctx context.Context, name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

// WriteSaveFile replaces <dir>/<name>.gdb. The data goes to a temporary
// file in the same directory first, so readers never see a partial save.
func (f *File) WriteSaveFile(ctx context.Context, name string, data []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), f.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// ListSaveFiles lists the .gdb files in the directory by name.
func (f *File) ListSaveFiles(ctx context.Context) ([]core.SaveFileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir %s: %w", f.dir, err)
	}

	files := make([]core.SaveFileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || filepath.Ext(e.Name()) != core.SaveExtension {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, core.SaveFileInfo{
			Name:       strings.TrimSuffix(e.Name(), core.SaveExtension),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
