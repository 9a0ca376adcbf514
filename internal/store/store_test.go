package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/geardb/internal/core"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := s.ReadSaveFile(ctx, "nope")
		if !errors.Is(err, core.ErrSaveFileNotFound) {
			t.Errorf("ReadSaveFile(nope) error = %v, want ErrSaveFileNotFound", err)
		}
	})

	t.Run("write then read", func(t *testing.T) {
		data := []byte(`{"sheets":[],"selectedSheet":"","hashCode":0}`)
		if err := s.WriteSaveFile(ctx, "inventory", data); err != nil {
			t.Fatalf("WriteSaveFile() error = %v", err)
		}
		got, err := s.ReadSaveFile(ctx, "inventory.gdb")
		if err != nil {
			t.Fatalf("ReadSaveFile() error = %v", err)
		}
		if _, err := core.DecodeSaveData(got); err != nil {
			t.Errorf("stored document no longer decodes: %v", err)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		data := []byte(`{"sheets":[{"uuid":"a","id":"A","rows":[],"columns":[]}],"selectedSheet":"a","hashCode":1}`)
		if err := s.WriteSaveFile(ctx, "inventory", data); err != nil {
			t.Fatal(err)
		}
		got, err := s.ReadSaveFile(ctx, "inventory")
		if err != nil {
			t.Fatal(err)
		}
		sd, err := core.DecodeSaveData(got)
		if err != nil {
			t.Fatal(err)
		}
		if len(sd.Sheets) != 1 || sd.SelectedSheet != "a" {
			t.Errorf("overwrite not visible: %+v", sd)
		}
	})

	t.Run("list", func(t *testing.T) {
		if err := s.WriteSaveFile(ctx, "archive", []byte(`{"sheets":[]}`)); err != nil {
			t.Fatal(err)
		}
		files, err := s.ListSaveFiles(ctx)
		if err != nil {
			t.Fatalf("ListSaveFiles() error = %v", err)
		}
		if len(files) != 2 || files[0].Name != "archive" || files[1].Name != "inventory" {
			t.Fatalf("ListSaveFiles() = %+v", files)
		}
		if files[1].Size == 0 || files[1].ModifiedAt.IsZero() {
			t.Errorf("missing metadata: %+v", files[1])
		}
	})

	t.Run("invalid names", func(t *testing.T) {
		for _, name := range []string{"", " padded", "../escape", `a\b`} {
			if err := s.WriteSaveFile(ctx, name, []byte("{}")); !errors.Is(err, core.ErrInvalidName) {
				t.Errorf("WriteSaveFile(%q) error = %v, want ErrInvalidName", name, err)
			}
		}
	})
}

// ----------------------------------------------------------------------------
// Backend Tests
// ----------------------------------------------------------------------------

func TestFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	s, err := NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)

	// Only .gdb files show up, and no temp files are left behind.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	files, _ := s.ListSaveFiles(context.Background())
	if len(files) != 2 {
		t.Errorf("ListSaveFiles() = %+v, want only the two .gdb files", files)
	}
}

func TestSQLite(t *testing.T) {
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "geardb.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("GEARDB_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GEARDB_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPostgres(ctx, url, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.pool.Exec(ctx, `TRUNCATE save_files`); err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{name: "default is file", opts: Options{Dir: t.TempDir()}, want: BackendFile},
		{name: "sqlite", opts: Options{Backend: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "db")}, want: BackendSQLite},
		{name: "sqlite needs path", opts: Options{Backend: "sqlite"}, wantErr: true},
		{name: "postgres needs url", opts: Options{Backend: "postgres"}, wantErr: true},
		{name: "unknown backend", opts: Options{Backend: "s3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(ctx, tt.opts)
			if tt.wantErr {
				if err == nil {
					s.Close()
					t.Error("New() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer s.Close()
			if s.Backend() != tt.want {
				t.Errorf("Backend() = %q, want %q", s.Backend(), tt.want)
			}
		})
	}
}
