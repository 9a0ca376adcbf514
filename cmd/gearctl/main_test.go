package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/geardb/internal/core"
)

// writeSaveFile stores a one-sheet workbook in dir and returns its path.
func writeSaveFile(t *testing.T, dir string, tamper bool) string {
	t.Helper()
	s, err := core.CreateSheet(nil, "Gear")
	if err != nil {
		t.Fatal(err)
	}
	s, _, err = s.AddColumn("qty", core.TypeInt, nil)
	if err != nil {
		t.Fatal(err)
	}
	s = s.AddRows(2)

	_, data := core.CreateSaveData(nil, s)
	if tamper {
		data.HashCode++
	}
	b, err := core.EncodeSaveData(data)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "gear"+core.SaveExtension)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ----------------------------------------------------------------------------
// Command Tests
// ----------------------------------------------------------------------------

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"unknown command", []string{"frobnicate"}},
		{"show without file", []string{"show"}},
		{"export without target", []string{"export", "a.gdb"}},
		{"hash with extra args", []string{"hash", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, &bytes.Buffer{})
			if !errors.Is(err, errUsage) {
				t.Errorf("run(%v) error = %v, want errUsage", tt.args, err)
			}
		})
	}
}

func TestRun_Hash(t *testing.T) {
	tests := []struct {
		name   string
		tamper bool
		want   string
	}{
		{"untouched", false, "status:   ok"},
		{"recorded hash differs", true, "status:   modified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSaveFile(t, t.TempDir(), tt.tamper)
			var out bytes.Buffer
			if err := run([]string{"hash", path}, &out); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRun_Show(t *testing.T) {
	path := writeSaveFile(t, t.TempDir(), false)

	var out bytes.Buffer
	if err := run([]string{"show", path}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "qty") {
		t.Errorf("output missing column header:\n%s", out.String())
	}

	err := run([]string{"show", "-sheet", "Nope", path}, &bytes.Buffer{})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown sheet error = %v, want ErrNotFound", err)
	}
}

func TestRun_Export(t *testing.T) {
	dir := t.TempDir()
	path := writeSaveFile(t, dir, false)
	target := filepath.Join(dir, "gear.xlsx")

	var out bytes.Buffer
	if err := run([]string{"export", path, target}, &out); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("exported workbook is empty")
	}
}

func TestRun_List(t *testing.T) {
	dir := t.TempDir()
	writeSaveFile(t, dir, false)

	var out bytes.Buffer
	if err := run([]string{"list", "-dir", dir}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "gear") {
		t.Errorf("listing missing save file:\n%s", out.String())
	}
}

func TestReadSaveFile_Missing(t *testing.T) {
	_, err := readSaveFile(filepath.Join(t.TempDir(), "absent.gdb"))
	if !errors.Is(err, core.ErrSaveFileNotFound) {
		t.Errorf("error = %v, want ErrSaveFileNotFound", err)
	}
}

func TestRun_Schema(t *testing.T) {
	path := writeSaveFile(t, t.TempDir(), false)

	var out bytes.Buffer
	if err := run([]string{"schema", path}, &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"sheet: Gear", "name: qty", "type: " + string(core.TypeInt)} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("schema missing %q:\n%s", want, out.String())
		}
	}
}

func TestColumnDocs(t *testing.T) {
	lo := 1.0
	cols := []core.Column{
		{Name: "size", Type: core.TypeFloat, Settings: core.NumericSettings{Min: &lo}},
		{Name: "kind", Type: core.TypeEnum, Settings: core.EnumSettings{PossibleValues: []string{"a", "b"}}},
		{Name: "parts", Type: core.TypeList, Settings: core.ListSettings{Columns: []core.Column{
			{Name: "part", Type: core.TypeText},
		}}},
	}

	docs := columnDocs(cols)
	if len(docs) != 3 {
		t.Fatalf("len = %d, want 3", len(docs))
	}
	if docs[0].Min == nil || *docs[0].Min != 1 || docs[0].Max != nil {
		t.Errorf("numeric doc = %+v", docs[0])
	}
	if len(docs[1].Values) != 2 {
		t.Errorf("enum values = %v", docs[1].Values)
	}
	if len(docs[2].Columns) != 1 || docs[2].Columns[0].Name != "part" {
		t.Errorf("list columns = %+v", docs[2].Columns)
	}
}
