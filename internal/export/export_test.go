package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/JonMunkholm/geardb/internal/core"
)

// gearSheet builds a small sheet with a filled-in nested list.
func gearSheet(t *testing.T) core.Sheet {
	t.Helper()
	s, err := core.CreateSheet(nil, "Gear")
	if err != nil {
		t.Fatal(err)
	}
	s, name, err := s.AddColumn("name", core.TypeText, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, qty, err := s.AddColumn("qty", core.TypeInt, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, ok, err := s.AddColumn("ok", core.TypeBoolean, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, parts, err := s.AddColumn("parts", core.TypeList, nil)
	if err != nil {
		t.Fatal(err)
	}
	s = s.AddRows(2)
	row := s.Rows[0].ID

	edits := []struct {
		col string
		v   core.Value
	}{
		{name.ID, core.TextValue("hammer")},
		{qty.ID, core.IntValue(12)},
		{ok.ID, core.BoolValue(true)},
	}
	for _, e := range edits {
		if s, err = s.SetCell(row, e.col, e.v, nil); err != nil {
			t.Fatal(err)
		}
	}
	s, err = s.EditNested(row, parts.ID, nil, func(n core.Sheet) (core.Sheet, error) {
		n, _, err := n.AddColumn("part", core.TypeText, nil)
		return n.AddRows(1), err
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// ----------------------------------------------------------------------------
// XLSX Tests
// ----------------------------------------------------------------------------

func TestWriteXLSX(t *testing.T) {
	s := gearSheet(t)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, s); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	wb, err := spreadsheet.Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading written workbook: %v", err)
	}
	sheets := wb.Sheets()
	if len(sheets) != 2 {
		t.Fatalf("worksheets = %d, want parent and nested", len(sheets))
	}
	if sheets[0].Name() != "Gear" || sheets[1].Name() != "Gear_list_1" {
		t.Errorf("worksheet names = %q, %q", sheets[0].Name(), sheets[1].Name())
	}

	rows := sheets[0].Rows()
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(rows))
	}
	var header []string
	for _, c := range rows[0].Cells() {
		header = append(header, c.GetString())
	}
	if got := strings.Join(header, ","); got != "name,qty,ok,parts" {
		t.Errorf("header = %q", got)
	}
	if got := rows[1].Cells()[0].GetString(); got != "hammer" {
		t.Errorf("first cell = %q, want hammer", got)
	}
	if got := rows[1].Cells()[3].GetString(); got != "Gear_list_1" {
		t.Errorf("nested cell = %q, want nested sheet name", got)
	}
}

func TestWriteXLSX_EmptyWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("no bytes written")
	}
}

func TestUniqueName(t *testing.T) {
	x := &xlsxWriter{names: make(map[string]bool)}

	tests := []struct {
		in   string
		want string
	}{
		{"Gear", "Gear"},
		{"gear", "gear (2)"},
		{"a/b:c", "a_b_c"},
		{"", "Sheet"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
		{strings.Repeat("x", 40), strings.Repeat("x", 27) + " (2)"},
	}

	for _, tt := range tests {
		if got := x.uniqueName(tt.in); got != tt.want {
			t.Errorf("uniqueName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Text Tests
// ----------------------------------------------------------------------------

func TestRenderText(t *testing.T) {
	out := RenderText(gearSheet(t), TextOptions{Plain: true})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if lines[0] != "Gear" {
		t.Errorf("title = %q", lines[0])
	}
	if !strings.Contains(lines[1], "name") || !strings.Contains(lines[1], "parts") {
		t.Errorf("header = %q", lines[1])
	}
	if !strings.Contains(lines[3], "hammer") || !strings.Contains(lines[3], "[x]") || !strings.Contains(lines[3], "[1 row]") {
		t.Errorf("first row = %q", lines[3])
	}
	if !strings.Contains(lines[3], "   12 ") {
		t.Errorf("numbers should be right aligned: %q", lines[3])
	}
	if last := lines[len(lines)-1]; last != "2 rows × 4 columns" {
		t.Errorf("footer = %q", last)
	}
}

func TestRenderText_NarrowTerminal(t *testing.T) {
	out := RenderText(gearSheet(t), TextOptions{Plain: true, Width: 20})
	if strings.Contains(out, "parts") {
		t.Errorf("column beyond width was drawn:\n%s", out)
	}
	if !strings.Contains(out, "not shown)") {
		t.Errorf("footer does not mention hidden columns:\n%s", out)
	}
}

func TestRenderText_NoColumns(t *testing.T) {
	out := RenderText(core.Sheet{Name: "Empty"}, TextOptions{Plain: true})
	if out != "Empty\n(no columns)\n" {
		t.Errorf("RenderText() = %q", out)
	}
}

func TestFitCell(t *testing.T) {
	tests := []struct {
		s     string
		width int
		right bool
		want  string
	}{
		{"ab", 4, false, "ab  "},
		{"ab", 4, true, "  ab"},
		{"abcdef", 4, false, "abc…"},
		{"日本語", 4, false, "日… "},
	}
	for _, tt := range tests {
		if got := fitCell(tt.s, tt.width, tt.right); got != tt.want {
			t.Errorf("fitCell(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}
