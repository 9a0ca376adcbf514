package core

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// Hash Tests
// ----------------------------------------------------------------------------

func TestHashCode(t *testing.T) {
	tests := []struct {
		input string
		want  int32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 3105},
		{"hello", 99162322},
		{"polygenelubricants", -2147483648},
		{"é", 233},
		{"😀", 1772899}, // surrogate pair: 0xD83D*31 + 0xDE00
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := HashCode(tt.input); got != tt.want {
				t.Errorf("HashCode(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSheetHash_TracksContent(t *testing.T) {
	s := newTestSheet(t, "Gear")
	before := SheetHash(s)
	if before != SheetHash(s.Clone()) {
		t.Error("equal sheets hash differently")
	}
	if SheetHash(s.AddRows(1)) == before {
		t.Error("adding a row did not change the hash")
	}
}

// ----------------------------------------------------------------------------
// Save Data Tests
// ----------------------------------------------------------------------------

func TestCreateSaveData_FoldsCurrent(t *testing.T) {
	stale := Sheet{ID: "a", Name: "A", Rows: []Row{}, Columns: []Column{}}
	current := stale.AddRows(2)

	sheets, data := CreateSaveData([]Sheet{stale, {ID: "b", Name: "B"}}, current)
	if len(sheets[0].Rows) != 2 || len(data.Sheets[0].Rows) != 2 {
		t.Errorf("current sheet not folded in: %d / %d rows", len(sheets[0].Rows), len(data.Sheets[0].Rows))
	}
	if data.SelectedSheet != "a" {
		t.Errorf("SelectedSheet = %q, want a", data.SelectedSheet)
	}
	if data.HashCode != SheetHash(current) {
		t.Errorf("HashCode = %d, want hash of current sheet", data.HashCode)
	}
}

func TestLoadSaveData(t *testing.T) {
	sheets := []Sheet{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}

	tests := []struct {
		name     string
		selected string
		wantID   string
	}{
		{"selected sheet", "b", "b"},
		{"unknown selection", "zz", ""},
		{"no selection", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hash := LoadSaveData(SaveData{Sheets: sheets, SelectedSheet: tt.selected, HashCode: 42})
			if got.ID != tt.wantID {
				t.Errorf("active = %q, want %q", got.ID, tt.wantID)
			}
			if hash != 42 {
				t.Errorf("hash = %d, want recorded 42", hash)
			}
		})
	}
}

func TestSaveData_RoundTrip(t *testing.T) {
	s := newTestSheet(t, "Gear")
	s, qty := mustAddColumn(t, s, "qty", TypeInt, NumericSettings{Min: Float(0)})
	s, kind := mustAddColumn(t, s, "kind", TypeEnum, EnumSettings{PossibleValues: []string{"tool"}})
	s, color := mustAddColumn(t, s, "color", TypeColorRGB, nil)
	s, born := mustAddColumn(t, s, "born", TypeDate, nil)
	s, list := mustAddColumn(t, s, "parts", TypeList, ListSettings{})
	s, _ = mustAddColumn(t, s, "props", TypeUniqueProperty, nil)
	s = s.AddRows(2)
	row := s.Rows[0].ID

	var err error
	steps := []struct {
		col string
		v   Value
	}{
		{qty.ID, IntValue(7)},
		{kind.ID, TextValue("tool")},
		{color.ID, ColorValue{R: 1, G: 2, B: 3}},
	}
	for _, st := range steps {
		if s, err = s.SetCell(row, st.col, st.v, nil); err != nil {
			t.Fatal(err)
		}
	}
	s, err = s.EditNested(row, list.ID, nil, func(n Sheet) (Sheet, error) {
		n, _, err := n.AddColumn("part", TypeText, nil)
		return n.AddRows(1), err
	})
	if err != nil {
		t.Fatal(err)
	}

	_, data := CreateSaveData([]Sheet{s}, s)
	b, err := EncodeSaveData(data)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSaveData(b)
	if err != nil {
		t.Fatalf("DecodeSaveData() error = %v", err)
	}

	loaded, hash := LoadSaveData(got)
	if hash != data.HashCode {
		t.Errorf("hash = %d, want %d", hash, data.HashCode)
	}
	if !reflect.DeepEqual(loaded, s) {
		t.Errorf("round trip changed the sheet:\n got  %#v\n want %#v", loaded, s)
	}
	if SheetHash(loaded) != data.HashCode {
		t.Error("reloaded sheet hashes differently from the saved one")
	}
	if d, ok := loaded.Rows[1].Cells[born.ID].(DateValue); !ok || !d.Equal(DefaultDate) {
		t.Errorf("date default = %#v", loaded.Rows[1].Cells[born.ID])
	}
}

func TestSaveData_RoundTripAfterRetype(t *testing.T) {
	s := newTestSheet(t, "Gear")
	s, note := mustAddColumn(t, s, "note", TypeText, nil)
	s, qty := mustAddColumn(t, s, "qty", TypeInt, nil)
	s = s.AddRows(2)

	var err error
	if s, err = s.SetCell(s.Rows[0].ID, qty.ID, IntValue(4), nil); err != nil {
		t.Fatal(err)
	}
	if s, err = s.RetypeColumn(note.ID, TypeInt, nil); err != nil {
		t.Fatal(err)
	}
	if s, err = s.RetypeColumn(qty.ID, TypeColorRGB, nil); err != nil {
		t.Fatal(err)
	}

	_, data := CreateSaveData(nil, s)
	b, err := EncodeSaveData(data)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSaveData(b)
	if err != nil {
		t.Fatalf("DecodeSaveData() error = %v", err)
	}

	loaded, _ := LoadSaveData(got)
	if SheetHash(loaded) != data.HashCode {
		t.Error("reloaded sheet hashes differently from the saved one")
	}
	for _, r := range loaded.Rows {
		if r.Cells[note.ID] != TextValue("") {
			t.Errorf("row %d note = %#v, want kept empty text", r.Index, r.Cells[note.ID])
		}
	}
	if loaded.Rows[0].Cells[qty.ID] != IntValue(4) {
		t.Errorf("qty = %#v, want kept int", loaded.Rows[0].Cells[qty.ID])
	}
}

func TestDecodeSaveData_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not json", "{", ErrMalformedSaveData},
		{"unknown column type", `{"sheets":[{"uuid":"a","id":"A","rows":[],"columns":[{"uuid":"c","name":"x","type":"Money"}]}]}`, ErrUnknownType},
		{"broken nested sheet", `{"sheets":[{"uuid":"a","id":"A","columns":[{"uuid":"c","name":"x","type":"Int"}],"rows":[{"id":0,"uuid":"r","data":{"c":{"rows":7}}}]}]}`, ErrMalformedSaveData},
		{"duplicate sheet id", `{"sheets":[{"uuid":"a","id":"A"},{"uuid":"a","id":"B"}]}`, ErrMalformedSaveData},
		{"sheet without id", `{"sheets":[{"uuid":"","id":"A"}]}`, ErrMalformedSaveData},
		{"duplicate column names", `{"sheets":[{"uuid":"a","id":"A","columns":[{"uuid":"c","name":"x","type":"Text"},{"uuid":"d","name":"x","type":"Text"}]}]}`, ErrDuplicateName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSaveData([]byte(tt.input))
			if !errors.Is(err, ErrMalformedSaveData) {
				t.Errorf("error = %v, want ErrMalformedSaveData", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeSaveData_OriginalFormat(t *testing.T) {
	input := `{
		"sheets": [{
			"uuid": "s1", "id": "Gear",
			"rows": [{"id": 0, "uuid": "r1", "data": {
				"c1": 3,
				"c2": "1999-02-01T00:00:00.000Z",
				"c3": {"uuid": "undefined", "id": "", "rows": [], "columns": []},
				"gone": true
			}}],
			"columns": [
				{"uuid": "c1", "name": "qty", "type": "Int", "settingData": {"min": 0, "step": 1}},
				{"uuid": "c2", "name": "since", "type": "Date"},
				{"uuid": "c3", "name": "parts", "type": "List", "settingData": {"columns": []}}
			]
		}],
		"selectedSheet": "s1",
		"hashCode": 12345
	}`

	data, err := DecodeSaveData([]byte(input))
	if err != nil {
		t.Fatalf("DecodeSaveData() error = %v", err)
	}
	s, hash := LoadSaveData(data)
	if hash != 12345 || s.Name != "Gear" {
		t.Fatalf("loaded %q with hash %d", s.Name, hash)
	}
	cells := s.Rows[0].Cells
	if cells["c1"] != IntValue(3) {
		t.Errorf("int cell = %#v", cells["c1"])
	}
	if d, ok := cells["c2"].(DateValue); !ok || !d.Equal(DefaultDate) {
		t.Errorf("date cell = %#v", cells["c2"])
	}
	if n, ok := cells["c3"].(SheetValue); !ok || !n.IsEmpty() {
		t.Errorf("list cell = %#v, want unassigned nested sheet", cells["c3"])
	}
	if _, ok := cells["gone"].(RawValue); !ok {
		t.Errorf("orphan cell = %#v, want RawValue until reconciled", cells["gone"])
	}
	if _, ok := s.Reconciled().Rows[0].Cells["gone"]; ok {
		t.Error("orphan cell survived reconciliation")
	}
}

func TestSheetJSON_WireShape(t *testing.T) {
	s := Sheet{ID: "s1", Name: "Gear"}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"uuid":"s1","id":"Gear","rows":[],"columns":[]}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}

	row := Row{Index: 2, ID: "r", Cells: map[string]Value{"a": IntValue(1), "b": nil}}
	b, err = json.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != `{"id":2,"uuid":"r","data":{"a":1}}` {
		t.Errorf("Marshal(row) = %s", got)
	}

	col := Column{ID: "c", Name: "qty", Type: TypeInt}
	b, _ = json.Marshal(col)
	if strings.Contains(string(b), "settingData") {
		t.Errorf("column without settings wrote settingData: %s", b)
	}
}

// ----------------------------------------------------------------------------
// Cell Decoding Tests
// ----------------------------------------------------------------------------

func TestDecodeValue_Int(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Value
		wantErr bool
	}{
		{"small", "42", IntValue(42), false},
		{"negative", "-7", IntValue(-7), false},
		{"beyond float precision", "9007199254740993", IntValue(9007199254740993), false},
		{"max int64", "9223372036854775807", IntValue(9223372036854775807), false},
		{"integral fraction form", "7.0", IntValue(7), false},
		{"exponent form", "1e3", IntValue(1000), false},
		{"fraction", "7.5", nil, true},
		{"out of range", "1e20", nil, true},
		{"past int64", "9223372036854775808", nil, true},
		{"string", `"7"`, nil, true},
		{"bool", "true", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeValue(TypeInt, json.RawMessage(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidValue) {
					t.Errorf("DecodeValue(%s) error = %v, want ErrInvalidValue", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeValue(%s) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("DecodeValue(%s) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeByShape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"string", `"A-1"`, TextValue("A-1")},
		{"integer", "12", IntValue(12)},
		{"fraction", "1.5", FloatValue(1.5)},
		{"bool", "false", BoolValue(false)},
		{"color", `{"r":1,"g":2,"b":3}`, ColorValue{R: 1, G: 2, B: 3}},
		{"array", `[1,2]`, RawValue(`[1,2]`)},
		{"other object", `{"x":1}`, RawValue(`{"x":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeByShape(json.RawMessage(tt.input))
			if err != nil {
				t.Fatalf("decodeByShape(%s) error = %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decodeByShape(%s) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}

	v, err := decodeByShape(json.RawMessage(`{"uuid":"n","id":"","rows":[],"columns":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if sv, ok := v.(SheetValue); !ok || sv.ID != "n" {
		t.Errorf("nested sheet = %#v", v)
	}
}
