package core

import (
	"reflect"
	"testing"
)

// ----------------------------------------------------------------------------
// Reconcile Tests
// ----------------------------------------------------------------------------

func TestReconcile(t *testing.T) {
	cols := []Column{
		{ID: "t", Name: "name", Type: TypeText},
		{ID: "i", Name: "qty", Type: TypeInt},
	}

	tests := []struct {
		name string
		rows []Row
		want []Row
	}{
		{
			name: "missing key takes default",
			rows: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": TextValue("bolt")}}},
			want: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": TextValue("bolt"), "i": IntValue(0)}}},
		},
		{
			name: "nil value is backfilled",
			rows: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": nil, "i": IntValue(4)}}},
			want: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": TextValue(""), "i": IntValue(4)}}},
		},
		{
			name: "orphan key is pruned",
			rows: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": TextValue("x"), "i": IntValue(1), "gone": BoolValue(true)}}},
			want: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": TextValue("x"), "i": IntValue(1)}}},
		},
		{
			name: "mistyped value is kept",
			rows: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": TextValue("x"), "i": TextValue("seven")}}},
			want: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": TextValue("x"), "i": TextValue("seven")}}},
		},
		{
			name: "no rows",
			rows: []Row{},
			want: []Row{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(cols, tt.rows)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reconcile() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	schema := []Column{{ID: "n", Name: "name", Type: TypeText}}
	cols := []Column{
		{ID: "i", Name: "qty", Type: TypeInt},
		{ID: "l", Name: "parts", Type: TypeList, Settings: ListSettings{Columns: schema}},
		{ID: "u", Name: "props", Type: TypeUniqueProperty},
	}
	rows := []Row{
		{Index: 0, ID: "r0", Cells: map[string]Value{"old": TextValue("x")}},
		{Index: 1, ID: "r1", Cells: map[string]Value{
			"i": IntValue(3),
			"l": SheetValue{Sheet: Sheet{ID: "s_1", Name: "s_list_1", Rows: []Row{
				{Index: 0, ID: "n0", Cells: map[string]Value{"stale": IntValue(1)}},
			}}},
		}},
	}

	once := Reconcile(cols, rows)
	twice := Reconcile(cols, once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Reconcile is not idempotent:\n once  %#v\n twice %#v", once, twice)
	}
}

func TestReconcile_DoesNotAliasInput(t *testing.T) {
	cols := []Column{{ID: "t", Name: "name", Type: TypeText}}
	rows := []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"t": TextValue("a")}}}

	out := Reconcile(cols, rows)
	out[0].Cells["t"] = TextValue("b")
	if rows[0].Cells["t"] != TextValue("a") {
		t.Error("Reconcile result shares cell map with input")
	}
}

func TestReconcile_ListCascade(t *testing.T) {
	schema := []Column{
		{ID: "n", Name: "name", Type: TypeText},
		{ID: "w", Name: "weight", Type: TypeFloat},
	}
	cols := []Column{{ID: "l", Name: "parts", Type: TypeList, Settings: ListSettings{Columns: schema}}}
	rows := []Row{{Index: 0, ID: "r0", Cells: map[string]Value{
		"l": SheetValue{Sheet: Sheet{
			ID:      "p_1",
			Name:    "p_list_1",
			Columns: []Column{{ID: "n", Name: "name", Type: TypeText}},
			Rows:    []Row{{Index: 0, ID: "n0", Cells: map[string]Value{"n": TextValue("gear"), "x": IntValue(9)}}},
		}},
	}}}

	got := Reconcile(cols, rows)
	nested := got[0].Cells["l"].(SheetValue)
	if !reflect.DeepEqual(nested.Columns, schema) {
		t.Errorf("nested columns = %+v, want schema", nested.Columns)
	}
	want := map[string]Value{"n": TextValue("gear"), "w": FloatValue(0)}
	if !reflect.DeepEqual(nested.Rows[0].Cells, want) {
		t.Errorf("nested cells = %#v, want %#v", nested.Rows[0].Cells, want)
	}
	if nested.ID != "p_1" || nested.Name != "p_list_1" {
		t.Errorf("nested identity changed: %q %q", nested.ID, nested.Name)
	}
}

func TestReconcile_UniquePropertyKeepsOwnColumns(t *testing.T) {
	own := []Column{{ID: "k", Name: "key", Type: TypeBoolean}}
	cols := []Column{{ID: "u", Name: "props", Type: TypeUniqueProperty}}
	rows := []Row{{Index: 0, ID: "r0", Cells: map[string]Value{
		"u": SheetValue{Sheet: Sheet{Columns: own, Rows: []Row{{Index: 0, ID: "x", Cells: map[string]Value{}}}}},
	}}}

	got := Reconcile(cols, rows)[0].Cells["u"].(SheetValue)
	if !reflect.DeepEqual(got.Columns, own) {
		t.Errorf("columns = %+v", got.Columns)
	}
	if got.Rows[0].Cells["k"] != BoolValue(false) {
		t.Errorf("nested cell = %#v, want false", got.Rows[0].Cells["k"])
	}
}

// ----------------------------------------------------------------------------
// Row Tests
// ----------------------------------------------------------------------------

func TestAddRows(t *testing.T) {
	s := Sheet{
		ID:      "s",
		Columns: []Column{{ID: "i", Name: "qty", Type: TypeInt}},
		Rows:    []Row{{Index: 0, ID: "r0", Cells: map[string]Value{"i": IntValue(5)}}},
	}

	rows := AddRows(s, 3)
	if len(rows) != 4 {
		t.Fatalf("len = %d, want 4", len(rows))
	}
	seen := map[string]bool{}
	for i, r := range rows {
		if r.Index != i {
			t.Errorf("row %d index = %d", i, r.Index)
		}
		if seen[r.ID] {
			t.Errorf("duplicate row id %q", r.ID)
		}
		seen[r.ID] = true
		if i > 0 && r.Cells["i"] != IntValue(0) {
			t.Errorf("row %d qty = %#v, want 0", i, r.Cells["i"])
		}
	}
	if len(s.Rows) != 1 {
		t.Error("AddRows modified the input sheet")
	}
}

func TestAddRows_ZeroCount(t *testing.T) {
	s := Sheet{Rows: []Row{{Index: 0, ID: "r0", Cells: map[string]Value{}}}}
	if got := AddRows(s, 0); len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestDeleteRow(t *testing.T) {
	s := Sheet{Rows: []Row{
		{Index: 0, ID: "a", Cells: map[string]Value{}},
		{Index: 1, ID: "b", Cells: map[string]Value{}},
		{Index: 2, ID: "c", Cells: map[string]Value{}},
	}}

	tests := []struct {
		name    string
		index   int
		wantIDs []string
	}{
		{"middle", 1, []string{"a", "c"}},
		{"first", 0, []string{"b", "c"}},
		{"last", 2, []string{"a", "b"}},
		{"missing index", 7, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeleteRow(s, tt.index)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, r := range got {
				if r.ID != tt.wantIDs[i] || r.Index != i {
					t.Errorf("row %d = (%d, %q), want (%d, %q)", i, r.Index, r.ID, i, tt.wantIDs[i])
				}
			}
		})
	}
}
