package core

import (
	"encoding/json"
	"time"
)

// TypeTag identifies the value kind of a column.
// The set of tags is fixed; see the registry for the catalog.
type TypeTag string

const (
	TypeText           TypeTag = "Text"
	TypeInt            TypeTag = "Int"
	TypeFloat          TypeTag = "Float"
	TypeColorRGB       TypeTag = "ColorRGB"
	TypeSheetReference TypeTag = "SheetReference"
	TypeLineReference  TypeTag = "LineReference"
	TypeFilePath       TypeTag = "FilePath"
	TypeDate           TypeTag = "Date"
	TypeEnum           TypeTag = "Enum"
	TypeBoolean        TypeTag = "Boolean"
	TypeList           TypeTag = "List"
	TypeUniqueProperty TypeTag = "UniqueProperty"
)

// IsNested reports whether cells of this type hold an embedded sheet.
func (t TypeTag) IsNested() bool {
	return t == TypeList || t == TypeUniqueProperty
}

// Value is the content of a single cell.
// The implementations below are the only ones; a nil Value means the
// cell slot exists but has not been filled yet.
type Value interface {
	isValue()
}

// TextValue holds Text, Enum, FilePath, SheetReference and LineReference cells.
type TextValue string

// IntValue holds Int cells.
type IntValue int64

// FloatValue holds Float cells.
type FloatValue float64

// ColorValue holds ColorRGB cells. Components are in 0..255.
type ColorValue struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// DateValue holds Date cells.
type DateValue struct {
	time.Time
}

// BoolValue holds Boolean cells.
type BoolValue bool

// SheetValue holds a nested sheet owned by a List or UniqueProperty cell.
// The embedded sheet is never shared with another cell.
type SheetValue struct {
	Sheet
}

// RawValue is an undecoded cell: one whose column is no longer part of the
// sheet, or a kept value whose JSON shape matches no value type.
// It survives until the next reconciliation pass prunes it.
type RawValue json.RawMessage

func (TextValue) isValue()  {}
func (IntValue) isValue()   {}
func (FloatValue) isValue() {}
func (ColorValue) isValue() {}
func (DateValue) isValue()  {}
func (BoolValue) isValue()  {}
func (SheetValue) isValue() {}
func (RawValue) isValue()   {}

// MarshalJSON writes the raw bytes back unchanged.
func (r RawValue) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(r).MarshalJSON()
}

// Settings is per-column auxiliary configuration. Which implementation a
// column may carry is decided by its type tag.
type Settings interface {
	isSettings()
}

// NumericSettings bounds Int and Float columns. Every field is optional.
type NumericSettings struct {
	Max  *float64 `json:"max,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

// EnumSettings lists the labels an Enum cell may take.
type EnumSettings struct {
	PossibleValues []string `json:"possibleValues"`
}

// FilePathSettings lists the file extensions a FilePath cell may point to.
type FilePathSettings struct {
	Filenames []string `json:"Filenames"`
}

// ListSettings is the schema shared by every nested sheet of a List column.
type ListSettings struct {
	Columns []Column `json:"columns"`
}

func (NumericSettings) isSettings()  {}
func (EnumSettings) isSettings()     {}
func (FilePathSettings) isSettings() {}
func (ListSettings) isSettings()     {}

// Column is a named, typed slot shared by all rows of a sheet.
type Column struct {
	ID       string   `json:"uuid"`
	Name     string   `json:"name"`
	Type     TypeTag  `json:"type"`
	Settings Settings `json:"settingData,omitempty"`
}

// Row is one record of a sheet.
// Index is the dense display position and changes when rows are removed;
// ID is stable for the life of the row.
type Row struct {
	Index int
	ID    string
	Cells map[string]Value
}

// Sheet is a table: ordered columns and ordered rows.
// Name is the display name shown on the sheet tab.
type Sheet struct {
	ID      string
	Name    string
	Rows    []Row
	Columns []Column
}

// EmptySheet returns the "no sheet" sentinel: empty identity, no rows, no columns.
func EmptySheet() Sheet {
	return Sheet{Rows: []Row{}, Columns: []Column{}}
}

// IsEmpty reports whether s is the "no sheet" sentinel.
func (s Sheet) IsEmpty() bool {
	return s.ID == ""
}

// Clone returns a deep copy of s. Nested sheets are copied as well, so the
// result never aliases s.
func (s Sheet) Clone() Sheet {
	out := Sheet{
		ID:      s.ID,
		Name:    s.Name,
		Rows:    make([]Row, len(s.Rows)),
		Columns: cloneColumns(s.Columns),
	}
	for i, r := range s.Rows {
		out.Rows[i] = r.clone()
	}
	return out
}

// Column returns the column with the given id.
func (s Sheet) Column(id string) (Column, bool) {
	c, _, ok := findColumn(s.Columns, id)
	return c, ok
}

// Row returns the row with the given id.
func (s Sheet) Row(id string) (Row, bool) {
	for _, r := range s.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

func (r Row) clone() Row {
	cells := make(map[string]Value, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = cloneValue(v)
	}
	return Row{Index: r.Index, ID: r.ID, Cells: cells}
}

// Clone returns a deep copy of c, including nested column schemas.
func (c Column) Clone() Column {
	c.Settings = cloneSettings(c.Settings)
	return c
}

func cloneColumns(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case SheetValue:
		return SheetValue{Sheet: val.Sheet.Clone()}
	case RawValue:
		return append(RawValue(nil), val...)
	default:
		return v
	}
}

func cloneSettings(s Settings) Settings {
	switch set := s.(type) {
	case NumericSettings:
		return NumericSettings{
			Max:  cloneFloat(set.Max),
			Min:  cloneFloat(set.Min),
			Step: cloneFloat(set.Step),
		}
	case EnumSettings:
		return EnumSettings{PossibleValues: cloneStrings(set.PossibleValues)}
	case FilePathSettings:
		return FilePathSettings{Filenames: cloneStrings(set.Filenames)}
	case ListSettings:
		return ListSettings{Columns: cloneColumns(set.Columns)}
	default:
		return s
	}
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

// Float returns a pointer to f. Handy for building NumericSettings.
func Float(f float64) *float64 {
	return &f
}
