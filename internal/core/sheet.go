package core

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// Sheet edits return a new sheet and leave the receiver untouched. Every
// edit that changes the column set ends with a reconciliation pass, so the
// returned sheet always has one cell per column in every row.

// AddColumn appends a new column and fills it with defaults in every row.
func (s Sheet) AddColumn(name string, tag TypeTag, settings Settings) (Sheet, Column, error) {
	col, err := CreateColumn(s.Columns, name, tag, settings)
	if err != nil {
		return s, Column{}, err
	}
	out := s.Clone()
	out.Columns = append(out.Columns, col)
	return out.Reconciled(), col.Clone(), nil
}

// RenameColumn renames the column id.
func (s Sheet) RenameColumn(id, name string) (Sheet, error) {
	cols, err := RenameColumn(s.Columns, id, name)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Columns = cols
	return out, nil
}

// RetypeColumn changes the column's type and settings. Cells keep their
// current values; only unfilled cells take the new default.
func (s Sheet) RetypeColumn(id string, tag TypeTag, settings Settings) (Sheet, error) {
	cols, err := RetypeColumn(s.Columns, id, tag, settings)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Columns = cols
	return out.Reconciled(), nil
}

// UpdateColumnSettings replaces the column's settings. For List columns the
// new schema is pushed into every nested sheet of the column.
func (s Sheet) UpdateColumnSettings(id string, settings Settings) (Sheet, error) {
	col, i, ok := findColumn(s.Columns, id)
	if !ok {
		return s, fmt.Errorf("%w: column %s", ErrNotFound, id)
	}
	col, err := UpdateSettings(col, settings)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Columns[i] = col
	return out.Reconciled(), nil
}

// ColumnUpdate is a combined column edit. Nil fields are left alone.
// Settings is decoded for the column's type after any retype.
type ColumnUpdate struct {
	Name     *string
	Type     *TypeTag
	Settings json.RawMessage
}

// UpdateColumn applies every part of u or none of it.
func (s Sheet) UpdateColumn(id string, u ColumnUpdate) (Sheet, error) {
	col, _, ok := findColumn(s.Columns, id)
	if !ok {
		return s, fmt.Errorf("%w: column %s", ErrNotFound, id)
	}
	tag := col.Type
	if u.Type != nil {
		tag = *u.Type
	}
	settings, err := DecodeSettings(tag, u.Settings)
	if err != nil {
		return s, err
	}

	out := s
	if u.Name != nil {
		if out, err = out.RenameColumn(id, *u.Name); err != nil {
			return s, err
		}
	}
	switch {
	case u.Type != nil:
		out, err = out.RetypeColumn(id, tag, settings)
	case u.Settings != nil:
		out, err = out.UpdateColumnSettings(id, settings)
	}
	if err != nil {
		return s, err
	}
	return out, nil
}

// DeleteColumn removes the column id and drops its cells from every row.
// Deleting an unknown column returns the sheet unchanged.
func (s Sheet) DeleteColumn(id string) Sheet {
	cols, ok := DeleteColumn(s.Columns, id)
	if !ok {
		return s
	}
	out := s.Clone()
	out.Columns = cols
	return out.Reconciled()
}

// AddRows appends count rows of defaults.
func (s Sheet) AddRows(count int) Sheet {
	out := s.Clone()
	out.Rows = AddRows(s, count)
	return out
}

// DeleteRow removes the row at index and renumbers the rest.
func (s Sheet) DeleteRow(index int) Sheet {
	out := s.Clone()
	out.Rows = DeleteRow(s, index)
	return out
}

// SetCell writes v into the cell at (rowID, columnID) after validating it.
//
// For List columns, a nested sheet whose columns differ from the column's
// schema is a schema edit: the column settings take the nested columns
// and every other nested sheet of the column is reconciled to match.
func (s Sheet) SetCell(rowID, columnID string, v Value, refs SheetResolver) (Sheet, error) {
	col, ci, ok := findColumn(s.Columns, columnID)
	if !ok {
		return s, fmt.Errorf("%w: column %s", ErrNotFound, columnID)
	}
	ri := -1
	for i, r := range s.Rows {
		if r.ID == rowID {
			ri = i
			break
		}
	}
	if ri < 0 {
		return s, fmt.Errorf("%w: row %s", ErrNotFound, rowID)
	}

	if sv, ok := v.(SheetValue); ok && col.Type == TypeList {
		var schema []Column
		if ls, ok := col.Settings.(ListSettings); ok {
			schema = ls.Columns
		}
		if !sameColumns(schema, sv.Columns) {
			updated, err := UpdateSettings(col, ListSettings{Columns: sv.Columns})
			if err != nil {
				return s, err
			}
			col = updated
		}
	}

	if err := ValidateValue(col, v, s, refs); err != nil {
		return s, err
	}

	out := s.Clone()
	out.Columns[ci] = col
	out.Rows[ri].Cells[columnID] = cloneValue(v)
	return out.Reconciled(), nil
}

// EditNested applies fn to the nested sheet held at (rowID, columnID) and
// writes the result back through SetCell. A nested sheet without an
// identity is given one first, derived from s.
func (s Sheet) EditNested(rowID, columnID string, refs SheetResolver, fn func(Sheet) (Sheet, error)) (Sheet, error) {
	col, _, ok := findColumn(s.Columns, columnID)
	if !ok {
		return s, fmt.Errorf("%w: column %s", ErrNotFound, columnID)
	}
	if !col.Type.IsNested() {
		return s, fmt.Errorf("%w: column %q does not hold a nested sheet", ErrInvalidValue, col.Name)
	}
	row, ok := s.Row(rowID)
	if !ok {
		return s, fmt.Errorf("%w: row %s", ErrNotFound, rowID)
	}

	sv, ok := row.Cells[columnID].(SheetValue)
	if !ok {
		sv, _ = ColumnDefault(col).(SheetValue)
	}
	nested := sv.Sheet.Clone()
	if nested.IsEmpty() {
		nested.ID = s.ID + "_" + newUUID()
		nested.Name = s.Name + "_list_" + strconv.Itoa(s.countColumns(TypeList))
	}

	edited, err := fn(nested)
	if err != nil {
		return s, err
	}
	return s.SetCell(rowID, columnID, SheetValue{Sheet: edited}, refs)
}

// Nested returns the nested sheet held at (rowID, columnID).
func (s Sheet) Nested(rowID, columnID string) (Sheet, error) {
	row, ok := s.Row(rowID)
	if !ok {
		return Sheet{}, fmt.Errorf("%w: row %s", ErrNotFound, rowID)
	}
	sv, ok := row.Cells[columnID].(SheetValue)
	if !ok {
		return Sheet{}, fmt.Errorf("%w: no nested sheet at column %s", ErrNotFound, columnID)
	}
	return sv.Sheet.Clone(), nil
}

func (s Sheet) countColumns(tag TypeTag) int {
	n := 0
	for _, c := range s.Columns {
		if c.Type == tag {
			n++
		}
	}
	return n
}

// sameColumns treats nil and empty column lists as equal.
func sameColumns(a, b []Column) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
