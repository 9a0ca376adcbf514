package core

import (
	"fmt"

	"github.com/google/uuid"
)

// newUUID generates identities. Tests swap it to force collisions.
var newUUID = uuid.NewString

// freshID returns a new identity for which taken reports false.
func freshID(taken func(string) bool) string {
	id := newUUID()
	for taken(id) {
		id = newUUID()
	}
	return id
}

func findColumn(cols []Column, id string) (Column, int, bool) {
	for i, c := range cols {
		if c.ID == id {
			return c, i, true
		}
	}
	return Column{}, -1, false
}

// CreateColumn builds a new column for a sheet whose current columns are
// existing. The identity is unique among existing; name, type and settings
// are validated in that order.
func CreateColumn(existing []Column, name string, tag TypeTag, settings Settings) (Column, error) {
	if err := ValidateColumnName(existing, name, ""); err != nil {
		return Column{}, err
	}
	desc, err := Lookup(tag)
	if err != nil {
		return Column{}, err
	}
	settings, err = desc.ValidateSettings(settings)
	if err != nil {
		return Column{}, err
	}

	id := freshID(func(id string) bool {
		_, _, ok := findColumn(existing, id)
		return ok
	})
	return Column{ID: id, Name: name, Type: tag, Settings: settings}, nil
}

// RenameColumn returns a copy of cols with the column id renamed.
// Renaming a column to its current name is a no-op success.
func RenameColumn(cols []Column, id, name string) ([]Column, error) {
	_, i, ok := findColumn(cols, id)
	if !ok {
		return nil, fmt.Errorf("%w: column %s", ErrNotFound, id)
	}
	if err := ValidateColumnName(cols, name, id); err != nil {
		return nil, err
	}
	out := cloneColumns(cols)
	out[i].Name = name
	return out, nil
}

// RetypeColumn returns a copy of cols with the column's type and settings
// replaced. Existing cell values are not coerced.
func RetypeColumn(cols []Column, id string, tag TypeTag, settings Settings) ([]Column, error) {
	_, i, ok := findColumn(cols, id)
	if !ok {
		return nil, fmt.Errorf("%w: column %s", ErrNotFound, id)
	}
	desc, err := Lookup(tag)
	if err != nil {
		return nil, err
	}
	settings, err = desc.ValidateSettings(settings)
	if err != nil {
		return nil, err
	}
	out := cloneColumns(cols)
	out[i].Type = tag
	out[i].Settings = settings
	return out, nil
}

// UpdateSettings returns col with its settings replaced after validation
// against col's type.
func UpdateSettings(col Column, settings Settings) (Column, error) {
	desc, err := Lookup(col.Type)
	if err != nil {
		return Column{}, err
	}
	settings, err = desc.ValidateSettings(settings)
	if err != nil {
		return Column{}, err
	}
	col.Settings = settings
	return col, nil
}

// DeleteColumn returns a copy of cols without the column id. Rows are not
// touched; reconcile them to drop the orphaned cells. The bool is false
// when no such column exists.
func DeleteColumn(cols []Column, id string) ([]Column, bool) {
	_, i, ok := findColumn(cols, id)
	if !ok {
		return cloneColumns(cols), false
	}
	out := make([]Column, 0, len(cols)-1)
	out = append(out, cloneColumns(cols[:i])...)
	out = append(out, cloneColumns(cols[i+1:])...)
	return out, true
}

// ColumnDefault returns the value a fresh cell of col starts with. A List
// default carries its own copy of the column's nested schema.
func ColumnDefault(col Column) Value {
	desc, err := Lookup(col.Type)
	if err != nil {
		return nil
	}
	v := desc.Default()
	if ls, ok := col.Settings.(ListSettings); ok && col.Type == TypeList {
		sv := v.(SheetValue)
		sv.Columns = cloneColumns(ls.Columns)
		return sv
	}
	return v
}
