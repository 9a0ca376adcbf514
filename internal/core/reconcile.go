package core

// Reconcile returns rows brought in line with cols:
//
//   - every column gets a cell; missing or unfilled cells take the column default
//   - cells whose key matches no column are dropped
//   - List cells adopt the column's nested schema and their rows are reconciled
//   - UniqueProperty cells have their rows reconciled against their own columns
//
// Filled values are kept as-is even if they no longer fit the column type.
// The result shares nothing with rows, and Reconcile(cols, Reconcile(cols, rows))
// equals Reconcile(cols, rows).
func Reconcile(cols []Column, rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		cells := make(map[string]Value, len(cols))
		for _, c := range cols {
			v, ok := r.Cells[c.ID]
			if !ok || v == nil {
				cells[c.ID] = ColumnDefault(c)
				continue
			}
			cells[c.ID] = reconcileValue(c, v)
		}
		out[i] = Row{Index: r.Index, ID: r.ID, Cells: cells}
	}
	return out
}

func reconcileValue(col Column, v Value) Value {
	sv, ok := v.(SheetValue)
	if !ok {
		return cloneValue(v)
	}
	switch col.Type {
	case TypeList:
		var schema []Column
		if ls, ok := col.Settings.(ListSettings); ok {
			schema = ls.Columns
		}
		nested := Sheet{
			ID:      sv.ID,
			Name:    sv.Name,
			Columns: cloneColumns(schema),
		}
		nested.Rows = Reconcile(nested.Columns, sv.Rows)
		return SheetValue{Sheet: nested}
	case TypeUniqueProperty:
		nested := Sheet{
			ID:      sv.ID,
			Name:    sv.Name,
			Columns: cloneColumns(sv.Columns),
		}
		nested.Rows = Reconcile(nested.Columns, sv.Rows)
		return SheetValue{Sheet: nested}
	default:
		return cloneValue(v)
	}
}

// Reconciled returns a copy of s with its rows reconciled against its columns.
func (s Sheet) Reconciled() Sheet {
	return Sheet{
		ID:      s.ID,
		Name:    s.Name,
		Columns: cloneColumns(s.Columns),
		Rows:    Reconcile(s.Columns, s.Rows),
	}
}

// AddRows returns the rows of s followed by count new rows. New rows
// continue the index sequence, get identities unique within the sheet, and
// hold the default value of every column.
func AddRows(s Sheet, count int) []Row {
	out := make([]Row, 0, len(s.Rows)+max(count, 0))
	for _, r := range s.Rows {
		out = append(out, r.clone())
	}
	taken := make(map[string]bool, len(s.Rows)+max(count, 0))
	for _, r := range s.Rows {
		taken[r.ID] = true
	}
	for i := 0; i < count; i++ {
		id := freshID(func(id string) bool { return taken[id] })
		taken[id] = true
		cells := make(map[string]Value, len(s.Columns))
		for _, c := range s.Columns {
			cells[c.ID] = ColumnDefault(c)
		}
		out = append(out, Row{Index: len(out), ID: id, Cells: cells})
	}
	return out
}

// DeleteRow returns the rows of s without the row at index, renumbered so
// indices stay dense. An index that matches no row leaves the rows unchanged.
func DeleteRow(s Sheet, index int) []Row {
	out := make([]Row, 0, len(s.Rows))
	for _, r := range s.Rows {
		if r.Index == index {
			continue
		}
		r = r.clone()
		r.Index = len(out)
		out = append(out, r)
	}
	return out
}
