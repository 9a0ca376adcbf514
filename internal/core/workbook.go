package core

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CreateSheet builds a new, empty sheet whose display name is unique in
// existing and whose identity collides with no existing sheet.
func CreateSheet(existing []Sheet, name string) (Sheet, error) {
	if err := ValidateName(name); err != nil {
		return Sheet{}, err
	}
	for _, s := range existing {
		if s.Name == name {
			return Sheet{}, fmt.Errorf("%w: sheet %q already exists", ErrDuplicateName, name)
		}
	}
	id := freshID(func(id string) bool {
		_, ok := indexOf(existing, id)
		return ok
	})
	return Sheet{ID: id, Name: name, Rows: []Row{}, Columns: []Column{}}, nil
}

// DeleteSheet removes the sheet id from sheets. It returns the remaining
// sheets and the sheet that should become active next: the first remaining
// sheet, or the empty sentinel when none is left. The bool is false when
// no sheet has that id; sheets are then returned unchanged.
func DeleteSheet(sheets []Sheet, id string) ([]Sheet, Sheet, bool) {
	i, ok := indexOf(sheets, id)
	if !ok {
		return sheets, Sheet{}, false
	}
	rest := make([]Sheet, 0, len(sheets)-1)
	rest = append(rest, sheets[:i]...)
	rest = append(rest, sheets[i+1:]...)
	if len(rest) == 0 {
		return rest, EmptySheet(), true
	}
	return rest, rest[0].Clone(), true
}

// WriteBack returns sheets with the entry matching current.ID replaced by
// current. A current sheet that is not in the collection is ignored.
func WriteBack(sheets []Sheet, current Sheet) []Sheet {
	out := make([]Sheet, len(sheets))
	copy(out, sheets)
	if i, ok := indexOf(out, current.ID); ok && !current.IsEmpty() {
		out[i] = current.Clone()
	}
	return out
}

func indexOf(sheets []Sheet, id string) (int, bool) {
	for i, s := range sheets {
		if s.ID == id {
			return i, true
		}
	}
	return -1, false
}

// SheetSummary is a row of the sheet tab strip.
type SheetSummary struct {
	ID      string `json:"uuid"`
	Name    string `json:"id"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Active  bool   `json:"active"`
}

// Workbook is the collection context: every sheet of the open file plus
// the working copy of the active sheet. Edits go to the working copy and
// reach the collection on switch, delete, or save.
//
// A Workbook is not safe for concurrent use; see Editor.
type Workbook struct {
	sheets []Sheet
	active Sheet
}

// NewWorkbook returns an empty workbook with no active sheet.
func NewWorkbook() *Workbook {
	return &Workbook{sheets: []Sheet{}, active: EmptySheet()}
}

// Active returns a copy of the working sheet. It is the empty sentinel
// when no sheet is active.
func (w *Workbook) Active() Sheet {
	return w.active.Clone()
}

// Sheets returns a copy of the collection with the working copy folded in.
// The workbook itself is not modified.
func (w *Workbook) Sheets() []Sheet {
	out := WriteBack(w.sheets, w.active)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// Sheet returns the sheet id, taking the working copy when id is active.
func (w *Workbook) Sheet(id string) (Sheet, bool) {
	if !w.active.IsEmpty() && w.active.ID == id {
		return w.active.Clone(), true
	}
	i, ok := indexOf(w.sheets, id)
	if !ok {
		return Sheet{}, false
	}
	return w.sheets[i].Clone(), true
}

// HasSheetNamed implements SheetResolver over the collection.
func (w *Workbook) HasSheetNamed(name string) bool {
	for _, s := range w.sheets {
		if s.Name == name {
			return true
		}
	}
	return false
}

// CreateSheet writes the working copy back, appends a new sheet and makes
// it active.
func (w *Workbook) CreateSheet(name string) (Sheet, error) {
	s, err := CreateSheet(w.sheets, name)
	if err != nil {
		return Sheet{}, err
	}
	w.sheets = append(WriteBack(w.sheets, w.active), s)
	w.active = s.Clone()
	return s, nil
}

// DeleteSheet removes the sheet id. If it was active, the first remaining
// sheet (or the empty sentinel) becomes active. Deleting an inactive sheet
// keeps the current active sheet. Deleting an unknown id changes nothing.
func (w *Workbook) DeleteSheet(id string) (Sheet, bool) {
	sheets := WriteBack(w.sheets, w.active)
	rest, next, ok := DeleteSheet(sheets, id)
	if !ok {
		return w.Active(), false
	}
	w.sheets = rest
	if w.active.ID == id || w.active.IsEmpty() {
		w.active = next
	}
	return w.Active(), true
}

// SwitchActive writes the working copy back and makes sheet id active.
// An unknown id keeps the current working copy.
func (w *Workbook) SwitchActive(id string) (Sheet, bool) {
	i, ok := indexOf(w.sheets, id)
	if !ok {
		return w.Active(), false
	}
	w.sheets = WriteBack(w.sheets, w.active)
	w.active = w.sheets[i].Clone()
	return w.Active(), true
}

// RenameSheet changes the display name of sheet id. SheetReference cells
// that pointed at the old name are retargeted in every sheet.
func (w *Workbook) RenameSheet(id, name string) (Sheet, error) {
	if err := ValidateName(name); err != nil {
		return Sheet{}, err
	}
	sheets := WriteBack(w.sheets, w.active)
	i, ok := indexOf(sheets, id)
	if !ok {
		return Sheet{}, fmt.Errorf("%w: sheet %s", ErrNotFound, id)
	}
	old := sheets[i].Name
	if old == name {
		return sheets[i].Clone(), nil
	}
	for _, s := range sheets {
		if s.ID != id && s.Name == name {
			return Sheet{}, fmt.Errorf("%w: sheet %q already exists", ErrDuplicateName, name)
		}
	}
	for j := range sheets {
		sheets[j] = retargetSheetRefs(sheets[j], old, name)
	}
	sheets[i].Name = name
	w.sheets = sheets
	if !w.active.IsEmpty() {
		j, _ := indexOf(sheets, w.active.ID)
		w.active = sheets[j].Clone()
	}
	return sheets[i].Clone(), nil
}

// UpdateActive replaces the working copy with fn's result.
func (w *Workbook) UpdateActive(fn func(Sheet) (Sheet, error)) (Sheet, error) {
	if w.active.IsEmpty() {
		return Sheet{}, ErrNoActiveSheet
	}
	next, err := fn(w.active.Clone())
	if err != nil {
		return Sheet{}, err
	}
	next.ID = w.active.ID
	next.Name = w.active.Name
	w.active = next
	return w.Active(), nil
}

// SortedSheets lists the sheets for the tab strip, ordered by display
// name with locale-aware collation.
func (w *Workbook) SortedSheets() []SheetSummary {
	sheets := w.Sheets()
	coll := collate.New(language.Und)
	names := make([]string, len(sheets))
	byName := make(map[string]Sheet, len(sheets))
	for i, s := range sheets {
		names[i] = s.Name
		byName[s.Name] = s
	}
	coll.SortStrings(names)

	out := make([]SheetSummary, 0, len(names))
	for _, n := range names {
		s := byName[n]
		out = append(out, SheetSummary{
			ID:      s.ID,
			Name:    s.Name,
			Rows:    len(s.Rows),
			Columns: len(s.Columns),
			Active:  s.ID == w.active.ID,
		})
	}
	return out
}

// CreateSaveData folds the working copy into the collection and returns
// the document to persist.
func (w *Workbook) CreateSaveData() SaveData {
	sheets, data := CreateSaveData(w.sheets, w.active)
	w.sheets = sheets
	return data
}

// LoadSaveData replaces the whole workbook with data. It returns the new
// working sheet and the hash recorded in data.
func (w *Workbook) LoadSaveData(data SaveData) (Sheet, int32) {
	active, hash := LoadSaveData(data)
	w.sheets = make([]Sheet, len(data.Sheets))
	for i, s := range data.Sheets {
		w.sheets[i] = s.Clone()
	}
	w.active = active.Clone()
	return active, hash
}

func retargetSheetRefs(s Sheet, from, to string) Sheet {
	out := s.Clone()
	for _, r := range out.Rows {
		for _, c := range out.Columns {
			switch v := r.Cells[c.ID].(type) {
			case TextValue:
				if c.Type == TypeSheetReference && string(v) == from {
					r.Cells[c.ID] = TextValue(to)
				}
			case SheetValue:
				r.Cells[c.ID] = SheetValue{Sheet: retargetSheetRefs(v.Sheet, from, to)}
			}
		}
	}
	return out
}
