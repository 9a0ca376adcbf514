// Package core is the editing core of geardb: typed-column sheets, the
// collection they live in, and the save file they are persisted as.
//
// The package is independent of any UI or transport layer. It can be used
// by web handlers, CLI tools, or tests without modification.
//
// # Architecture
//
//   - Type Registry: the fixed catalog of column types ([Lookup], [Types]).
//     Each [TypeDescriptor] knows its default value, which [Settings] it
//     accepts, and how to decode its cells.
//   - Column Model: [CreateColumn], [RenameColumn], [RetypeColumn],
//     [UpdateSettings], [DeleteColumn]. Pure functions over a column list.
//   - Reconciliation: [Reconcile] reshapes rows after any column change,
//     filling defaults and pruning orphaned cells, recursively for nested
//     sheets.
//   - Sheet: value-semantics edits ([Sheet.AddColumn], [Sheet.SetCell], ...)
//     that return a new sheet and leave the receiver untouched.
//   - Workbook: the sheet collection plus the working copy of the active
//     sheet.
//   - Save data: [CreateSaveData], [LoadSaveData] and the change hash
//     ([HashCode], [SheetHash]).
//   - Editor: a mutex-guarded session over one workbook, the entry point
//     for the web server.
//
// # Nested Sheets
//
// List and UniqueProperty cells each own a nested [Sheet]. A List column's
// settings hold the schema shared by all of its nested sheets; editing the
// columns of one nested sheet rewrites that schema and cascades it to the
// others. UniqueProperty sheets carry their own columns.
//
//	s, _ := core.CreateSheet(nil, "Gear")
//	s, list, _ := s.AddColumn("parts", core.TypeList, core.ListSettings{})
//	s = s.AddRows(1)
//	s, _ = s.EditNested(s.Rows[0].ID, list.ID, nil, func(n core.Sheet) (core.Sheet, error) {
//	    n, _, err := n.AddColumn("name", core.TypeText, nil)
//	    return n, err
//	})
//
// # Error Handling
//
// Operations return wrapped sentinel errors ([ErrDuplicateName],
// [ErrInvalidSettings], ...). [MapError] turns them into user messages
// with a support code.
package core
