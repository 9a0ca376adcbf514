package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultMaxRowsPerAdd caps a single AddRows call when no limit is configured.
const DefaultMaxRowsPerAdd = 100

// SaveFileStore persists serialized save files by name. Names carry no
// extension; backends add SaveExtension where they need one.
type SaveFileStore interface {
	ReadSaveFile(ctx context.Context, name string) ([]byte, error)
	WriteSaveFile(ctx context.Context, name string, data []byte) error
	ListSaveFiles(ctx context.Context) ([]SaveFileInfo, error)
}

// SaveFileInfo describes one stored save file.
type SaveFileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// EditorOptions configures an Editor.
type EditorOptions struct {
	MaxRowsPerAdd int
	Logger        *slog.Logger
}

// Status summarizes the editing session. Dirty compares hashes of the
// working sheet only; Pending covers edits to any sheet.
type Status struct {
	FileName    string `json:"fileName"`
	ActiveID    string `json:"activeSheet"`
	Sheets      int    `json:"sheets"`
	SavedHash   int32  `json:"savedHash"`
	CurrentHash int32  `json:"currentHash"`
	Dirty       bool   `json:"dirty"`
	Pending     bool   `json:"pending"`
}

// Editor is a single editing session over one workbook. All methods are
// safe for concurrent use; mutations are serialized so each one observes
// the result of the previous.
type Editor struct {
	mu            sync.RWMutex
	book          *Workbook
	fileName      string
	savedHash     int32
	edits         uint64 // successful mutations since the last save or open
	maxRowsPerAdd int
	logger        *slog.Logger
}

// NewEditor creates an editor over an empty workbook.
func NewEditor(opts EditorOptions) *Editor {
	if opts.MaxRowsPerAdd <= 0 {
		opts.MaxRowsPerAdd = DefaultMaxRowsPerAdd
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Editor{
		book:          NewWorkbook(),
		savedHash:     SheetHash(EmptySheet()),
		maxRowsPerAdd: opts.MaxRowsPerAdd,
		logger:        opts.Logger,
	}
}

// Sheets lists the sheets ordered by display name.
func (e *Editor) Sheets() []SheetSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.SortedSheets()
}

// Active returns the working sheet, or the empty sentinel.
func (e *Editor) Active() Sheet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.Active()
}

// Sheet returns sheet id.
func (e *Editor) Sheet(id string) (Sheet, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.book.Sheet(id)
	if !ok {
		return Sheet{}, fmt.Errorf("%w: sheet %s", ErrNotFound, id)
	}
	return s, nil
}

// Status reports the open file and whether the working sheet differs from
// what was last saved or opened.
func (e *Editor) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	active := e.book.Active()
	current := SheetHash(active)
	return Status{
		FileName:    e.fileName,
		ActiveID:    active.ID,
		Sheets:      len(e.book.sheets),
		SavedHash:   e.savedHash,
		CurrentHash: current,
		Dirty:       current != e.savedHash,
		Pending:     e.edits > 0,
	}
}

// CreateSheet adds a sheet and makes it active.
func (e *Editor) CreateSheet(name string) (Sheet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.book.CreateSheet(name)
	if err != nil {
		return Sheet{}, err
	}
	e.edits++
	e.logger.Info("sheet created", "sheet_id", s.ID, "sheet", s.Name)
	return s, nil
}

// DeleteSheet removes sheet id and returns the sheet that is now active,
// which is unchanged when id was not the active sheet. An unknown id
// changes nothing and reports false.
func (e *Editor) DeleteSheet(id string) (Sheet, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, ok := e.book.DeleteSheet(id)
	if ok {
		e.edits++
		e.logger.Info("sheet deleted", "sheet_id", id, "active", next.ID)
	}
	return next, ok
}

// SwitchSheet makes sheet id active. An unknown id keeps the current
// working sheet and reports false. Switching alone is not an edit.
func (e *Editor) SwitchSheet(id string) (Sheet, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.book.SwitchActive(id)
	if ok {
		e.logger.Debug("sheet switched", "sheet_id", id)
	}
	return s, ok
}

// RenameSheet changes the display name of sheet id.
func (e *Editor) RenameSheet(id, name string) (Sheet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.book.RenameSheet(id, name)
	if err != nil {
		return Sheet{}, err
	}
	e.edits++
	e.logger.Info("sheet renamed", "sheet_id", id, "sheet", name)
	return s, nil
}

// AddColumn appends a column to the working sheet.
func (e *Editor) AddColumn(name string, tag TypeTag, settings Settings) (Column, Sheet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var col Column
	s, err := e.book.UpdateActive(func(s Sheet) (Sheet, error) {
		next, c, err := s.AddColumn(name, tag, settings)
		col = c
		return next, err
	})
	if err != nil {
		return Column{}, Sheet{}, err
	}
	e.edits++
	e.logger.Debug("column added", "sheet_id", s.ID, "column_id", col.ID, "name", name, "type", tag)
	return col, s, nil
}

// RenameColumn renames a column of the working sheet.
func (e *Editor) RenameColumn(columnID, name string) (Sheet, error) {
	return e.update("column renamed", func(s Sheet) (Sheet, error) {
		return s.RenameColumn(columnID, name)
	}, "column_id", columnID, "name", name)
}

// RetypeColumn changes the type and settings of a column of the working sheet.
func (e *Editor) RetypeColumn(columnID string, tag TypeTag, settings Settings) (Sheet, error) {
	return e.update("column retyped", func(s Sheet) (Sheet, error) {
		return s.RetypeColumn(columnID, tag, settings)
	}, "column_id", columnID, "type", tag)
}

// UpdateColumnSettings replaces the settings of a column of the working sheet.
func (e *Editor) UpdateColumnSettings(columnID string, settings Settings) (Sheet, error) {
	return e.update("column settings changed", func(s Sheet) (Sheet, error) {
		return s.UpdateColumnSettings(columnID, settings)
	}, "column_id", columnID)
}

// UpdateColumn renames, retypes and reconfigures a column of the working
// sheet in one step. Nothing is committed unless every part succeeds.
func (e *Editor) UpdateColumn(columnID string, u ColumnUpdate) (Sheet, error) {
	return e.update("column updated", func(s Sheet) (Sheet, error) {
		return s.UpdateColumn(columnID, u)
	}, "column_id", columnID)
}

// DeleteColumn removes a column from the working sheet.
func (e *Editor) DeleteColumn(columnID string) (Sheet, error) {
	return e.update("column deleted", func(s Sheet) (Sheet, error) {
		return s.DeleteColumn(columnID), nil
	}, "column_id", columnID)
}

// AddRows appends count rows to the working sheet. count must be between
// 1 and the configured per-call maximum.
func (e *Editor) AddRows(count int) (Sheet, error) {
	if count < 1 || count > e.maxRowsPerAdd {
		return Sheet{}, fmt.Errorf("%w: row count must be between 1 and %d", ErrInvalidValue, e.maxRowsPerAdd)
	}
	return e.update("rows added", func(s Sheet) (Sheet, error) {
		return s.AddRows(count), nil
	}, "rows", count)
}

// DeleteRow removes the row at index from the working sheet.
func (e *Editor) DeleteRow(index int) (Sheet, error) {
	return e.update("row deleted", func(s Sheet) (Sheet, error) {
		return s.DeleteRow(index), nil
	}, "index", index)
}

// SetCell writes a typed value into the working sheet.
func (e *Editor) SetCell(rowID, columnID string, v Value) (Sheet, error) {
	return e.update("cell set", func(s Sheet) (Sheet, error) {
		return s.SetCell(rowID, columnID, v, e.book)
	}, "row_id", rowID, "column_id", columnID)
}

// SetCellText parses text for the column and writes the result.
func (e *Editor) SetCellText(rowID, columnID, text string) (Sheet, error) {
	return e.update("cell set", func(s Sheet) (Sheet, error) {
		col, ok := s.Column(columnID)
		if !ok {
			return s, fmt.Errorf("%w: column %s", ErrNotFound, columnID)
		}
		v, err := ParseValue(col, text)
		if err != nil {
			return s, err
		}
		return s.SetCell(rowID, columnID, v, e.book)
	}, "row_id", rowID, "column_id", columnID)
}

// EditNested applies fn to the nested sheet at (rowID, columnID) of the
// working sheet.
func (e *Editor) EditNested(rowID, columnID string, fn func(Sheet) (Sheet, error)) (Sheet, error) {
	return e.update("nested sheet edited", func(s Sheet) (Sheet, error) {
		return s.EditNested(rowID, columnID, e.book, fn)
	}, "row_id", rowID, "column_id", columnID)
}

// ImportCSV appends the records of r to the working sheet.
func (e *Editor) ImportCSV(r io.Reader) (Sheet, int, error) {
	var n int
	s, err := e.update("csv imported", func(s Sheet) (Sheet, error) {
		next, count, err := ImportCSV(s, r, e.book)
		n = count
		return next, err
	})
	if err != nil {
		return Sheet{}, 0, err
	}
	return s, n, nil
}

// update runs fn against the working sheet under the write lock.
func (e *Editor) update(msg string, fn func(Sheet) (Sheet, error), args ...any) (Sheet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.book.UpdateActive(fn)
	if err != nil {
		return Sheet{}, err
	}
	e.edits++
	e.logger.Debug(msg, append([]any{"sheet_id", s.ID}, args...)...)
	return s, nil
}

// SaveData folds the working sheet into the collection and returns the
// document that Save would write.
func (e *Editor) SaveData() SaveData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.CreateSaveData()
}

// Save writes the workbook to store under name. The saved hash is only
// updated once the store has accepted the file.
func (e *Editor) Save(ctx context.Context, store SaveFileStore, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	data := e.book.CreateSaveData()
	b, err := EncodeSaveData(data)
	if err != nil {
		return err
	}
	if err := store.WriteSaveFile(ctx, name, b); err != nil {
		return fmt.Errorf("write save file %q: %w", name, err)
	}
	e.fileName = name
	e.savedHash = data.HashCode
	e.edits = 0
	e.logger.Info("workbook saved", "name", name, "sheets", len(data.Sheets), "bytes", len(b))
	return nil
}

// Open replaces the workbook with the save file name from store. A file
// that cannot be read or decoded leaves the current workbook untouched.
func (e *Editor) Open(ctx context.Context, store SaveFileStore, name string) (Sheet, error) {
	b, err := store.ReadSaveFile(ctx, name)
	if err != nil {
		return Sheet{}, fmt.Errorf("read save file %q: %w", name, err)
	}
	data, err := DecodeSaveData(b)
	if err != nil {
		return Sheet{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	active, hash := e.book.LoadSaveData(data)
	e.fileName = name
	e.savedHash = hash
	e.edits = 0
	e.logger.Info("workbook opened", "name", name, "sheets", len(data.Sheets), "sheet_id", active.ID)
	return active, nil
}

// Load replaces the workbook with already-decoded save data.
func (e *Editor) Load(data SaveData) Sheet {
	e.mu.Lock()
	defer e.mu.Unlock()
	active, hash := e.book.LoadSaveData(data)
	e.savedHash = hash
	e.edits = 0
	return active
}

// Reset discards the workbook and starts a new, empty one.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.book = NewWorkbook()
	e.fileName = ""
	e.savedHash = SheetHash(EmptySheet())
	e.edits = 0
	e.logger.Info("workbook reset")
}

// IsNotFound reports whether err is a missing sheet, column, row or file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSaveFileNotFound)
}
