package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// HeaderIndex maps lowercased CSV header names to their column position.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// ImportCSV appends one row per CSV record to s. Headers are matched to
// column names case-insensitively; unmatched headers are ignored and
// unmatched columns keep their defaults. Nested columns cannot be imported.
//
// The import is all-or-nothing: the first bad cell aborts it and s is
// returned unchanged together with a ValidationError naming the line.
func ImportCSV(s Sheet, r io.Reader, refs SheetResolver) (Sheet, int, error) {
	reader := csv.NewReader(NewImportReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return s, 0, fmt.Errorf("%w: empty file", ErrInvalidValue)
	}
	if err != nil {
		return s, 0, fmt.Errorf("%w: invalid csv: %w", ErrInvalidValue, err)
	}

	idx := MakeHeaderIndex(header)
	type target struct {
		col Column
		pos int
	}
	var targets []target
	for _, c := range s.Columns {
		if c.Type.IsNested() {
			continue
		}
		if pos, ok := idx[strings.ToLower(c.Name)]; ok {
			targets = append(targets, target{col: c, pos: pos})
		}
	}
	if len(targets) == 0 {
		return s, 0, fmt.Errorf("%w: no csv header matches a column of %q", ErrInvalidValue, s.Name)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return s, 0, fmt.Errorf("%w: invalid csv: %w", ErrInvalidValue, err)
	}

	out := s.AddRows(len(records))
	for i, rec := range records {
		row := out.Rows[len(s.Rows)+i]
		line := i + 2
		for _, t := range targets {
			if t.pos >= len(rec) {
				continue
			}
			raw := CleanCell(rec[t.pos])
			v, err := ParseValue(t.col, raw)
			if err != nil {
				return s, 0, ValidationError{
					Field:   t.col.Name,
					Value:   raw,
					Message: fmt.Sprintf("line %d: %v", line, err),
				}
			}
			if err := ValidateValue(t.col, v, out, refs); err != nil {
				return s, 0, fmt.Errorf("line %d: %w", line, err)
			}
			row.Cells[t.col.ID] = v
		}
	}
	return out, len(records), nil
}
