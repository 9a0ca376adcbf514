package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
)

// SaveExtension is the file extension of saved workbooks.
const SaveExtension = ".gdb"

// SaveData is the persisted form of a workbook.
type SaveData struct {
	Sheets        []Sheet `json:"sheets"`
	SelectedSheet string  `json:"selectedSheet"`
	HashCode      int32   `json:"hashCode"`
}

// HashCode is the 31-multiplier string hash over UTF-16 code units, with
// 32-bit signed wraparound. HashCode("") is 0.
func HashCode(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	return h
}

// SheetHash hashes the canonical JSON form of s. Two sheets with the same
// content hash equal; a sheet that cannot be encoded hashes like "".
func SheetHash(s Sheet) int32 {
	b, err := json.Marshal(s)
	if err != nil {
		return 0
	}
	return HashCode(string(b))
}

// CreateSaveData folds current into sheets and builds the document to
// persist. The hash covers the current sheet only, so it tells whether the
// sheet being edited has changed since the last save.
func CreateSaveData(sheets []Sheet, current Sheet) ([]Sheet, SaveData) {
	folded := WriteBack(sheets, current)
	data := SaveData{
		Sheets:        make([]Sheet, len(folded)),
		SelectedSheet: current.ID,
		HashCode:      SheetHash(current),
	}
	for i, s := range folded {
		data.Sheets[i] = s.Clone()
	}
	return folded, data
}

// LoadSaveData picks the sheet to open from data: the selected sheet, or
// the empty sentinel if the selection names no sheet. The second result is
// the hash recorded in data, not a freshly computed one.
func LoadSaveData(data SaveData) (Sheet, int32) {
	if i, ok := indexOf(data.Sheets, data.SelectedSheet); ok && data.SelectedSheet != "" {
		return data.Sheets[i].Clone(), data.HashCode
	}
	return EmptySheet(), data.HashCode
}

// EncodeSaveData renders data as indented JSON.
func EncodeSaveData(data SaveData) ([]byte, error) {
	if data.Sheets == nil {
		data.Sheets = []Sheet{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("encode save data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSaveData parses and structurally checks a save file. Any failure
// is reported as ErrMalformedSaveData.
func DecodeSaveData(b []byte) (SaveData, error) {
	var data SaveData
	if err := json.Unmarshal(b, &data); err != nil {
		return SaveData{}, fmt.Errorf("%w: %w", ErrMalformedSaveData, err)
	}
	if data.Sheets == nil {
		data.Sheets = []Sheet{}
	}

	ids := make(map[string]bool, len(data.Sheets))
	for _, s := range data.Sheets {
		if s.ID == "" {
			return SaveData{}, fmt.Errorf("%w: sheet %q has no id", ErrMalformedSaveData, s.Name)
		}
		if ids[s.ID] {
			return SaveData{}, fmt.Errorf("%w: sheet id %q used twice", ErrMalformedSaveData, s.ID)
		}
		ids[s.ID] = true
		if _, err := NormalizeColumns(s.Columns); err != nil {
			return SaveData{}, fmt.Errorf("%w: sheet %q: %w", ErrMalformedSaveData, s.Name, err)
		}
	}
	return data, nil
}
