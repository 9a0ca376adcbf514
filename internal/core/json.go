package core

// json.go implements the save-file wire format.
//
//	sheet:  {"uuid", "id" (display name), "rows", "columns"}
//	column: {"uuid", "name", "type", "settingData"}
//	row:    {"id" (sequential index), "uuid", "data": {columnID: value}}
//
// Cells are decoded by the type of the column they belong to, so a Row on
// its own only holds RawValue cells until its Sheet resolves them.

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// unassignedID is written by older files for nested sheets that never got
// an identity. It decodes to the empty id.
const unassignedID = "undefined"

type sheetJSON struct {
	ID      string   `json:"uuid"`
	Name    string   `json:"id"`
	Rows    []Row    `json:"rows"`
	Columns []Column `json:"columns"`
}

type rowJSON struct {
	Index int              `json:"id"`
	ID    string           `json:"uuid"`
	Cells map[string]Value `json:"data"`
}

// MarshalJSON encodes the sheet with empty collections written as [].
func (s Sheet) MarshalJSON() ([]byte, error) {
	out := sheetJSON{ID: s.ID, Name: s.Name, Rows: s.Rows, Columns: s.Columns}
	if out.Rows == nil {
		out.Rows = []Row{}
	}
	if out.Columns == nil {
		out.Columns = []Column{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a sheet and resolves every cell against its column.
// A cell that does not fit its column type, as kept values do after a
// retype, is decoded by its JSON shape instead. Cells whose key matches no
// column stay as RawValue.
func (s *Sheet) UnmarshalJSON(data []byte) error {
	var raw sheetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID == unassignedID {
		raw.ID = ""
	}
	if raw.Rows == nil {
		raw.Rows = []Row{}
	}
	if raw.Columns == nil {
		raw.Columns = []Column{}
	}
	for _, row := range raw.Rows {
		for _, col := range raw.Columns {
			rv, ok := row.Cells[col.ID].(RawValue)
			if !ok {
				continue
			}
			v, err := DecodeValue(col.Type, json.RawMessage(rv))
			if err != nil {
				if v, err = decodeByShape(json.RawMessage(rv)); err != nil {
					return fmt.Errorf("row %d column %q: %w", row.Index, col.Name, err)
				}
			}
			row.Cells[col.ID] = v
		}
	}
	*s = Sheet{ID: raw.ID, Name: raw.Name, Rows: raw.Rows, Columns: raw.Columns}
	return nil
}

// MarshalJSON encodes the row. Unfilled (nil) cells are omitted.
func (r Row) MarshalJSON() ([]byte, error) {
	cells := make(map[string]Value, len(r.Cells))
	for k, v := range r.Cells {
		if v != nil {
			cells[k] = v
		}
	}
	return json.Marshal(rowJSON{Index: r.Index, ID: r.ID, Cells: cells})
}

// UnmarshalJSON decodes the row with every cell left as RawValue.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index int                        `json:"id"`
		ID    string                     `json:"uuid"`
		Cells map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cells := make(map[string]Value, len(raw.Cells))
	for k, m := range raw.Cells {
		if isNull(m) {
			continue
		}
		cells[k] = RawValue(m)
	}
	*r = Row{Index: raw.Index, ID: raw.ID, Cells: cells}
	return nil
}

// UnmarshalJSON decodes a column, rejecting unknown type tags.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"uuid"`
		Name     string          `json:"name"`
		Type     TypeTag         `json:"type"`
		Settings json.RawMessage `json:"settingData"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	settings, err := DecodeSettings(raw.Type, raw.Settings)
	if err != nil {
		return fmt.Errorf("column %q: %w", raw.Name, err)
	}
	*c = Column{ID: raw.ID, Name: raw.Name, Type: raw.Type, Settings: settings}
	return nil
}

// DecodeValue decodes a JSON cell payload for the given column type.
func DecodeValue(tag TypeTag, raw json.RawMessage) (Value, error) {
	desc, err := Lookup(tag)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%w: missing %s value", ErrInvalidValue, tag)
	}
	return desc.decodeValue(raw)
}

func decodeText(raw json.RawMessage) (Value, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: expected a string: %w", ErrInvalidValue, err)
	}
	return TextValue(s), nil
}

// maxExactFloat is the largest magnitude at which every integer has an
// exact float64 form.
const maxExactFloat = 1 << 53

// decodeInt reads integer literals exactly. Exponent or fraction forms
// such as 7.0 or 1e3 are accepted only when integral and within
// maxExactFloat.
func decodeInt(raw json.RawMessage) (Value, error) {
	n, err := decodeNumber(raw)
	if err != nil {
		return nil, err
	}
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := n.Float64()
	if err != nil || math.Abs(f) > maxExactFloat {
		return nil, fmt.Errorf("%w: %s is out of range", ErrInvalidValue, n)
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%w: %s is not an integer", ErrInvalidValue, n)
	}
	return IntValue(int64(f)), nil
}

func decodeNumber(raw json.RawMessage) (json.Number, error) {
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return "", fmt.Errorf("%w: expected a number, got %s", ErrInvalidValue, raw)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: expected a number: %w", ErrInvalidValue, err)
	}
	return n, nil
}

func decodeFloat(raw json.RawMessage) (Value, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: expected a number: %w", ErrInvalidValue, err)
	}
	return FloatValue(f), nil
}

func decodeColor(raw json.RawMessage) (Value, error) {
	var c ColorValue
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: expected {r,g,b}: %w", ErrInvalidValue, err)
	}
	return c, nil
}

func decodeDate(raw json.RawMessage) (Value, error) {
	var t time.Time
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: expected an RFC 3339 date: %w", ErrInvalidValue, err)
	}
	return DateValue{Time: t.UTC()}, nil
}

func decodeBool(raw json.RawMessage) (Value, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: expected true or false: %w", ErrInvalidValue, err)
	}
	return BoolValue(b), nil
}

func decodeSheet(raw json.RawMessage) (Value, error) {
	var s Sheet
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: nested sheet: %w", ErrInvalidValue, err)
	}
	return SheetValue{Sheet: s}, nil
}

// decodeByShape decodes a cell without a column type to go by: strings are
// Text, integral numbers Int, other numbers Float, objects with rows or
// columns nested sheets and {r,g,b} objects colors. Anything else is kept
// as RawValue so it is written back unchanged.
func decodeByShape(raw json.RawMessage) (Value, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty cell", ErrInvalidValue)
	}
	switch c := raw[0]; {
	case c == '"':
		return decodeText(raw)
	case c == 't' || c == 'f':
		return decodeBool(raw)
	case c == '-' || (c >= '0' && c <= '9'):
		n, err := decodeNumber(raw)
		if err != nil {
			return nil, err
		}
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return IntValue(i), nil
		}
		return decodeFloat(raw)
	case c == '{':
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keys); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		if hasKeys(keys, "rows") || hasKeys(keys, "columns") {
			return decodeSheet(raw)
		}
		if hasKeys(keys, "r", "g", "b") {
			if v, err := decodeColor(raw); err == nil {
				return v, nil
			}
		}
	}
	return RawValue(append(json.RawMessage(nil), raw...)), nil
}

func hasKeys(m map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}
