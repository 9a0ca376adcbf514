package core

// validation.go checks names, column sets and cell values before they are
// written into a sheet.
//
// Validation never coerces: a value either fits its column as-is or the
// edit is rejected with ErrInvalidValue. Existing cells are not re-checked
// when a column's type or settings change.

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Column name
	Value   string // The rejected value, formatted for display
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap lets errors.Is match ErrInvalidValue.
func (e ValidationError) Unwrap() error {
	return ErrInvalidValue
}

// SheetResolver answers display-name lookups for SheetReference cells.
type SheetResolver interface {
	HasSheetNamed(name string) bool
}

// ValidateName checks a column or sheet display name: it must be non-empty
// and carry no leading or trailing whitespace.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidName, name)
	}
	return nil
}

// ValidateColumnName checks name against the rules and against the other
// columns in existing. The column identified by exceptID is skipped so a
// column may be "renamed" to its own name.
func ValidateColumnName(existing []Column, name, exceptID string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	for _, c := range existing {
		if c.ID != exceptID && c.Name == name {
			return fmt.Errorf("%w: column %q already exists", ErrDuplicateName, name)
		}
	}
	return nil
}

// NormalizeColumns validates a whole column set (unique ids, unique valid
// names, known types, valid settings) and returns a deep copy with each
// column's settings normalized.
func NormalizeColumns(cols []Column) ([]Column, error) {
	out := make([]Column, 0, len(cols))
	ids := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: column %q has no id", ErrInvalidSettings, c.Name)
		}
		if ids[c.ID] {
			return nil, fmt.Errorf("%w: column id %q used twice", ErrInvalidSettings, c.ID)
		}
		ids[c.ID] = true

		if err := ValidateColumnName(out, c.Name, ""); err != nil {
			return nil, err
		}
		desc, err := Lookup(c.Type)
		if err != nil {
			return nil, err
		}
		settings, err := desc.ValidateSettings(c.Settings)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		out = append(out, Column{ID: c.ID, Name: c.Name, Type: c.Type, Settings: settings})
	}
	return out, nil
}

// ValidateValue checks v against col. sheet is the sheet the cell lives in
// and is used for LineReference lookups. refs may be nil, in which case
// SheetReference values are not checked against the collection.
func ValidateValue(col Column, v Value, sheet Sheet, refs SheetResolver) error {
	desc, err := Lookup(col.Type)
	if err != nil {
		return err
	}
	if !desc.Accepts(v) {
		return invalid(col, v, fmt.Sprintf("expected %s value, got %T", col.Type, v))
	}

	switch col.Type {
	case TypeInt:
		return checkNumber(col, v, float64(v.(IntValue)), true)
	case TypeFloat:
		return checkNumber(col, v, float64(v.(FloatValue)), false)
	case TypeColorRGB:
		c := v.(ColorValue)
		for _, comp := range []int{c.R, c.G, c.B} {
			if comp < 0 || comp > 255 {
				return invalid(col, v, "color components must be between 0 and 255")
			}
		}
	case TypeEnum:
		s := string(v.(TextValue))
		if s == "" {
			return nil
		}
		es, _ := col.Settings.(EnumSettings)
		for _, pv := range es.PossibleValues {
			if pv == s {
				return nil
			}
		}
		return invalid(col, v, "value must be one of: "+strings.Join(es.PossibleValues, ", "))
	case TypeFilePath:
		s := string(v.(TextValue))
		fs, _ := col.Settings.(FilePathSettings)
		if s == "" || len(fs.Filenames) == 0 {
			return nil
		}
		lower := strings.ToLower(s)
		for _, ext := range fs.Filenames {
			// "png" and ".png" both require the dot.
			ext = "." + strings.TrimPrefix(strings.ToLower(ext), ".")
			if strings.HasSuffix(lower, ext) {
				return nil
			}
		}
		return invalid(col, v, "file must end with one of: "+strings.Join(fs.Filenames, ", "))
	case TypeSheetReference:
		s := string(v.(TextValue))
		if s == "" || refs == nil || refs.HasSheetNamed(s) {
			return nil
		}
		return invalid(col, v, "no sheet named "+strconv.Quote(s))
	case TypeLineReference:
		s := string(v.(TextValue))
		if s == "" {
			return nil
		}
		idx, err := strconv.Atoi(s)
		if err == nil {
			for _, r := range sheet.Rows {
				if r.Index == idx {
					return nil
				}
			}
		}
		return invalid(col, v, "no line "+strconv.Quote(s)+" in this sheet")
	case TypeList:
		nested := v.(SheetValue).Sheet
		ls, _ := col.Settings.(ListSettings)
		return validateNested(col, nested, ls.Columns, refs)
	case TypeUniqueProperty:
		nested := v.(SheetValue).Sheet
		return validateNested(col, nested, nested.Columns, refs)
	}
	return nil
}

// validateNested checks every filled cell of a nested sheet against cols.
func validateNested(col Column, nested Sheet, cols []Column, refs SheetResolver) error {
	if _, err := NormalizeColumns(nested.Columns); err != nil {
		return fmt.Errorf("%s: %w", col.Name, err)
	}
	for _, r := range nested.Rows {
		for _, c := range cols {
			v, ok := r.Cells[c.ID]
			if !ok || v == nil {
				continue
			}
			if err := ValidateValue(c, v, nested, refs); err != nil {
				return fmt.Errorf("%s line %d: %w", col.Name, r.Index, err)
			}
		}
	}
	return nil
}

func checkNumber(col Column, v Value, f float64, integral bool) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return invalid(col, v, "value must be a finite number")
	}
	if integral && f != math.Trunc(f) {
		return invalid(col, v, "value must be an integer")
	}
	ns, ok := col.Settings.(NumericSettings)
	if !ok {
		return nil
	}
	if ns.Min != nil && f < *ns.Min {
		return invalid(col, v, "value is below the minimum "+FormatFloat(*ns.Min))
	}
	if ns.Max != nil && f > *ns.Max {
		return invalid(col, v, "value is above the maximum "+FormatFloat(*ns.Max))
	}
	if ns.Step != nil && *ns.Step > 0 {
		base := decimal.Zero
		if ns.Min != nil {
			base = decimal.NewFromFloat(*ns.Min)
		}
		rem := decimal.NewFromFloat(f).Sub(base).Mod(decimal.NewFromFloat(*ns.Step))
		if !rem.IsZero() {
			return invalid(col, v, "value must be a multiple of the step "+FormatFloat(*ns.Step))
		}
	}
	return nil
}

func invalid(col Column, v Value, msg string) error {
	return ValidationError{Field: col.Name, Value: FormatValue(v), Message: msg}
}
