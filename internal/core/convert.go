package core

// convert.go turns user-typed text into cell values and back.
//
// Parsing is lenient in the same places people are sloppy:
//   - Multiple date formats (US, EU, ISO, etc.)
//   - Currency symbols and thousand separators in numbers
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Colors as #rrggbb or r,g,b
//
// Nested types (List, UniqueProperty) have no text form and cannot be parsed.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// ParseValue converts text entered for col into a cell value. The result
// still has to pass ValidateValue before it is written.
func ParseValue(col Column, text string) (Value, error) {
	s := strings.TrimSpace(text)
	switch col.Type {
	case TypeText, TypeEnum, TypeFilePath, TypeSheetReference, TypeLineReference:
		if col.Type == TypeText {
			return TextValue(text), nil
		}
		return TextValue(s), nil
	case TypeInt:
		if s == "" {
			return IntValue(0), nil
		}
		f, err := parseNumber(s)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, text)
		}
		return IntValue(int64(f)), nil
	case TypeFloat:
		if s == "" {
			return FloatValue(0), nil
		}
		f, err := parseNumber(s)
		if err != nil {
			return nil, err
		}
		return FloatValue(f), nil
	case TypeBoolean:
		if s == "" {
			return BoolValue(false), nil
		}
		b, ok := parseBool(s)
		if !ok {
			return nil, fmt.Errorf("%w: %q must be yes/no, true/false, or 1/0", ErrInvalidValue, text)
		}
		return BoolValue(b), nil
	case TypeDate:
		if s == "" {
			return DateValue{Time: DefaultDate}, nil
		}
		t, ok := parseDate(s)
		if !ok {
			return nil, fmt.Errorf("%w: invalid date %q (use YYYY-MM-DD or similar)", ErrInvalidValue, text)
		}
		return DateValue{Time: t}, nil
	case TypeColorRGB:
		if s == "" {
			return ColorValue{}, nil
		}
		return parseColor(s)
	case TypeList, TypeUniqueProperty:
		return nil, fmt.Errorf("%w: %s cells cannot be entered as text", ErrInvalidValue, col.Type)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, col.Type)
	}
}

// FormatValue renders a cell value as display text.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case TextValue:
		return string(val)
	case IntValue:
		return strconv.FormatInt(int64(val), 10)
	case FloatValue:
		return FormatFloat(float64(val))
	case BoolValue:
		return strconv.FormatBool(bool(val))
	case DateValue:
		return val.UTC().Format("2006-01-02")
	case ColorValue:
		return fmt.Sprintf("#%02x%02x%02x", clampByte(val.R), clampByte(val.G), clampByte(val.B))
	case SheetValue:
		if len(val.Rows) == 1 {
			return "[1 row]"
		}
		return fmt.Sprintf("[%d rows]", len(val.Rows))
	case RawValue:
		return string(val)
	default:
		return fmt.Sprint(v)
	}
}

// FormatFloat renders f in the shortest form that parses back to f.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseNumber(s string) (float64, error) {
	orig := s

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "\u20ac", "") // Euro
	s = strings.ReplaceAll(s, "\u00a3", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, fmt.Errorf("%w: invalid number %q", ErrInvalidValue, orig)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", ErrInvalidValue, orig)
	}
	return f, nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

func parseDate(s string) (time.Time, bool) {
	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

func parseColor(s string) (Value, error) {
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 {
			return nil, fmt.Errorf("%w: color %q must be #rrggbb", ErrInvalidValue, s)
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: color %q must be #rrggbb", ErrInvalidValue, s)
		}
		return ColorValue{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: color %q must be #rrggbb or r,g,b", ErrInvalidValue, s)
	}
	var comps [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: color %q must be #rrggbb or r,g,b", ErrInvalidValue, s)
		}
		comps[i] = n
	}
	return ColorValue{R: comps[0], G: comps[1], B: comps[2]}, nil
}

func clampByte(n int) int {
	return min(max(n, 0), 255)
}
