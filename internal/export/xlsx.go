// Package export turns sheets into formats meant for people: an XLSX
// workbook and a plain terminal table.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/JonMunkholm/geardb/internal/core"
)

// maxSheetName is the longest worksheet name Excel accepts.
const maxSheetName = 31

// WriteXLSX writes each sheet as a worksheet. Nested sheets that have
// been given an identity follow their parent as worksheets of their own;
// the parent cell shows the nested sheet's name.
func WriteXLSX(w io.Writer, sheets ...core.Sheet) error {
	wb := spreadsheet.New()

	font := wb.StyleSheet.AddFont()
	font.SetBold(true)
	header := wb.StyleSheet.AddCellStyle()
	header.SetFont(font)

	x := &xlsxWriter{wb: wb, header: header, names: make(map[string]bool)}
	for _, s := range sheets {
		x.addSheet(s)
	}
	if len(wb.Sheets()) == 0 {
		// A workbook needs at least one worksheet to open in Excel.
		x.addSheet(core.Sheet{Name: "Sheet1"})
	}

	if err := wb.Validate(); err != nil {
		return fmt.Errorf("validate workbook: %w", err)
	}
	if err := wb.Save(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

type xlsxWriter struct {
	wb     *spreadsheet.Workbook
	header spreadsheet.CellStyle
	names  map[string]bool
}

func (x *xlsxWriter) addSheet(s core.Sheet) {
	ws := x.wb.AddSheet()
	ws.SetName(x.uniqueName(s.Name))

	row := ws.AddRow()
	for _, c := range s.Columns {
		cell := row.AddCell()
		cell.SetString(c.Name)
		cell.SetStyle(x.header)
	}

	var nested []core.Sheet
	for _, r := range s.Rows {
		row := ws.AddRow()
		for _, c := range s.Columns {
			cell := row.AddCell()
			switch v := r.Cells[c.ID].(type) {
			case core.IntValue:
				cell.SetNumber(float64(v))
			case core.FloatValue:
				cell.SetNumber(float64(v))
			case core.BoolValue:
				cell.SetBool(bool(v))
			case core.DateValue:
				cell.SetDateWithStyle(v.Time)
			case core.SheetValue:
				if v.IsEmpty() {
					cell.SetString(core.FormatValue(v))
					continue
				}
				cell.SetString(v.Name)
				nested = append(nested, v.Sheet)
			default:
				cell.SetString(core.FormatValue(v))
			}
		}
	}

	for _, n := range nested {
		x.addSheet(n)
	}
}

// uniqueName makes name a legal worksheet name not used yet in this
// workbook.
func (x *xlsxWriter) uniqueName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "Sheet"
	}

	candidate := truncateRunes(name, maxSheetName)
	for i := 2; x.names[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(name, maxSheetName-len(suffix)) + suffix
	}
	x.names[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
