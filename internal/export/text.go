package export

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/JonMunkholm/geardb/internal/core"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const (
	minColWidth = 4
	maxColWidth = 30
	sampleRows  = 100
)

// TextOptions controls RenderText.
type TextOptions struct {
	// Width is the terminal width; columns that do not fit are dropped
	// and counted in the footer. Zero means unlimited.
	Width int
	// Plain disables colours and bold.
	Plain bool
}

// RenderText draws s as a table for a terminal.
func RenderText(s core.Sheet, opts TextOptions) string {
	style := func(st lipgloss.Style, text string) string {
		if opts.Plain {
			return text
		}
		return st.Render(text)
	}

	var b strings.Builder
	b.WriteString(style(titleStyle, s.Name))
	b.WriteString("\n")

	if len(s.Columns) == 0 {
		b.WriteString(style(dimStyle, "(no columns)"))
		b.WriteString("\n")
		return b.String()
	}

	widths := columnWidths(s)
	visible := visibleColumns(widths, opts.Width)

	var hdr []string
	for i := 0; i < visible; i++ {
		hdr = append(hdr, style(headerStyle, " "+fitCell(s.Columns[i].Name, widths[i], false)+" "))
	}
	b.WriteString(strings.Join(hdr, style(dimStyle, "│")))
	b.WriteString("\n")

	var sep []string
	for i := 0; i < visible; i++ {
		sep = append(sep, strings.Repeat("─", widths[i]+2))
	}
	b.WriteString(style(dimStyle, strings.Join(sep, "┼")))
	b.WriteString("\n")

	for _, r := range s.Rows {
		var cells []string
		for i := 0; i < visible; i++ {
			c := s.Columns[i]
			text := displayValue(r.Cells[c.ID])
			cells = append(cells, " "+fitCell(text, widths[i], isNumeric(c.Type))+" ")
		}
		b.WriteString(strings.Join(cells, style(dimStyle, "│")))
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("%d rows × %d columns", len(s.Rows), len(s.Columns))
	if hidden := len(s.Columns) - visible; hidden > 0 {
		footer += fmt.Sprintf(" (%d not shown)", hidden)
	}
	b.WriteString(style(dimStyle, footer))
	b.WriteString("\n")
	return b.String()
}

// displayValue is FormatValue with checkboxes for booleans.
func displayValue(v core.Value) string {
	if bv, ok := v.(core.BoolValue); ok {
		if bv {
			return "[x]"
		}
		return "[ ]"
	}
	return core.FormatValue(v)
}

func isNumeric(tag core.TypeTag) bool {
	return tag == core.TypeInt || tag == core.TypeFloat
}

// columnWidths sizes each column to its header and the first rows,
// within [minColWidth, maxColWidth].
func columnWidths(s core.Sheet) []int {
	widths := make([]int, len(s.Columns))
	for i, c := range s.Columns {
		widths[i] = max(runewidth.StringWidth(c.Name), minColWidth)
	}
	rows := s.Rows
	if len(rows) > sampleRows {
		rows = rows[:sampleRows]
	}
	for _, r := range rows {
		for i, c := range s.Columns {
			widths[i] = max(widths[i], runewidth.StringWidth(displayValue(r.Cells[c.ID])))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}
	return widths
}

// visibleColumns returns how many leading columns fit in avail cells.
// The first column is always shown.
func visibleColumns(widths []int, avail int) int {
	if avail <= 0 {
		return len(widths)
	}
	used := 0
	for i, w := range widths {
		used += w + 3 // padding and separator
		if used > avail && i > 0 {
			return i
		}
	}
	return len(widths)
}

// fitCell truncates or pads s to exactly width display cells.
func fitCell(s string, width int, right bool) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	if right {
		return runewidth.FillLeft(s, width)
	}
	return runewidth.FillRight(s, width)
}
