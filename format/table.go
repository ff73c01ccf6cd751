package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bawdo/goqlsh/engine"
)

// renderTabular draws the aligned grid layout. Every column's width is the
// longest value it holds (header included), clamped so the grid fits in
// cfg.MaxWidth; oversized cells are truncated with a "..." suffix.
func renderTabular(cols []engine.Column, rows []engine.Row, cfg Config) string {
	widths := columnWidths(cols, rows, cfg.MaxWidth)

	var b strings.Builder

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = fit(col.Name, widths[i])
	}
	b.WriteString(strings.Join(headers, " | "))
	b.WriteString(" |\n")

	dashes := make([]string, len(cols))
	for i, w := range widths {
		dashes[i] = strings.Repeat("-", w)
	}
	b.WriteString(strings.Join(dashes, "-+-"))
	b.WriteString("-+\n")

	cells := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			cells[i] = fit(displayString(row[col.Name]), widths[i])
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}
	return b.String()
}

// renderExpanded prints one block per row, a field per line. Useful for wide
// rows that would be unreadable as a grid.
func renderExpanded(cols []engine.Column, rows []engine.Row) string {
	var b strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&b, "@ Row %d\n", i+1)
		b.WriteString("-------------\n")
		for _, col := range cols {
			fmt.Fprintf(&b, "%s: %s\n", col.Name, displayString(row[col.Name]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// columnWidths measures in runes so multi-byte values align.
func columnWidths(cols []engine.Column, rows []engine.Row, maxTotal int) []int {
	clamp := maxTotal / len(cols)
	widths := make([]int, len(cols))
	for i, col := range cols {
		w := utf8.RuneCountInString(col.Name)
		for _, row := range rows {
			if n := utf8.RuneCountInString(displayString(row[col.Name])); n > w {
				w = n
			}
		}
		if w > clamp {
			w = clamp
		}
		widths[i] = w
	}
	return widths
}

// fit pads s to exactly width runes, truncating with "..." when it does not
// fit. Widths below three leave no room for the ellipsis, so the value is
// cut hard.
func fit(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		if width >= 3 {
			return string(runes[:width-3]) + "..."
		}
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}
