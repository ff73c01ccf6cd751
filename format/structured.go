package format

import (
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/bawdo/goqlsh/engine"
)

// renderJSON emits an array of objects, one per row. Objects are built by
// hand so the keys keep the result's column order; encoding/json would sort
// a map's keys alphabetically.
func renderJSON(cols []engine.Column, rows []engine.Row) string {
	var b strings.Builder
	b.WriteString("[\n")
	for i, row := range rows {
		b.WriteString("  {")
		for j, col := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			key, _ := json.Marshal(col.Name)
			b.Write(key)
			b.WriteString(": ")
			if v, ok := row[col.Name]; !ok || v == nil {
				b.WriteString("null")
			} else {
				val, _ := json.Marshal(displayString(v))
				b.Write(val)
			}
		}
		b.WriteString("}")
		if i < len(rows)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("]")
	return b.String()
}

// renderCSV emits a header record followed by one record per row. Quoting
// follows RFC 4180 via encoding/csv; nulls become empty fields.
func renderCSV(cols []engine.Column, rows []engine.Row) string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Name
	}
	w.Write(header)

	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			if v, ok := row[col.Name]; !ok || v == nil {
				record[i] = ""
			} else {
				record[i] = displayString(v)
			}
		}
		w.Write(record)
	}
	w.Flush()
	return b.String()
}
