// Package format renders query results as text. Rendering is a pure
// function of the result plus a Config; the package holds no state, so the
// same inputs always produce the same output.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/bawdo/goqlsh/engine"
)

// Mode selects the output layout.
type Mode int

const (
	Tabular Mode = iota
	JSON
	CSV
	Expanded
)

func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case CSV:
		return "csv"
	case Expanded:
		return "expanded"
	default:
		return "tabular"
	}
}

// ParseMode resolves a mode name (case-insensitive).
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tabular":
		return Tabular, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "expanded":
		return Expanded, nil
	}
	return Tabular, errors.Errorf("unknown output format %q (tabular, json, csv)", name)
}

// Config controls rendering. It is owned by the shell session and passed by
// value on every call.
type Config struct {
	Mode     Mode
	MaxWidth int
	Color    bool
}

// DefaultConfig returns tabular output at 100 columns.
func DefaultConfig() Config {
	return Config{Mode: Tabular, MaxWidth: 100}
}

// NoRows is emitted for an empty result in every mode.
const NoRows = "(No rows)"

// Render turns a result into display text according to cfg.
func Render(cols []engine.Column, rows []engine.Row, cfg Config) string {
	if len(rows) == 0 || len(cols) == 0 {
		return NoRows
	}
	switch cfg.Mode {
	case JSON:
		return renderJSON(cols, rows)
	case CSV:
		return renderCSV(cols, rows)
	case Expanded:
		return renderExpanded(cols, rows)
	default:
		return renderTabular(cols, rows, cfg)
	}
}

// displayString renders a scalar the way the shell shows it. nil is the
// literal "null"; binary is hex; temporals are RFC 3339.
func displayString(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case []byte:
		return fmt.Sprintf("0x%x", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
