package format

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bawdo/goqlsh/engine"
	"github.com/bawdo/goqlsh/internal/testutil"
)

func cols(names ...string) []engine.Column {
	out := make([]engine.Column, len(names))
	for i, n := range names {
		out[i] = engine.Column{Name: n}
	}
	return out
}

func TestRenderTabular(t *testing.T) {
	t.Parallel()
	got := Render(
		cols("id", "name"),
		[]engine.Row{{"id": 1, "name": "Alice"}},
		Config{Mode: Tabular, MaxWidth: 100},
	)
	want := strings.Join([]string{
		"id | name  |",
		"---+-------+",
		"1  | Alice |",
		"",
	}, "\n")
	testutil.AssertEqual(t, got, want)
}

func TestRenderTabularTruncation(t *testing.T) {
	t.Parallel()
	got := Render(
		cols("c"),
		[]engine.Row{{"c": "abcdefghij"}},
		Config{Mode: Tabular, MaxWidth: 5},
	)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	testutil.AssertEqual(t, len(lines), 3)
	testutil.AssertEqual(t, lines[2], "ab... |")
	if !strings.HasSuffix(strings.TrimSuffix(lines[2], " |"), "...") {
		t.Errorf("truncated cell should end with ellipsis, got %q", lines[2])
	}
}

func TestRenderTabularUnicode(t *testing.T) {
	t.Parallel()
	got := Render(
		cols("c"),
		[]engine.Row{{"c": "αβγδε"}},
		Config{Mode: Tabular, MaxWidth: 4},
	)
	want := strings.Join([]string{
		"c    |",
		"-----+",
		"α... |",
		"",
	}, "\n")
	testutil.AssertEqual(t, got, want)
	if !utf8.ValidString(got) {
		t.Fatalf("output is not valid UTF-8: %q", got)
	}
}

func TestRenderTabularWidthBelowColumns(t *testing.T) {
	t.Parallel()
	got := Render(
		cols("id", "name"),
		[]engine.Row{{"id": 1, "name": "Alice"}},
		Config{Mode: Tabular, MaxWidth: 3},
	)
	want := strings.Join([]string{
		"i | n |",
		"--+---+",
		"1 | A |",
		"",
	}, "\n")
	testutil.AssertEqual(t, got, want)
}

func TestRenderTabularFieldWidths(t *testing.T) {
	t.Parallel()
	rows := []engine.Row{
		{"a": "x", "long_header": 7},
		{"a": "longer value", "long_header": nil},
	}
	got := Render(cols("a", "long_header"), rows, Config{Mode: Tabular, MaxWidth: 100})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	testutil.AssertEqual(t, len(lines), 4)
	width := len(lines[0])
	for i, line := range lines {
		if len(line) != width {
			t.Errorf("line %d width = %d, want %d: %q", i, len(line), width, line)
		}
		testutil.AssertEqual(t, strings.Count(line, "|")+strings.Count(line, "+"), 2)
	}
}

func TestRenderNoRows(t *testing.T) {
	t.Parallel()
	for _, mode := range []Mode{Tabular, JSON, CSV, Expanded} {
		got := Render(cols("id"), nil, Config{Mode: mode, MaxWidth: 100})
		testutil.AssertEqual(t, got, NoRows)
	}
	testutil.AssertEqual(t, Render(nil, nil, DefaultConfig()), NoRows)
}

func TestRenderIdempotent(t *testing.T) {
	t.Parallel()
	cs := cols("id", "name")
	rows := []engine.Row{{"id": 1, "name": "Alice"}, {"id": 2, "name": nil}}
	cfg := Config{Mode: Tabular, MaxWidth: 40}
	testutil.AssertEqual(t, Render(cs, rows, cfg), Render(cs, rows, cfg))
}

func TestRenderExpanded(t *testing.T) {
	t.Parallel()
	got := Render(
		cols("id", "name"),
		[]engine.Row{{"id": 1, "name": "Alice"}, {"id": 2, "name": nil}},
		Config{Mode: Expanded, MaxWidth: 100},
	)
	want := "@ Row 1\n-------------\nid: 1\nname: Alice\n\n" +
		"@ Row 2\n-------------\nid: 2\nname: null\n\n"
	testutil.AssertEqual(t, got, want)
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()
	got := Render(
		cols("id", "name", "note"),
		[]engine.Row{{"id": 1, "name": "Alice", "note": nil}},
		Config{Mode: JSON, MaxWidth: 100},
	)
	want := "[\n  {\"id\": \"1\", \"name\": \"Alice\", \"note\": null}\n]"
	testutil.AssertEqual(t, got, want)
}

func TestRenderCSVRoundTrip(t *testing.T) {
	t.Parallel()
	rows := []engine.Row{
		{"a": "plain", "b": "with, comma"},
		{"a": `has "quotes"`, "b": "multi\nline"},
	}
	got := Render(cols("a", "b"), rows, Config{Mode: CSV, MaxWidth: 100})

	records, err := csv.NewReader(strings.NewReader(got)).ReadAll()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(records), 3)
	testutil.AssertEqual(t, records[0][0], "a")
	testutil.AssertEqual(t, records[1][1], "with, comma")
	testutil.AssertEqual(t, records[2][0], `has "quotes"`)
	testutil.AssertEqual(t, records[2][1], "multi\nline")
}

func TestRenderCSVNulls(t *testing.T) {
	t.Parallel()
	got := Render(cols("a", "b"), []engine.Row{{"a": nil, "b": "x"}}, Config{Mode: CSV})
	testutil.AssertEqual(t, got, "a,b\n,x\n")
}

func TestDisplayString(t *testing.T) {
	t.Parallel()
	ts := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"string", "hi", "hi"},
		{"int", 42, "42"},
		{"bool", true, "true"},
		{"bytes", []byte{0xde, 0xad}, "0xdead"},
		{"time", ts, "2024-06-01T12:30:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, displayString(tt.in), tt.want)
		})
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]Mode{
		"tabular": Tabular, "JSON": JSON, "csv": CSV, "Expanded": Expanded,
	} {
		got, err := ParseMode(name)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, got, want)
	}
	if _, err := ParseMode("xml"); err == nil {
		t.Fatal("expected an error for unknown mode")
	}
}
