package shell

import (
	"sort"
	"testing"

	"github.com/bawdo/goqlsh/internal/testutil"
)

// complete runs the completer on line (cursor at end) and returns the full
// candidate words.
func complete(c *Completer, line string) []string {
	suffixes, _ := c.Do([]rune(line), len([]rune(line)))
	prefix := lastWord(line)
	words := make([]string, len(suffixes))
	for i, sfx := range suffixes {
		word := prefix + string(sfx)
		words[i] = word[:len(word)-1] // drop trailing space
	}
	sort.Strings(words)
	return words
}

func TestCompleteTablePrefix(t *testing.T) {
	t.Parallel()
	eng := stubEngine()
	eng.Keyspace = "shop"
	s, _, _ := newTestSession(eng)
	c := NewCompleter(s)

	got := complete(c, "SELECT * FROM us")
	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[0], "user_events")
	testutil.AssertEqual(t, got[1], "users")
}

func TestCompleteStartOfLine(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestSession(stubEngine())
	c := NewCompleter(s)

	got := complete(c, "SEL")
	testutil.AssertEqual(t, len(got), 1)
	testutil.AssertEqual(t, got[0], "SELECT")

	got = complete(c, "des")
	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[0], "DESC")
	testutil.AssertEqual(t, got[1], "DESCRIBE")

	got = complete(c, "WR")
	testutil.AssertEqual(t, len(got), 1)
	testutil.AssertEqual(t, got[0], "WRITETIME")

	if len(complete(c, "")) == 0 {
		t.Fatal("empty line should offer keywords and commands")
	}
}

func TestCompleteUseKeyspace(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestSession(stubEngine())
	c := NewCompleter(s)

	got := complete(c, "USE sh")
	testutil.AssertEqual(t, len(got), 1)
	testutil.AssertEqual(t, got[0], "shop")
}

func TestCompleteColumnsAfterWhere(t *testing.T) {
	t.Parallel()
	eng := stubEngine()
	eng.Keyspace = "shop"
	s, _, _ := newTestSession(eng)
	c := NewCompleter(s)

	// FROM and WHERE are both in the buffer, so tables and columns are
	// offered together.
	got := complete(c, "SELECT * FROM users WHERE ")
	testutil.AssertEqual(t, len(got), 6)
	testutil.AssertEqual(t, got[0], "email")
	testutil.AssertEqual(t, got[1], "id")
	testutil.AssertEqual(t, got[2], "logs")
	testutil.AssertEqual(t, got[3], "name")

	got = complete(c, "UPDATE users SET na")
	testutil.AssertEqual(t, len(got), 1)
	testutil.AssertEqual(t, got[0], "name")
}

func TestCompleteColumnsWithAssignment(t *testing.T) {
	t.Parallel()
	eng := stubEngine()
	eng.Keyspace = "shop"
	s, _, _ := newTestSession(eng)
	c := NewCompleter(s)

	got := complete(c, "UPDATE users SET name='x', em")
	testutil.AssertEqual(t, len(got), 1)
	testutil.AssertEqual(t, got[0], "email")
}

func TestCompleteTablesAfterLimit(t *testing.T) {
	t.Parallel()
	eng := stubEngine()
	eng.Keyspace = "shop"
	s, _, _ := newTestSession(eng)
	c := NewCompleter(s)

	got := c.Complete(NewContext("SELECT * FROM users LIMIT "))
	testutil.AssertEqual(t, len(got), 6)
	testutil.AssertEqual(t, got[0], "users")
	testutil.AssertEqual(t, got[1], "user_events")
	testutil.AssertEqual(t, got[2], "logs")
	testutil.AssertEqual(t, got[3], "id")
}

func TestCompleteNoKeyspaceSuggestsNothing(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestSession(stubEngine())
	c := NewCompleter(s)

	testutil.AssertEqual(t, len(c.Complete(NewContext("SELECT * FROM "))), 0)
}

func TestCompleteKeywordFallback(t *testing.T) {
	t.Parallel()
	eng := stubEngine()
	eng.Keyspace = "shop"
	s, _, _ := newTestSession(eng)
	c := NewCompleter(s)

	got := complete(c, "CREATE TA")
	testutil.AssertEqual(t, len(got), 1)
	testutil.AssertEqual(t, got[0], "TABLE")

	// A buffer in table/column context never falls back to keywords.
	testutil.AssertEqual(t, len(complete(c, "SELECT * FROM users WH")), 0)
}

func TestCompleteDegradesOnMetadataFailure(t *testing.T) {
	t.Parallel()
	eng := stubEngine()
	eng.Keyspace = "shop"
	eng.FailMetadata = true
	s, _, _ := newTestSession(eng)
	c := NewCompleter(s)

	testutil.AssertEqual(t, len(complete(c, "USE s")), 0)
	testutil.AssertEqual(t, len(complete(c, "SELECT * FROM us")), 0)
	testutil.AssertEqual(t, len(complete(c, "SELECT * FROM users WHERE ")), 0)
}

func TestNewContext(t *testing.T) {
	t.Parallel()
	tests := []struct {
		buffer string
		word   string
		index  int
	}{
		{"", "", 0},
		{"SEL", "SEL", 0},
		{"USE ", "", 1},
		{"USE sh", "sh", 1},
		{"SELECT * FROM us", "us", 3},
		{"SELECT a,b", "b", 1},
	}
	for _, tt := range tests {
		ctx := NewContext(tt.buffer)
		testutil.AssertEqual(t, ctx.Buffer, tt.buffer)
		testutil.AssertEqual(t, ctx.Word, tt.word)
		testutil.AssertEqual(t, ctx.WordIndex, tt.index)
	}
}

func TestCompleteDirect(t *testing.T) {
	t.Parallel()
	eng := stubEngine()
	eng.Keyspace = "shop"
	s, _, _ := newTestSession(eng)
	c := NewCompleter(s)

	got := c.Complete(NewContext("SELECT * FROM us"))
	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[0], "users")
	testutil.AssertEqual(t, got[1], "user_events")
}

func TestExtractTableName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want string
	}{
		{"select * from users where", "users"},
		{"select name from shop.users", "shop.users"},
		{"update users set name = 'x'", "users"},
		{"insert into events (id) values", "events"},
		{"select count(*) from events, users", "events"},
		{"delete", ""},
		{"", ""},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, extractTableName(tt.line), tt.want)
	}
}

func TestIsAfterKeyword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		kw   string
		want bool
	}{
		{"SELECT * FROM us", "from", true},
		{"SELECT * FROM ", "from", true},
		{"SELECT * FROM users ", "from", true},
		{"SELECT * FROM users LIMIT ", "from", true},
		{"SELECT * FROM", "from", true}, // whole word at the buffer edge
		{"UPDATE users SET name='x', em", "update", true},
		{"use sh", "use", true},
		{"users u", "use", false}, // substring, not a whole word
		{"xfrom t", "from", false},
		{"", "from", false},
	}
	for _, tt := range tests {
		if got := isAfterKeyword(tt.line, tt.kw); got != tt.want {
			t.Errorf("isAfterKeyword(%q, %q) = %v, want %v", tt.line, tt.kw, got, tt.want)
		}
	}
}
