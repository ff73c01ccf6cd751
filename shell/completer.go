package shell

import (
	"strings"
)

// cqlKeywords is the static candidate set: offered in full at the start of a
// line and as the fallback when no narrower context applies.
var cqlKeywords = []string{
	"ADD", "AGGREGATE", "ALL", "ALLOW", "ALTER", "AND", "APPLY", "AS",
	"ASC", "AUTHORIZE", "BATCH", "BEGIN", "BY", "CLUSTERING",
	"COLUMNFAMILY", "COMPACT", "CONTAINS", "COUNT", "CREATE", "CUSTOM",
	"DELETE", "DESC", "DISTINCT", "DROP", "EXISTS", "FILTERING", "FROM",
	"FULL", "FUNCTION", "GRANT", "IF", "IN", "INDEX", "INSERT", "INTO",
	"IS", "JSON", "KEY", "KEYSPACE", "KEYSPACES", "LIMIT", "LIST",
	"MATERIALIZED", "MODIFY", "NOT", "NULL", "OF", "ON", "OR", "ORDER",
	"PARTITION", "PASSWORD", "PER", "PERMISSION", "PERMISSIONS",
	"PRIMARY", "REVOKE", "ROLE", "ROLES", "SCHEMA", "SELECT", "SET",
	"STATIC", "STORAGE", "SUPERUSER", "TABLE", "TIMESTAMP", "TO",
	"TOKEN", "TRUNCATE", "TTL", "TYPE", "UNLOGGED", "UPDATE", "USE",
	"USER", "USERS", "USING", "VALUES", "VIEW", "WHERE", "WITH",
	"WRITETIME",
}

// Context describes one completion request: the buffer up to the cursor,
// the word being typed, and that word's position on the line. Built fresh
// per request, never persisted.
type Context struct {
	Buffer    string
	Word      string
	WordIndex int
}

// NewContext derives a completion context from the buffer left of the
// cursor.
func NewContext(buffer string) Context {
	word := lastWord(buffer)
	idx := len(strings.Fields(buffer))
	if word != "" && idx > 0 {
		idx--
	}
	return Context{Buffer: buffer, Word: word, WordIndex: idx}
}

// Completer produces candidates against the session's live schema. Metadata
// failures degrade to no candidates; completion never surfaces an error. The
// Do method adapts Complete to readline's AutoCompleter; other front ends
// can call Complete directly.
type Completer struct {
	sess *Session
}

// NewCompleter builds a completer bound to the session.
func NewCompleter(s *Session) *Completer {
	return &Completer{sess: s}
}

// Do returns completion candidates for the current line and cursor position.
// newLine holds the suffix to append for each candidate; length is the rune
// count of the prefix being completed.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	ctx := NewContext(string(line[:pos]))
	for _, cand := range c.Complete(ctx) {
		newLine = append(newLine, []rune(cand[len(ctx.Word):]+" "))
	}
	length = len([]rune(ctx.Word))
	return
}

// Complete collects candidates from the providers whose context matches,
// highest priority first: the full keyword list plus command names at the
// start of a line, keyspaces after USE, tables when the buffer holds a
// table-position keyword, columns when it holds a projection/condition
// keyword or an "=". When no context matches, the keyword list is the
// fallback. Candidates are prefix-filtered against the word being typed and
// deduplicated, keeping provider order.
func (c *Completer) Complete(ctx Context) []string {
	line, prefix := ctx.Buffer, ctx.Word
	if ctx.WordIndex == 0 {
		names := append(append([]string(nil), cqlKeywords...), c.sess.commandNames()...)
		return filterPrefix(dedup(names), prefix)
	}

	if isAfterKeyword(line, "use") {
		return filterPrefix(c.keyspaces(), prefix)
	}

	var out []string
	matched := false
	if isAfterKeyword(line, "from") || isAfterKeyword(line, "update") ||
		isAfterKeyword(line, "into") || isAfterKeyword(line, "join") {
		matched = true
		out = append(out, filterPrefix(c.tables(), prefix)...)
	}
	if isAfterKeyword(line, "select") || isAfterKeyword(line, "where") ||
		isAfterKeyword(line, "set") || strings.Contains(line, "=") {
		matched = true
		out = append(out, filterPrefix(c.columns(extractTableName(line)), prefix)...)
	}
	if matched {
		return dedup(out)
	}

	return filterPrefix(cqlKeywords, prefix)
}

func (c *Completer) keyspaces() []string {
	names, err := c.sess.eng.Keyspaces()
	if err != nil {
		return nil
	}
	return names
}

func (c *Completer) tables() []string {
	ks := c.sess.eng.CurrentKeyspace()
	if ks == "" {
		return nil
	}
	names, err := c.sess.eng.Tables(ks)
	if err != nil {
		return nil
	}
	return names
}

func (c *Completer) columns(table string) []string {
	if table == "" {
		return nil
	}
	ts, err := c.sess.eng.TableMetadata(table)
	if err != nil {
		return nil
	}
	names := make([]string, len(ts.Columns))
	for i, col := range ts.Columns {
		names[i] = col.Name
	}
	return names
}

// isAfterKeyword reports whether kw occurs in the line as a whole word,
// bounded by whitespace or the line edges. Only the first occurrence is
// checked, and a keyword inside a string literal still counts; a linear
// scan, not a tokenizer.
func isAfterKeyword(line, kw string) bool {
	lower := strings.ToLower(line)
	i := strings.Index(lower, kw)
	if i < 0 {
		return false
	}
	end := i + len(kw)
	validStart := i == 0 || isSpaceByte(lower[i-1])
	validEnd := end == len(lower) || isSpaceByte(lower[end])
	return validStart && validEnd
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t'
}

// extractTableName finds the table a statement operates on: the word after
// the first FROM, UPDATE, or INTO, in that priority order.
func extractTableName(line string) string {
	words := strings.Fields(strings.ToLower(line))
	for _, kw := range []string{"from", "update", "into"} {
		for i, w := range words {
			if w == kw && i+1 < len(words) {
				return strings.Trim(words[i+1], "();,")
			}
		}
	}
	return ""
}

// lastWord returns the token being typed: everything after the final
// whitespace, comma, or opening paren.
func lastWord(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ' ', '\t', ',', '(':
			return s[i+1:]
		}
	}
	return s
}

// filterPrefix returns items starting with prefix, case-insensitively.
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lower := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lower) {
			result = append(result, item)
		}
	}
	return result
}

func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
