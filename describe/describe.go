// Package describe reconstructs CQL DDL text from schema metadata. The
// output mirrors what a CREATE statement for the object would look like; it
// is for display, not guaranteed to round-trip through a parser.
package describe

import (
	"fmt"
	"strings"

	"github.com/bawdo/goqlsh/engine"
	"github.com/bawdo/goqlsh/internal/quoting"
)

// Keyspace renders a CREATE KEYSPACE statement. Numeric replication values
// (replication factors) stay unquoted; everything else becomes a string
// literal. DURABLE_WRITES is shown only when disabled, matching the CQL
// default of true.
func Keyspace(ks *engine.KeyspaceSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE KEYSPACE %s WITH REPLICATION = {", ks.Name)
	for i, opt := range ks.Replication {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "'%s': %s", opt.Key, replicationValue(opt.Value))
	}
	b.WriteString("}")
	if !ks.DurableWrites {
		b.WriteString(" AND DURABLE_WRITES = false")
	}
	b.WriteString(";")
	return b.String()
}

// Table renders a CREATE TABLE statement with the primary key clause and the
// table options that differ from defaults.
func Table(ts *engine.TableSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s.%s (\n", ts.Keyspace, ts.Name)

	for _, col := range ts.Columns {
		fmt.Fprintf(&b, "    %s %s", col.Name, col.Type)
		if col.Static {
			b.WriteString(" STATIC")
		}
		b.WriteString(",\n")
	}

	b.WriteString("    PRIMARY KEY (")
	if len(ts.PartitionKey) > 1 {
		b.WriteString("(" + strings.Join(ts.PartitionKey, ", ") + ")")
	} else {
		b.WriteString(strings.Join(ts.PartitionKey, ", "))
	}
	for _, cc := range ts.Clustering {
		b.WriteString(", " + cc.Name)
	}
	b.WriteString(")\n)")

	var with []string
	if len(ts.Clustering) > 0 {
		orders := make([]string, len(ts.Clustering))
		for i, cc := range ts.Clustering {
			dir := "ASC"
			if cc.Descending {
				dir = "DESC"
			}
			orders[i] = cc.Name + " " + dir
		}
		with = append(with, "CLUSTERING ORDER BY ("+strings.Join(orders, ", ")+")")
	}
	if ts.CompactStorage {
		with = append(with, "COMPACT STORAGE")
	}
	if len(with) > 0 {
		b.WriteString(" WITH " + strings.Join(with, " AND "))
	}
	b.WriteString(";")
	return b.String()
}

// replicationValue formats one replication map value. Digit-only values are
// numbers in CQL; anything else is a quoted literal.
func replicationValue(v string) string {
	if v != "" && strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
		return v
	}
	return quoting.SingleQuote(v)
}
