// Package engine defines the query-engine contract the shell is built
// against, plus the two concrete engines that implement it: a Cassandra
// engine backed by gocql and a SQL engine backed by database/sql.
package engine

// Column describes one column of a result, in declaration order.
type Column struct {
	Name     string
	TypeHint string // driver-reported type name, informational only
}

// Row maps column name to a nullable scalar value.
type Row = map[string]any

// Result is the column/row payload of an executed statement. Columns is nil
// for statements that return no rows (DDL, INSERT, ...).
type Result struct {
	Columns []Column
	Rows    []Row
}

// ColumnSchema is one column definition of a table snapshot.
type ColumnSchema struct {
	Name   string
	Type   string
	Static bool
}

// ClusteringColumn is a clustering column with its stored sort direction.
type ClusteringColumn struct {
	Name       string
	Descending bool
}

// TableSchema is an immutable snapshot of a table's structure, fetched on
// demand and never cached across commands. Column order mirrors the schema's
// declared order: partition key, clustering columns, then the rest.
type TableSchema struct {
	Keyspace       string
	Name           string
	Columns        []ColumnSchema
	PartitionKey   []string
	Clustering     []ClusteringColumn
	CompactStorage bool
	Options        map[string]string
}

// ReplicationOption is one key/value pair of a keyspace's replication map.
// A slice of pairs (rather than a Go map) keeps the source ordering, which
// the describe output must mirror.
type ReplicationOption struct {
	Key   string
	Value string
}

// KeyspaceSchema is an immutable snapshot of a keyspace.
type KeyspaceSchema struct {
	Name          string
	Replication   []ReplicationOption
	DurableWrites bool
	Tables        []string
}

// Settings carries the per-statement execution flags owned by the shell
// loop. The engine reads them on every Execute call and never stores them.
type Settings struct {
	Consistency       string
	SerialConsistency string
	Tracing           bool
	PagingEnabled     bool
	PageSize          int
}

// DefaultSettings returns the startup settings: consistency ONE, serial
// consistency SERIAL, tracing off, paging on with 100 rows per page.
func DefaultSettings() Settings {
	return Settings{
		Consistency:       "ONE",
		SerialConsistency: "SERIAL",
		PagingEnabled:     true,
		PageSize:          100,
	}
}

// QueryEngine executes statements and exposes live schema metadata. All
// methods are blocking; the shell loop is single-threaded so implementations
// need no internal locking.
type QueryEngine interface {
	// Execute runs one statement and returns its result, or an *ExecError.
	Execute(stmt string, st Settings) (*Result, error)

	// Keyspaces lists all keyspace (schema) names.
	Keyspaces() ([]string, error)

	// Tables lists the table names in the given keyspace.
	Tables(keyspace string) ([]string, error)

	// TableMetadata fetches a fresh snapshot for "table" or "keyspace.table".
	// An unqualified name resolves against the current keyspace.
	TableMetadata(spec string) (*TableSchema, error)

	// KeyspaceMetadata fetches a fresh snapshot of the named keyspace.
	KeyspaceMetadata(name string) (*KeyspaceSchema, error)

	// CurrentKeyspace returns the selected keyspace, or "" when none is.
	CurrentKeyspace() string

	// UseKeyspace switches the current keyspace.
	UseKeyspace(name string) error

	Close() error
}

// SplitTableSpec splits "keyspace.table" into its parts. The keyspace part
// is "" when the spec is unqualified.
func SplitTableSpec(spec string) (keyspace, table string) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '.' {
			return spec[:i], spec[i+1:]
		}
	}
	return "", spec
}
