package engine

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/bawdo/goqlsh/internal/quoting"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var sqlDriverName = map[string]string{
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
}

// hard cap when paging is disabled, so a runaway SELECT cannot exhaust memory
const maxUnpagedRows = 1000

// SQL is the database/sql-backed QueryEngine for postgres, mysql and
// sqlite. Keyspace maps onto schema (postgres), database (mysql) or the
// attached database (sqlite); a table's primary key is reported with its
// first column as the partition key and the remainder as ASC clustering
// columns, so DESCRIBE output is an approximation over these engines.
type SQL struct {
	db       *sql.DB
	dialect  string
	dsn      string
	keyspace string
}

var _ QueryEngine = (*SQL)(nil)

// ConnectSQL opens and pings a database/sql connection for the dialect.
func ConnectSQL(dialect, dsn string) (*SQL, error) {
	driver, ok := sqlDriverName[dialect]
	if !ok {
		return nil, errors.Errorf("no driver for engine %q", dialect)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping")
	}

	s := &SQL{db: db, dialect: dialect, dsn: dsn}
	switch dialect {
	case "sqlite":
		s.keyspace = "main"
	case "mysql":
		// DSN form user:pass@tcp(host)/dbname selects a database up front.
		if i := strings.LastIndex(dsn, "/"); i >= 0 && i+1 < len(dsn) {
			name := dsn[i+1:]
			if j := strings.Index(name, "?"); j >= 0 {
				name = name[:j]
			}
			s.keyspace = name
		}
	case "postgres":
		s.keyspace = "public"
	}
	return s, nil
}

// Dialect returns the SQL dialect this engine speaks.
func (s *SQL) Dialect() string { return s.dialect }

func (s *SQL) Execute(stmt string, st Settings) (*Result, error) {
	if !returnsRows(stmt) {
		if _, err := s.db.Exec(stmt); err != nil {
			return nil, execError(err, "execute")
		}
		return &Result{}, nil
	}

	rows, err := s.db.Query(stmt)
	if err != nil {
		return nil, execError(err, "execute")
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, execError(err, "columns")
	}
	result := &Result{Columns: make([]Column, len(names))}
	for i, name := range names {
		result.Columns[i] = Column{Name: name}
	}
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			result.Columns[i].TypeHint = strings.ToLower(ct.DatabaseTypeName())
		}
	}

	limit := maxUnpagedRows
	if st.PagingEnabled && st.PageSize > 0 {
		limit = st.PageSize
	}
	for rows.Next() {
		if len(result.Rows) >= limit {
			break
		}
		vals := make([]*sql.NullString, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			vals[i] = &sql.NullString{}
			ptrs[i] = vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, execError(err, "scan")
		}
		row := make(Row, len(names))
		for i, v := range vals {
			if v.Valid {
				row[names[i]] = v.String
			} else {
				row[names[i]] = nil
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, execError(err, "rows")
	}
	return result, nil
}

// returnsRows reports whether the statement produces a result set.
func returnsRows(stmt string) bool {
	fields := strings.Fields(strings.ToLower(stmt))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "select", "show", "pragma", "with", "values", "explain", "describe":
		return true
	}
	return false
}

func (s *SQL) Keyspaces() ([]string, error) {
	var query string
	switch s.dialect {
	case "postgres", "mysql":
		query = "SELECT schema_name FROM information_schema.schemata ORDER BY schema_name"
	case "sqlite":
		return []string{"main"}, nil
	}
	return s.stringColumn(query)
}

func (s *SQL) Tables(keyspace string) ([]string, error) {
	switch s.dialect {
	case "postgres", "mysql":
		return s.stringColumn(
			"SELECT table_name FROM information_schema.tables WHERE table_schema = "+s.placeholder(1)+" ORDER BY table_name",
			keyspace)
	case "sqlite":
		return s.stringColumn(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	}
	return nil, errors.Errorf("unsupported engine: %s", s.dialect)
}

func (s *SQL) KeyspaceMetadata(name string) (*KeyspaceSchema, error) {
	keyspaces, err := s.Keyspaces()
	if err != nil {
		return nil, err
	}
	found := false
	for _, ks := range keyspaces {
		if ks == name {
			found = true
			break
		}
	}
	if !found {
		return nil, &LookupError{Kind: "keyspace", Name: name}
	}

	tables, err := s.Tables(name)
	if err != nil {
		return nil, err
	}
	// A relational schema has no replication; report the single-node
	// equivalent so DESCRIBE still emits a valid statement.
	return &KeyspaceSchema{
		Name: name,
		Replication: []ReplicationOption{
			{Key: "class", Value: "SimpleStrategy"},
			{Key: "replication_factor", Value: "1"},
		},
		DurableWrites: true,
		Tables:        tables,
	}, nil
}

func (s *SQL) TableMetadata(spec string) (*TableSchema, error) {
	keyspace, table := SplitTableSpec(spec)
	if keyspace == "" {
		keyspace = s.keyspace
		if keyspace == "" {
			return nil, ErrNoKeyspace()
		}
	}

	var cols []ColumnSchema
	var pk []string
	var err error
	switch s.dialect {
	case "sqlite":
		cols, pk, err = s.sqliteTableInfo(table)
	default:
		cols, pk, err = s.infoSchemaTableInfo(keyspace, table)
	}
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, &LookupError{Kind: "table", Name: spec}
	}

	ts := &TableSchema{Keyspace: keyspace, Name: table, Columns: cols, Options: map[string]string{}}
	if len(pk) > 0 {
		ts.PartitionKey = pk[:1]
		for _, name := range pk[1:] {
			ts.Clustering = append(ts.Clustering, ClusteringColumn{Name: name})
		}
	}
	return ts, nil
}

func (s *SQL) infoSchemaTableInfo(keyspace, table string) ([]ColumnSchema, []string, error) {
	rows, err := s.db.Query(
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = "+
			s.placeholder(1)+" AND table_name = "+s.placeholder(2)+" ORDER BY ordinal_position",
		keyspace, table)
	if err != nil {
		return nil, nil, execError(err, "table metadata")
	}
	defer func() { _ = rows.Close() }()

	var cols []ColumnSchema
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, nil, execError(err, "table metadata")
		}
		cols = append(cols, ColumnSchema{Name: name, Type: strings.ToLower(typ)})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, execError(err, "table metadata")
	}

	pk, err := s.stringColumn(
		`SELECT kcu.column_name
		   FROM information_schema.table_constraints tc
		   JOIN information_schema.key_column_usage kcu
		     ON tc.constraint_name = kcu.constraint_name
		    AND tc.table_schema = kcu.table_schema
		  WHERE tc.constraint_type = 'PRIMARY KEY'
		    AND tc.table_schema = `+s.placeholder(1)+`
		    AND tc.table_name = `+s.placeholder(2)+`
		  ORDER BY kcu.ordinal_position`,
		keyspace, table)
	if err != nil {
		return nil, nil, err
	}
	return cols, pk, nil
}

func (s *SQL) sqliteTableInfo(table string) ([]ColumnSchema, []string, error) {
	rows, err := s.db.Query("SELECT name, type, pk FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, nil, execError(err, "table metadata")
	}
	defer func() { _ = rows.Close() }()

	type pkCol struct {
		name string
		rank int
	}
	var cols []ColumnSchema
	var pkCols []pkCol
	for rows.Next() {
		var name, typ string
		var pk int
		if err := rows.Scan(&name, &typ, &pk); err != nil {
			return nil, nil, execError(err, "table metadata")
		}
		cols = append(cols, ColumnSchema{Name: name, Type: strings.ToLower(typ)})
		if pk > 0 {
			pkCols = append(pkCols, pkCol{name: name, rank: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, execError(err, "table metadata")
	}
	sort.Slice(pkCols, func(i, j int) bool { return pkCols[i].rank < pkCols[j].rank })
	pk := make([]string, len(pkCols))
	for i, c := range pkCols {
		pk[i] = c.name
	}
	return cols, pk, nil
}

func (s *SQL) CurrentKeyspace() string { return s.keyspace }

func (s *SQL) UseKeyspace(name string) error {
	name = strings.TrimSpace(name)
	keyspaces, err := s.Keyspaces()
	if err != nil {
		return err
	}
	found := false
	for _, ks := range keyspaces {
		if ks == name {
			found = true
			break
		}
	}
	if !found {
		return &LookupError{Kind: "keyspace", Name: name}
	}

	switch s.dialect {
	case "postgres":
		if _, err := s.db.Exec("SET search_path TO " + quoting.DoubleQuote(name)); err != nil {
			return execError(err, "use keyspace")
		}
	case "mysql":
		if _, err := s.db.Exec("USE " + quoting.Backtick(name)); err != nil {
			return execError(err, "use keyspace")
		}
	}
	s.keyspace = name
	return nil
}

func (s *SQL) placeholder(n int) string {
	if s.dialect == "postgres" {
		return "$" + string(rune('0'+n))
	}
	return "?"
}

func (s *SQL) stringColumn(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, execError(err, "metadata query")
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, execError(err, "metadata query")
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, execError(err, "metadata query")
	}
	return out, nil
}

func (s *SQL) Close() error { return s.db.Close() }
