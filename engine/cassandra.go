package engine

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/pkg/errors"
)

// CassandraConfig holds the connection parameters for a Cassandra engine.
type CassandraConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	Keyspace       string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// Cassandra is the gocql-backed QueryEngine. Schema metadata is read from
// system_schema on every call rather than from the driver's metadata cache,
// so DESCRIBE always reflects the live state.
type Cassandra struct {
	cluster  *gocql.ClusterConfig
	session  *gocql.Session
	host     string
	port     int
	keyspace string

	// TraceOut receives driver trace output when Settings.Tracing is set.
	TraceOut io.Writer
}

var _ QueryEngine = (*Cassandra)(nil)

// cqlTypeNames maps the driver's wire-protocol type identifiers to CQL type
// names. gocql.Type is a plain integer with no stringer.
var cqlTypeNames = map[gocql.Type]string{
	gocql.TypeCustom:    "custom",
	gocql.TypeAscii:     "ascii",
	gocql.TypeBigInt:    "bigint",
	gocql.TypeBlob:      "blob",
	gocql.TypeBoolean:   "boolean",
	gocql.TypeCounter:   "counter",
	gocql.TypeDecimal:   "decimal",
	gocql.TypeDouble:    "double",
	gocql.TypeFloat:     "float",
	gocql.TypeInt:       "int",
	gocql.TypeText:      "text",
	gocql.TypeTimestamp: "timestamp",
	gocql.TypeUUID:      "uuid",
	gocql.TypeVarchar:   "varchar",
	gocql.TypeVarint:    "varint",
	gocql.TypeTimeUUID:  "timeuuid",
	gocql.TypeInet:      "inet",
	gocql.TypeDate:      "date",
	gocql.TypeTime:      "time",
	gocql.TypeSmallInt:  "smallint",
	gocql.TypeTinyInt:   "tinyint",
	gocql.TypeDuration:  "duration",
	gocql.TypeList:      "list",
	gocql.TypeMap:       "map",
	gocql.TypeSet:       "set",
	gocql.TypeUDT:       "udt",
	gocql.TypeTuple:     "tuple",
}

// cqlTypeName renders a column type hint, falling back to the numeric
// identifier for types the map does not know.
func cqlTypeName(t gocql.Type) string {
	if name, ok := cqlTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(0x%04x)", int(t))
}

// ConnectCassandra opens a session against the configured contact point.
func ConnectCassandra(cfg CassandraConfig) (*Cassandra, error) {
	cluster := gocql.NewCluster(cfg.Host)
	if cfg.Port > 0 {
		cluster.Port = cfg.Port
	}
	if cfg.Keyspace != "" {
		cluster.Keyspace = cfg.Keyspace
	}
	if cfg.ConnectTimeout > 0 {
		cluster.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.RequestTimeout > 0 {
		cluster.Timeout = cfg.RequestTimeout
	}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s:%d", cfg.Host, cluster.Port)
	}
	return &Cassandra{
		cluster:  cluster,
		session:  session,
		host:     cfg.Host,
		port:     cluster.Port,
		keyspace: cfg.Keyspace,
		TraceOut: io.Discard,
	}, nil
}

// Host returns the configured contact point.
func (c *Cassandra) Host() string { return c.host }

// Port returns the native protocol port in use.
func (c *Cassandra) Port() int { return c.port }

// ClusterName reads the cluster name from system.local, best effort.
func (c *Cassandra) ClusterName() string {
	var name string
	_ = c.session.Query("SELECT cluster_name FROM system.local").Scan(&name)
	return name
}

// ReleaseVersion reads the server version from system.local, best effort.
func (c *Cassandra) ReleaseVersion() string {
	var v string
	_ = c.session.Query("SELECT release_version FROM system.local").Scan(&v)
	return v
}

func (c *Cassandra) Execute(stmt string, st Settings) (*Result, error) {
	q := c.session.Query(stmt)

	if level, err := gocql.ParseConsistencyWrapper(st.Consistency); err == nil {
		q.Consistency(level)
	}
	switch strings.ToUpper(st.SerialConsistency) {
	case "LOCAL_SERIAL":
		q.SerialConsistency(gocql.LocalSerial)
	default:
		q.SerialConsistency(gocql.Serial)
	}
	if st.PagingEnabled && st.PageSize > 0 {
		q.PageSize(st.PageSize)
	}
	if st.Tracing {
		q.Trace(gocql.NewTraceWriter(c.session, c.TraceOut))
	}

	iter := q.Iter()
	cols := iter.Columns()
	result := &Result{Columns: make([]Column, len(cols))}
	for i, col := range cols {
		result.Columns[i] = Column{Name: col.Name, TypeHint: cqlTypeName(col.TypeInfo.Type())}
	}
	for {
		row := make(Row, len(cols))
		if !iter.MapScan(row) {
			break
		}
		result.Rows = append(result.Rows, row)
	}
	if err := iter.Close(); err != nil {
		return nil, execError(err, "execute")
	}
	return result, nil
}

func (c *Cassandra) Keyspaces() ([]string, error) {
	iter := c.session.Query("SELECT keyspace_name FROM system_schema.keyspaces").Iter()
	var names []string
	var name string
	for iter.Scan(&name) {
		names = append(names, name)
	}
	if err := iter.Close(); err != nil {
		return nil, execError(err, "list keyspaces")
	}
	sort.Strings(names)
	return names, nil
}

func (c *Cassandra) Tables(keyspace string) ([]string, error) {
	iter := c.session.Query(
		"SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?", keyspace).Iter()
	var names []string
	var name string
	for iter.Scan(&name) {
		names = append(names, name)
	}
	if err := iter.Close(); err != nil {
		return nil, execError(err, "list tables")
	}
	sort.Strings(names)
	return names, nil
}

func (c *Cassandra) KeyspaceMetadata(name string) (*KeyspaceSchema, error) {
	var replication map[string]string
	var durable bool
	err := c.session.Query(
		"SELECT replication, durable_writes FROM system_schema.keyspaces WHERE keyspace_name = ?", name).
		Scan(&replication, &durable)
	if err == gocql.ErrNotFound {
		return nil, &LookupError{Kind: "keyspace", Name: name}
	}
	if err != nil {
		return nil, execError(err, "keyspace metadata")
	}

	tables, err := c.Tables(name)
	if err != nil {
		return nil, err
	}
	return &KeyspaceSchema{
		Name:          name,
		Replication:   orderReplication(replication),
		DurableWrites: durable,
		Tables:        tables,
	}, nil
}

// orderReplication copies the driver's map (gocql reuses it between calls)
// into ordered pairs: the strategy class first, remaining options sorted.
func orderReplication(replication map[string]string) []ReplicationOption {
	opts := make([]ReplicationOption, 0, len(replication))
	if class, ok := replication["class"]; ok {
		opts = append(opts, ReplicationOption{Key: "class", Value: class})
	}
	rest := make([]string, 0, len(replication))
	for k := range replication {
		if k != "class" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		opts = append(opts, ReplicationOption{Key: k, Value: replication[k]})
	}
	return opts
}

func (c *Cassandra) TableMetadata(spec string) (*TableSchema, error) {
	keyspace, table := SplitTableSpec(spec)
	if keyspace == "" {
		keyspace = c.keyspace
		if keyspace == "" {
			return nil, ErrNoKeyspace()
		}
	}

	iter := c.session.Query(
		`SELECT column_name, type, kind, position, clustering_order
		   FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ?`,
		keyspace, table).Iter()

	type colInfo struct {
		name, typ, kind, order string
		position               int
	}
	var cols []colInfo
	var ci colInfo
	for iter.Scan(&ci.name, &ci.typ, &ci.kind, &ci.position, &ci.order) {
		cols = append(cols, ci)
	}
	if err := iter.Close(); err != nil {
		return nil, execError(err, "table metadata")
	}
	if len(cols) == 0 {
		return nil, &LookupError{Kind: "table", Name: spec}
	}

	// Declared order: partition key by position, clustering by position,
	// static, then regular columns alphabetically (Cassandra's own order).
	kindRank := map[string]int{"partition_key": 0, "clustering": 1, "static": 2, "regular": 3}
	sort.Slice(cols, func(i, j int) bool {
		if kindRank[cols[i].kind] != kindRank[cols[j].kind] {
			return kindRank[cols[i].kind] < kindRank[cols[j].kind]
		}
		if cols[i].position != cols[j].position {
			return cols[i].position < cols[j].position
		}
		return cols[i].name < cols[j].name
	})

	ts := &TableSchema{Keyspace: keyspace, Name: table, Options: map[string]string{}}
	for _, col := range cols {
		ts.Columns = append(ts.Columns, ColumnSchema{
			Name:   col.name,
			Type:   col.typ,
			Static: col.kind == "static",
		})
		switch col.kind {
		case "partition_key":
			ts.PartitionKey = append(ts.PartitionKey, col.name)
		case "clustering":
			ts.Clustering = append(ts.Clustering, ClusteringColumn{
				Name:       col.name,
				Descending: strings.EqualFold(col.order, "desc"),
			})
		case "compact_value":
			ts.CompactStorage = true
		}
	}
	return ts, nil
}

func (c *Cassandra) CurrentKeyspace() string { return c.keyspace }

// UseKeyspace validates the keyspace and rebinds the session to it. gocql
// fixes the keyspace per session, so switching means reconnecting.
func (c *Cassandra) UseKeyspace(name string) error {
	name = strings.TrimSpace(name)
	var found string
	err := c.session.Query(
		"SELECT keyspace_name FROM system_schema.keyspaces WHERE keyspace_name = ?", name).
		Scan(&found)
	if err == gocql.ErrNotFound {
		return &LookupError{Kind: "keyspace", Name: name}
	}
	if err != nil {
		return execError(err, "use keyspace")
	}

	c.cluster.Keyspace = name
	session, err := c.cluster.CreateSession()
	if err != nil {
		return execError(err, "use keyspace")
	}
	c.session.Close()
	c.session = session
	c.keyspace = name
	return nil
}

func (c *Cassandra) Close() error {
	c.session.Close()
	return nil
}
