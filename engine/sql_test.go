package engine

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"

	"github.com/bawdo/goqlsh/internal/testutil"
)

func mockSQL(t *testing.T, dialect, keyspace string) (*SQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &SQL{db: db, dialect: dialect, keyspace: keyspace}, mock
}

func TestSQLExecuteQuery(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow("1", "Alice").
			AddRow("2", nil))

	res, err := eng.Execute("SELECT id, name FROM users", DefaultSettings())
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(res.Columns), 2)
	testutil.AssertEqual(t, res.Columns[0].Name, "id")
	testutil.AssertEqual(t, len(res.Rows), 2)
	testutil.AssertEqual(t, res.Rows[0]["name"], any("Alice"))
	testutil.AssertEqual(t, res.Rows[1]["name"], any(nil))
	testutil.AssertNoError(t, mock.ExpectationsWereMet())
}

func TestSQLExecuteStatement(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectExec("DELETE FROM users WHERE id = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := eng.Execute("DELETE FROM users WHERE id = 1", DefaultSettings())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(res.Rows), 0)
	testutil.AssertNoError(t, mock.ExpectationsWereMet())
}

func TestSQLExecutePageSizeLimitsRows(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT id FROM events").WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow("1").AddRow("2").AddRow("3"))

	st := DefaultSettings()
	st.PageSize = 2
	res, err := eng.Execute("SELECT id FROM events", st)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(res.Rows), 2)
}

func TestSQLKeyspaces(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT schema_name FROM information_schema.schemata ORDER BY schema_name").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("public").AddRow("shop"))

	names, err := eng.Keyspaces()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(names), 2)
	testutil.AssertEqual(t, names[0], "public")
	testutil.AssertEqual(t, names[1], "shop")
	testutil.AssertNoError(t, mock.ExpectationsWereMet())
}

func TestSQLTables(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("users"))

	names, err := eng.Tables("public")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(names), 2)
	testutil.AssertEqual(t, names[0], "orders")
	testutil.AssertNoError(t, mock.ExpectationsWereMet())
}

func TestSQLTableMetadata(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position").
		WithArgs("public", "order_items").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("order_id", "UUID").
			AddRow("line_no", "INTEGER").
			AddRow("sku", "TEXT"))
	mock.ExpectQuery(`SELECT kcu.column_name
		   FROM information_schema.table_constraints tc
		   JOIN information_schema.key_column_usage kcu
		     ON tc.constraint_name = kcu.constraint_name
		    AND tc.table_schema = kcu.table_schema
		  WHERE tc.constraint_type = 'PRIMARY KEY'
		    AND tc.table_schema = $1
		    AND tc.table_name = $2
		  ORDER BY kcu.ordinal_position`).
		WithArgs("public", "order_items").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("order_id").AddRow("line_no"))

	ts, err := eng.TableMetadata("order_items")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ts.Keyspace, "public")
	testutil.AssertEqual(t, ts.Name, "order_items")
	testutil.AssertEqual(t, len(ts.Columns), 3)
	testutil.AssertEqual(t, ts.Columns[0].Type, "uuid")
	testutil.AssertEqual(t, len(ts.PartitionKey), 1)
	testutil.AssertEqual(t, ts.PartitionKey[0], "order_id")
	testutil.AssertEqual(t, len(ts.Clustering), 1)
	testutil.AssertEqual(t, ts.Clustering[0].Name, "line_no")
	testutil.AssertEqual(t, ts.Clustering[0].Descending, false)
}

func TestSQLTableMetadataMissingTable(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position").
		WithArgs("public", "nosuch").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))

	_, err := eng.TableMetadata("nosuch")
	testutil.AssertError(t, err)
	var lookup *LookupError
	if !errors.As(err, &lookup) {
		t.Fatalf("expected LookupError, got %T: %v", err, err)
	}
	testutil.AssertEqual(t, lookup.Kind, "table")
}

func TestSQLKeyspaceMetadata(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT schema_name FROM information_schema.schemata ORDER BY schema_name").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("public"))
	mock.ExpectQuery("SELECT table_name FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))

	ks, err := eng.KeyspaceMetadata("public")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ks.Name, "public")
	testutil.AssertEqual(t, ks.DurableWrites, true)
	testutil.AssertEqual(t, len(ks.Replication), 2)
	testutil.AssertEqual(t, ks.Replication[0].Key, "class")
	testutil.AssertEqual(t, ks.Replication[0].Value, "SimpleStrategy")
	testutil.AssertEqual(t, len(ks.Tables), 1)
}

func TestSQLUseKeyspacePostgres(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT schema_name FROM information_schema.schemata ORDER BY schema_name").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("public").AddRow("shop"))
	mock.ExpectExec(`SET search_path TO "shop"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	testutil.AssertNoError(t, eng.UseKeyspace("shop"))
	testutil.AssertEqual(t, eng.CurrentKeyspace(), "shop")
	testutil.AssertNoError(t, mock.ExpectationsWereMet())
}

func TestSQLUseKeyspaceMySQL(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "mysql", "app")

	mock.ExpectQuery("SELECT schema_name FROM information_schema.schemata ORDER BY schema_name").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("app").AddRow("analytics"))
	mock.ExpectExec("USE `analytics`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	testutil.AssertNoError(t, eng.UseKeyspace("analytics"))
	testutil.AssertEqual(t, eng.CurrentKeyspace(), "analytics")
}

func TestSQLUseKeyspaceUnknown(t *testing.T) {
	t.Parallel()
	eng, mock := mockSQL(t, "postgres", "public")

	mock.ExpectQuery("SELECT schema_name FROM information_schema.schemata ORDER BY schema_name").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("public"))

	err := eng.UseKeyspace("nosuch")
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, eng.CurrentKeyspace(), "public")
}

func TestReturnsRows(t *testing.T) {
	t.Parallel()
	tests := []struct {
		stmt string
		want bool
	}{
		{"SELECT * FROM t", true},
		{"  select 1", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"EXPLAIN SELECT 1", true},
		{"INSERT INTO t VALUES (1)", false},
		{"UPDATE t SET a = 1", false},
		{"CREATE TABLE t (a int)", false},
		{"", false},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, returnsRows(tt.stmt), tt.want)
	}
}
