package device

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLBackend answers device requests against a database/sql handle,
// grounded directly on a DBConn/DBManager.Connect pattern: one driver
// name per supported DSN scheme, a ping on connect, and pooled-
// connection tuning.
type SQLBackend struct {
	db   *sql.DB
	kind string
}

// SQLQuery is the Special payload a CmdQuery/CmdModify request carries:
// a parameterized statement plus its bind arguments.
type SQLQuery struct {
	Statement string
	Args      []any
}

// OpenSQL opens a driver connection for kind ("sqlite"/"postgres"/
// "mysql"/"sqlserver") against dsn, the same driver-name mapping and
// pool tuning a DBManager.Connect performs.
func OpenSQL(kind, dsn string) (*SQLBackend, error) {
	driverName, err := driverFor(kind)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("device/sql: open %s: %w", kind, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("device/sql: ping %s: %w", kind, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &SQLBackend{db: db, kind: kind}, nil
}

func driverFor(kind string) (string, error) {
	switch kind {
	case "sqlite":
		return "sqlite", nil // modernc.org/sqlite: pure Go, no cgo
	case "sqlite3":
		return "sqlite3", nil // mattn/go-sqlite3: cgo, used when cgo is available
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlserver", "mssql":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("device/sql: unsupported kind %q", kind)
	}
}

func (b *SQLBackend) Name() string { return "sql:" + b.kind }

// Handle answers CmdQuery (rows expected), CmdModify (rowcount
// expected), and CmdClose; any other command is an error, matching the
// device protocol's contract that a backend only implements the verbs
// meaningful to it.
func (b *SQLBackend) Handle(req *Request) Result {
	switch req.Command {
	case CmdQuery:
		return b.query(req)
	case CmdModify:
		return b.modify(req)
	case CmdClose:
		req.Err = b.db.Close()
		if req.Err != nil {
			return ResultError
		}
		return ResultDone
	default:
		req.Err = fmt.Errorf("device/sql: unsupported command %d", req.Command)
		return ResultError
	}
}

func (b *SQLBackend) query(req *Request) Result {
	q, ok := req.Special.(SQLQuery)
	if !ok {
		req.Err = fmt.Errorf("device/sql: CmdQuery requires a SQLQuery payload")
		return ResultError
	}
	rows, err := b.db.Query(q.Statement, q.Args...)
	if err != nil {
		req.Err = err
		return ResultError
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		req.Err = err
		return ResultError
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			req.Err = err
			return ResultError
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		result = append(result, row)
	}
	req.Special = result
	req.Actual = len(result)
	return ResultDone
}

func (b *SQLBackend) modify(req *Request) Result {
	q, ok := req.Special.(SQLQuery)
	if !ok {
		req.Err = fmt.Errorf("device/sql: CmdModify requires a SQLQuery payload")
		return ResultError
	}
	res, err := b.db.Exec(q.Statement, q.Args...)
	if err != nil {
		req.Err = err
		return ResultError
	}
	n, err := res.RowsAffected()
	if err != nil {
		req.Err = err
		return ResultError
	}
	req.Actual = int(n)
	return ResultDone
}
