package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// stubConn is an in-process stand-in for Postgres that understands the
// handful of statement shapes the store issues.
type stubConn struct {
	execs      []string
	state      map[string][]byte
	ledger     map[string][]driver.Value
	failPing   bool
	failExec   string
	failBegin  bool
	failCommit bool
	failQuery  bool
	rowsErr    error
	commits    int
	rollbacks  int
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

var stubSeq atomic.Int64

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{state: map[string][]byte{}, ledger: map[string][]driver.Value{}}
	name := fmt.Sprintf("stubpg-%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)
	return db, conn
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *stubConn) Ping(context.Context) error {
	if c.failPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

func (c *stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.failBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, query)
	if c.failExec != "" && strings.Contains(query, c.failExec) {
		return nil, fmt.Errorf("exec fail")
	}
	switch {
	case strings.HasPrefix(query, "INSERT INTO state"):
		c.state[args[0].Value.(string)] = args[1].Value.([]byte)
	case strings.HasPrefix(query, "INSERT INTO ledger_entries"):
		id := args[0].Value.(string)
		if _, exists := c.ledger[id]; !exists {
			row := make([]driver.Value, len(args))
			for i, a := range args {
				row[i] = a.Value
			}
			c.ledger[id] = row
		}
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if c.failQuery {
		return nil, fmt.Errorf("query fail")
	}
	if !strings.HasPrefix(query, "SELECT bucket, payload FROM state") {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	rows := &stubRows{cols: []string{"bucket", "payload"}, err: c.rowsErr}
	for bucket, payload := range c.state {
		rows.rows = append(rows.rows, []driver.Value{bucket, payload})
	}
	return rows, nil
}

type stubTx struct{ conn *stubConn }

func (t *stubTx) Commit() error {
	if t.conn.failCommit {
		return fmt.Errorf("commit fail")
	}
	t.conn.commits++
	return nil
}

func (t *stubTx) Rollback() error {
	t.conn.rollbacks++
	return nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
