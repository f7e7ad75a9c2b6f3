package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                   { return nil }
func (nopStmt) NumInput() int                                  { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func resetSingleton() {
	singletonMu.Lock()
	singletonDB = nil
	singletonMu.Unlock()
}

func TestOpenLambdaReusesPool(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetSingleton()
	defer resetSingleton()

	db1, err := Open(context.Background(), "ignored", RuntimeLambda)
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	db2, err := Open(context.Background(), "ignored", RuntimeLambda)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	if db1 != db2 {
		t.Fatalf("expected singleton pointers to match")
	}
	if got := db1.Stats().MaxOpenConnections; got != 2 {
		t.Fatalf("expected lambda pool of 2, got %d", got)
	}
}

func TestOpenServerUsesFreshPool(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	db1, err := Open(context.Background(), "ignored", RuntimeServer)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db1.Close()
	db2, err := Open(context.Background(), "ignored", RuntimeServer)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db2.Close()
	if db1 == db2 {
		t.Fatalf("expected distinct pools outside lambda")
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultOptions(RuntimeServer))
	db, err := Connect(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
	want := Options{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: 20 * time.Minute, ConnMaxIdleTime: 45 * time.Second, PingTimeout: time.Second}
	if opts != want {
		t.Fatalf("expected %+v, got %+v", want, opts)
	}
}

func TestOptionsFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "-1")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	opts := OptionsFromEnv(DefaultOptions(RuntimeCLI))
	if opts != DefaultOptions(RuntimeCLI) {
		t.Fatalf("expected defaults kept, got %+v", opts)
	}
}

func TestDetectRuntime(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if got := DetectRuntime(); got != RuntimeServer {
		t.Fatalf("expected server, got %s", got)
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "woundtrack-bff")
	if got := DetectRuntime(); got != RuntimeLambda {
		t.Fatalf("expected lambda, got %s", got)
	}
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		ensureTestDriverRegistered()
		return sql.Open("dbtest", dsn)
	}
	defer func() {
		openDB = prev
	}()
	resetSingleton()
	defer resetSingleton()

	if _, err := GetSingleton(context.Background(), "ignored", DefaultOptions(RuntimeLambda)); err == nil {
		t.Fatalf("expected first call to fail")
	}
	db2, err := GetSingleton(context.Background(), "ignored", DefaultOptions(RuntimeLambda))
	if err != nil {
		t.Fatalf("expected second call to succeed: %v", err)
	}
	if db2 == nil {
		t.Fatalf("expected db after retry")
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultOptions(RuntimeServer)); !errors.Is(err, ErrNoDatabaseURL) {
		t.Fatalf("expected ErrNoDatabaseURL, got %v", err)
	}
}
