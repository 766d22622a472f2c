package configsource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

// fakePG is a minimal database/sql driver that understands the three
// statements PostgresKV issues. Each DSN gets its own state.
type fakePG struct {
	mu     sync.Mutex
	states map[string]*fakePGState
}

type fakePGState struct {
	mu             sync.Mutex
	schemaFailures int
	schemaAttempts int
	values         map[string]string
}

var (
	fakePGDriver   = &fakePG{states: map[string]*fakePGState{}}
	fakePGRegister sync.Once
)

func openFakePG(t *testing.T, schemaFailures int) (*PostgresKV, *fakePGState) {
	t.Helper()
	fakePGRegister.Do(func() { sql.Register("dkn-fakepg", fakePGDriver) })
	st := &fakePGState{schemaFailures: schemaFailures, values: map[string]string{}}
	fakePGDriver.mu.Lock()
	fakePGDriver.states[t.Name()] = st
	fakePGDriver.mu.Unlock()

	db, err := sql.Open("dkn-fakepg", t.Name())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	kv := newPostgresKV(db)
	t.Cleanup(func() { _ = kv.Close() })
	return kv, st
}

func (d *fakePG) Open(name string) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[name]
	if !ok {
		return nil, errors.New("unknown dsn " + name)
	}
	return &fakePGConn{st: st}, nil
}

type fakePGConn struct{ st *fakePGState }

var errSchemaUnavailable = errors.New("server closed the connection unexpectedly")

func (c *fakePGConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare unsupported") }
func (c *fakePGConn) Close() error                       { return nil }
func (c *fakePGConn) Begin() (driver.Tx, error)          { return nil, errors.New("tx unsupported") }

func (c *fakePGConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	switch {
	case strings.Contains(query, "CREATE TABLE"):
		c.st.schemaAttempts++
		if c.st.schemaFailures > 0 {
			c.st.schemaFailures--
			return nil, errSchemaUnavailable
		}
	case strings.Contains(query, "INSERT INTO dkn_kv"):
		c.st.values[args[0].Value.(string)] = args[1].Value.(string)
	default:
		return nil, errors.New("unexpected exec: " + query)
	}
	return driver.RowsAffected(1), nil
}

func (c *fakePGConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.Contains(query, "SELECT value FROM dkn_kv") {
		return nil, errors.New("unexpected query: " + query)
	}
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	v, ok := c.st.values[args[0].Value.(string)]
	if !ok {
		return &fakePGRows{}, nil
	}
	return &fakePGRows{values: []string{v}}, nil
}

type fakePGRows struct {
	values []string
	pos    int
}

func (r *fakePGRows) Columns() []string { return []string{"value"} }
func (r *fakePGRows) Close() error      { return nil }

func (r *fakePGRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	dest[0] = r.values[r.pos]
	r.pos++
	return nil
}

func (s *fakePGState) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schemaAttempts
}

func TestPostgresKV_SchemaFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	kv, st := openFakePG(t, 1)

	if err := kv.Set(ctx, "config", `{"level":2}`); !errors.Is(err, errSchemaUnavailable) {
		t.Fatalf("first Set err=%v want %v", err, errSchemaUnavailable)
	}
	if err := kv.Set(ctx, "config", `{"level":2}`); err != nil {
		t.Fatalf("Set after schema recovered: %v", err)
	}
	got, err := kv.Get(ctx, "config")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != `{"level":2}` {
		t.Fatalf("Get=%q", got)
	}
	if n := st.attempts(); n != 2 {
		t.Fatalf("schema attempts=%d want 2", n)
	}
}

func TestPostgresKV_CancelledCallerDoesNotPoisonSchema(t *testing.T) {
	kv, st := openFakePG(t, 0)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := kv.Get(cancelled, "config"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Get with cancelled ctx err=%v want context.Canceled", err)
	}

	ctx := context.Background()
	if _, err := kv.Get(ctx, "config"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err=%v want ErrNotFound", err)
	}
	if err := kv.Set(ctx, "config", "{}"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if n := st.attempts(); n != 1 {
		t.Fatalf("schema attempts=%d want 1", n)
	}
}
