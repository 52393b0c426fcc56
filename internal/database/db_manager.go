// Package database backs SanScript's db_open/db_query/db_exec/db_close
// native functions with real database/sql drivers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // sqlserver
	_ "github.com/go-sql-driver/mysql"   // mysql
	_ "github.com/lib/pq"                // postgres
	_ "github.com/mattn/go-sqlite3"      // sqlite
)

// Manager manages the database/sql connections backing SanScript handles.
// Handles are opaque string ids minted by Open; SanScript programs never
// see a *sql.DB or a row directly.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*conn
	nextID      int64
}

type conn struct {
	id       string
	driver   string
	db       *sql.DB
	created  time.Time
	lastUsed time.Time
}

// NewManager returns an empty connection manager.
func NewManager() *Manager {
	return &Manager{connections: make(map[string]*conn)}
}

// driverNames maps a SanScript-facing driver keyword to the database/sql
// driver name registered by the imports above.
var driverNames = map[string]string{
	"sqlite":     "sqlite3",
	"sqlite3":    "sqlite3",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"mysql":      "mysql",
	"mssql":      "sqlserver",
	"sqlserver":  "sqlserver",
}

// Open connects to dsn with the named driver and returns a fresh handle.
func (m *Manager) Open(driver, dsn string) (string, error) {
	driverName, ok := driverNames[driver]
	if !ok {
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return "", fmt.Errorf("failed to open: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return "", fmt.Errorf("failed to ping: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	id := fmt.Sprintf("db-%d", atomic.AddInt64(&m.nextID, 1))
	m.mu.Lock()
	m.connections[id] = &conn{id: id, driver: driverName, db: db, created: time.Now(), lastUsed: time.Now()}
	m.mu.Unlock()
	return id, nil
}

// Exec runs a statement that does not return rows and reports the number
// of rows affected.
func (m *Manager) Exec(handle, query string) (int64, error) {
	c, err := m.get(handle)
	if err != nil {
		return 0, err
	}
	result, err := c.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return result.RowsAffected()
}

// Query runs a statement that returns rows and renders the result as a
// simple text table: a header line of column names, then one line per
// row, fields separated by "|". SanScript has no compound value type, so
// this is the handle → String convention db_query uses.
func (m *Manager) Query(handle, query string) (string, error) {
	c, err := m.get(handle)
	if err != nil {
		return "", err
	}

	rows, err := c.db.Query(query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}

	out := joinRow(columns)
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		fields := make([]string, len(columns))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				fields[i] = string(b)
			} else {
				fields[i] = fmt.Sprintf("%v", v)
			}
		}
		out += "\n" + joinRow(fields)
	}
	return out, rows.Err()
}

func joinRow(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += "|"
		}
		out += f
	}
	return out
}

// Close closes and forgets a connection handle.
func (m *Manager) Close(handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.connections[handle]
	if !ok {
		return fmt.Errorf("connection '%s' not found", handle)
	}
	delete(m.connections, handle)
	return c.db.Close()
}

func (m *Manager) get(handle string) (*conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.connections[handle]
	if !ok {
		return nil, fmt.Errorf("connection '%s' not found", handle)
	}
	c.lastUsed = time.Now()
	return c, nil
}
