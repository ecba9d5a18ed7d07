package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// The three statements are prepared once per connection lifetime. Their
// shape never changes, only the bound parameters vary per invocation.
const (
	stmtLookupIdentifier = "SELECT id FROM identifier " +
		"WHERE host = ? AND plugin = ? AND plugin_instance = ? " +
		"AND type = ? AND type_instance = ? AND data_source_name = ?"

	stmtInsertIdentifier = "INSERT INTO identifier " +
		"(host, plugin, plugin_instance, type, type_instance, " +
		"data_source_name, data_source_type) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?)"

	stmtInsertData = "INSERT INTO data " +
		"(identifier_id, timestamp, value) VALUES (?, ?, ?)"
)

// Options configure one database target.
type Options struct {
	// Name tags log lines, conventionally "mysql/<host>:<port>/<database>".
	Name string
	// Driver is a database/sql driver name, "mysql" in production.
	Driver string
	DSN    string
}

// Store writes value lists for a single database target. Each target owns
// its connection, its prepared statements and its identifier cache; nothing
// is shared between targets.
type Store struct {
	opts Options

	// mu serializes every use of conn and its statements. It is held for
	// the duration of a whole batch.
	mu   sync.Mutex
	conn *connection

	resolver *resolver
}

func New(opts Options) *Store {
	return &Store{
		opts:     opts,
		resolver: newResolver(),
	}
}

// Name returns the target name the store was configured with.
func (s *Store) Name() string {
	return s.opts.Name
}

// connection bundles a session with the statements prepared on it. The
// statements are non-nil exactly when the session is; the four are allocated
// and torn down together.
type connection struct {
	db *sql.DB

	lookupIdentifier *sql.Stmt
	insertIdentifier *sql.Stmt
	insertData       *sql.Stmt
}

func (c *connection) close() {
	for _, stmt := range []*sql.Stmt{c.lookupIdentifier, c.insertIdentifier, c.insertData} {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				log.Warn("failed to close statement", zap.Error(err))
			}
		}
	}
	c.lookupIdentifier = nil
	c.insertIdentifier = nil
	c.insertData = nil

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			log.Warn("failed to close session", zap.Error(err))
		}
		c.db = nil
	}
}

// connect establishes the session and prepares the three statements. It is a
// no-op when already connected. Any failure tears down whatever was partially
// opened, so the store is either fully Connected or fully Disconnected.
// Callers hold s.mu.
func (s *Store) connect(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	db, err := sql.Open(s.opts.Driver, s.opts.DSN)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrConnect, s.opts.Name, err)
	}
	// A single session: the statements prepared below are not safe for
	// concurrent use, and s.mu already serializes all callers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(3 * time.Minute)

	c := &connection{db: db}
	connected := false
	defer func() {
		if !connected {
			c.close()
		}
	}()

	if err = db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping %s: %v", ErrConnect, s.opts.Name, err)
	}

	for _, p := range []struct {
		query string
		stmt  **sql.Stmt
	}{
		{stmtLookupIdentifier, &c.lookupIdentifier},
		{stmtInsertIdentifier, &c.insertIdentifier},
		{stmtInsertData, &c.insertData},
	} {
		if *p.stmt, err = db.PrepareContext(ctx, p.query); err != nil {
			return fmt.Errorf("%w: prepare %q: %v", ErrConnect, p.query, err)
		}
		log.Debug("statement prepared", zap.String("target", s.opts.Name), zap.String("statement", p.query))
	}

	connected = true
	s.conn = c
	return nil
}

// disconnect closes the statements and the session, idempotently. Callers
// hold s.mu.
func (s *Store) disconnect() {
	if s.conn == nil {
		return
	}
	s.conn.close()
	s.conn = nil
}

// Close tears the target down. Safe to call on a target that never
// connected.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnect()
}

// isDuplicateErr reports whether err is a unique-constraint violation.
// MySQL signals ER_DUP_ENTRY (1062); the message match covers SQLite, which
// backs the hermetic tests.
func isDuplicateErr(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
