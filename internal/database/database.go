package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// busyTimeout lets a writer wait for the other process's lock instead of failing with SQLITE_BUSY
const busyTimeout = "_pragma=busy_timeout(5000)"

// Store persists alerts and metric counters in sqlite
type Store struct {
	DB  *sql.DB
	now func() time.Time
}

// Open connects to the sqlite file at dbPath and creates the schema.
// ":memory:" gives a private in-memory database.
func Open(dbPath string) (*Store, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + busyTimeout
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// sqlite serializes writers; one connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	s := &Store{DB: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debugf("Database %s initialized successfully.", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL,
		chat_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		target_price REAL NOT NULL,
		direction TEXT NOT NULL,
		fired INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		fired_at INTEGER
	);`
	if _, err := s.DB.Exec(createTableQuery); err != nil {
		return errors.Wrap(err, "failed to create alerts table")
	}

	createIndex := `CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts (fired, symbol);`
	if _, err := s.DB.Exec(createIndex); err != nil {
		return errors.Wrap(err, "failed to create alerts index")
	}

	createMetricsTable := `
	CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL PRIMARY KEY,
		metric_value REAL NOT NULL
	);`
	if _, err := s.DB.Exec(createMetricsTable); err != nil {
		return errors.Wrap(err, "failed to create metrics table")
	}
	return nil
}

func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
