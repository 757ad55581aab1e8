package hydatdb

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gaugelink.hydrology.org/internal/logging"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // Pure Go SQLite driver, registered as "sqlite"
)

// Client is a read-only handle on a HYDAT archive.
type Client struct {
	config  Config
	DB      *sql.DB
	Queries *Queries
	logger  *slog.Logger
}

// NewClient opens the archive named by config. File databases are opened
// read-only; ":memory:" opens a private writable database on a single
// connection, which tests use to build fixtures.
func NewClient(config Config) (*Client, error) {
	logger := slog.Default().With(slog.String("component", "hydatdb"))

	if !config.inMemory() {
		if _, err := os.Stat(config.DBPath); err != nil {
			return nil, fmt.Errorf("failed to stat HYDAT database: %w", err)
		}
	}

	db, err := sql.Open(config.driver(), dataSourceName(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open HYDAT database: %w", err)
	}

	configureConnectionPool(db, config)

	if err := db.Ping(); err != nil {
		logging.SafeCloseWithLogging(db, logger, "hydat_database")
		return nil, fmt.Errorf("failed to connect to HYDAT database: %w", err)
	}

	if config.verbose {
		logging.LogOperation(logger, "hydat_database_opened",
			slog.String("path", config.DBPath),
			slog.String("driver", config.driver()),
			slog.String("env", config.Env.String()))
	}

	return &Client{
		config:  config,
		DB:      db,
		Queries: New(db),
		logger:  logger,
	}, nil
}

func dataSourceName(config Config) string {
	if config.inMemory() {
		return ":memory:"
	}
	path := (&url.URL{Path: filepath.ToSlash(config.DBPath)}).EscapedPath()
	return "file:" + path + "?mode=ro"
}

func configureConnectionPool(db *sql.DB, config Config) {
	if config.inMemory() {
		// Every connection to :memory: is a distinct database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
}

// Close releases the database handle.
func (c *Client) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
