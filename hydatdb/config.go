package hydatdb

import "gaugelink.hydrology.org/internal/appconf"

const (
	// DriverModernc is the pure Go SQLite driver, used by default.
	DriverModernc = "sqlite"
	// DriverMattn is the cgo SQLite driver.
	DriverMattn = "sqlite3"
)

// Config holds configuration options for the Client
type Config struct {
	DBPath  string              // Path to the HYDAT SQLite archive
	Driver  string              // database/sql driver name: "sqlite" or "sqlite3"
	Env     appconf.Environment // Environment name: development, test, production.
	verbose bool                // Enable verbose logging
}

func NewConfig(dbPath string, env appconf.Environment, verbose bool) Config {
	return Config{
		DBPath:  dbPath,
		Driver:  DriverModernc,
		Env:     env,
		verbose: verbose,
	}
}

// WithDriver returns a copy of c using the named driver.
func (c Config) WithDriver(driver string) Config {
	c.Driver = driver
	return c
}

func (c Config) driver() string {
	if c.Driver == "" {
		return DriverModernc
	}
	return c.Driver
}

func (c Config) inMemory() bool {
	return c.DBPath == ":memory:"
}
