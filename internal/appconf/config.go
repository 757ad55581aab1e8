package appconf

// Config holds the process-level settings shared by the CLI and the HTTP API.
type Config struct {
	Port      int
	Env       Environment
	Verbose   bool
	RateLimit int // requests per second per client
	// CacheSize bounds the number of per-origin responses kept in memory.
	CacheSize int
}
