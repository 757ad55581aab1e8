package hydatdb

import (
	"fmt"
	"log/slog"

	"gaugelink.hydrology.org/internal/logging"
)

// TableCounts reports the row count of each HYDAT table the pipeline reads.
func (c *Client) TableCounts() (map[string]int, error) {
	rows, err := c.DB.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("failed to query table names: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows,
		slog.Default().With(slog.String("component", "debugging")),
		"database_rows")
	var tables []string

	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table names: %w", err)
	}

	counts := make(map[string]int)

	for _, table := range tables {
		var query string

		// Only known tables are counted, so the query text is always a constant.
		switch table {
		case "STATIONS":
			query = "SELECT COUNT(*) FROM STATIONS"
		case "DLY_FLOWS":
			query = "SELECT COUNT(*) FROM DLY_FLOWS"
		case "DLY_LEVELS":
			query = "SELECT COUNT(*) FROM DLY_LEVELS"
		case "VERSION":
			query = "SELECT COUNT(*) FROM VERSION"
		default:
			continue
		}

		var count int
		if err := c.DB.QueryRow(query).Scan(&count); err != nil {
			return nil, err
		}
		counts[table] = count
	}

	return counts, nil
}
