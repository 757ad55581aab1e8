package hydatdb

import (
	"database/sql"
	"strconv"
)

// NullStringOrEmpty returns the string value if valid, otherwise returns an empty string
func NullStringOrEmpty(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullFloat64OrDefault returns the float64 value if valid, otherwise returns the default value
func NullFloat64OrDefault(nf sql.NullFloat64, defaultValue float64) float64 {
	if nf.Valid {
		return nf.Float64
	}
	return defaultValue
}

// nullFloat64String formats a valid value and yields "" otherwise.
func nullFloat64String(nf sql.NullFloat64) string {
	if !nf.Valid {
		return ""
	}
	return strconv.FormatFloat(nf.Float64, 'f', -1, 64)
}
