// Package repository implements the data access layer for the application.
package repository

import (
	"strings"
	"time"

	"bazaar/internal/observability"
)

// trackQuery records query latency for the prometheus histogram when the
// returned function is deferred.
func trackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		observability.DatabaseQueryLatency.
			WithLabelValues(operation, table).
			Observe(time.Since(start).Seconds())
	}
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
// Covers PostgreSQL (SQLSTATE 23505) and SQLite message formats.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
