// Package history persists conversion job records in a local SQLite database.
package history
