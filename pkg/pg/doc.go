// Package pg manages the PostgreSQL connection pool, schema migrations, and
// shared error classification helpers.
package pg
