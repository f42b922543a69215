// Package postgres provides PostgreSQL-backed implementations of the
// store interfaces. All stores accept a store.DBTX so they can run
// against a connection pool or an open transaction alike.
package postgres
