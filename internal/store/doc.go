// Package store defines the persistence interfaces and errors for the
// agent task subsystem. Implementations live under internal/platform.
package store
