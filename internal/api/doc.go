// Package api implements the HTTP surface: task submission and status
// lookup, SSE streams for live and queued execution, and conversation
// history. Handlers depend on small service interfaces so they can be
// tested without a database or a model backend.
package api
