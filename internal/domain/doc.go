// Package domain defines the core business entities and errors for the
// agent task subsystem: tasks, conversations, messages, and the stream
// events produced while a task executes.
package domain
