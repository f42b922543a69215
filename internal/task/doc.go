// Package task implements the durable task queue: submission, the
// background scheduler with bounded retry, and the processor that
// advances a task record through its state machine.
package task
