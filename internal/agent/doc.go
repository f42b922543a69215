// Package agent defines the boundary to the execution backend: the
// opaque component that actually produces answers and progress events
// for a task. Implementations live under internal/platform.
package agent
