// Package service implements the two live observation paths over agent
// execution: the streaming executor, which runs a task in the caller's
// request lifetime while persisting the exchange as a conversation, and
// the watcher, which turns status polling on a queued task into an
// event stream.
package service
