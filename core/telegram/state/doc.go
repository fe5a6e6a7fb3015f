// Package state persists one pending-input expectation per user in the
// key-value store and dispatches input to the step registered for it.
package state
