//go:build !deadlock

// Package syncutil provides the mutex guarding the gate's enabled state.
// Build with -tags=deadlock to swap in deadlock detection during development.
package syncutil

import "sync"

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = false

// A Mutex is a mutual exclusion lock.
type Mutex struct {
	sync.Mutex
}
