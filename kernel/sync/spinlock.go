// Package sync provides synchronization primitive implementations: a plain
// spinlock, the interrupt-aware Lock, and the per-hart IRQ gate.
package sync

import "sync/atomic"

var (
	// yieldFn is invoked after attemptsBeforeYielding failed acquire
	// attempts. It is nil until the scheduler installs its own yield via
	// SetYieldFn; tests substitute runtime.Gosched to avoid deadlocking
	// the host's goroutine scheduler while busy-waiting.
	yieldFn func()
)

// SetYieldFn installs the function the spinlock calls when a hart has spun
// past attemptsBeforeYielding without acquiring the lock. The process
// package wires this to its scheduler's Yield once harts are cooperatively
// scheduled.
func SetYieldFn(fn func()) {
	yieldFn = fn
}

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	archAcquireSpinlock(&l.state, 1)
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// archAcquireSpinlock busy-waits, using an AMOSWAP-style compare-and-swap,
// until it can transition state from 0 to 1. After attemptsBeforeYielding
// failed attempts it calls yieldFn (if installed) before continuing to spin,
// so a hart parked behind a long-held lock gives the scheduler a chance to
// run other work instead of burning its timeslice.
func archAcquireSpinlock(state *uint32, attemptsBeforeYielding uint32) {
	var attempts uint32
	for !atomic.CompareAndSwapUint32(state, 0, 1) {
		attempts++
		if attempts >= attemptsBeforeYielding {
			attempts = 0
			if yieldFn != nil {
				yieldFn()
			}
		}
	}
}
