package sync

import (
	"sync/atomic"

	"rvkernel/kernel"
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/kfmt"
)

var (
	errSelfDeadlock    = &kernel.Error{Module: "sync", Message: "lock: hart already owns this lock"}
	errReleaseNotOwner = &kernel.Error{Module: "sync", Message: "lock: release attempted by non-owning hart"}
	errReleaseUnlocked = &kernel.Error{Module: "sync", Message: "lock: release of an unlocked lock"}
	errPromoteNotOwned = &kernel.Error{Module: "sync", Message: "lock: promote called on a guard that isn't this hart's weak guard"}

	// noOwner is not a valid hart id; it marks a Lock as currently
	// unheld.
	noOwner = ^uint64(0)
)

// Lock is a spin lock with integrated interrupt-disable discipline:
// acquiring it pushes the calling hart's IRQGate (disabling interrupts, with
// nesting) before spinning for the underlying word, and records which hart
// owns it so double-acquire and wrong-hart-release are caught instead of
// silently corrupting state.
type Lock struct {
	state uint32
	owner uint64
}

// Guard represents a held Lock. It is returned by Acquire (or by
// WeakGuard.Promote) and consumed by Release or Weaken; callers are expected to thread it through
// rather than re-deriving it, which makes a forgotten unlock obvious at a
// glance.
type Guard struct {
	lock *Lock
}

// WeakGuard remembers a Guard's identity after the lock has been released,
// so sleep can drop the user's lock across a context switch and
// re-acquire the same lock on wake without the caller re-specifying which
// lock that was.
type WeakGuard struct {
	lock *Lock
}

// Acquire blocks until the lock is held by the calling hart, disabling
// interrupts on this hart for as long as any lock (this one or another) is
// held. Re-entrant acquisition by the same hart is fatal.
func (l *Lock) Acquire() Guard {
	Gate().Push()

	if atomic.LoadUint64(&l.owner) == cpu.HartID() && atomic.LoadUint32(&l.state) != 0 {
		kfmt.Panic(errSelfDeadlock)
	}

	archAcquireSpinlock(&l.state, 1)
	atomic.StoreUint64(&l.owner, cpu.HartID())

	return Guard{lock: l}
}

// Release relinquishes a held Guard. It is fatal to release from a
// non-owning hart or to release an already-unlocked lock.
func (g Guard) Release() {
	g.lock.releaseAs(cpu.HartID())
	Gate().Pop()
}

// Weaken releases the lock but keeps a token identifying it, so the caller
// can later Promote back to a full Guard. Used by sleep to give up the
// user-supplied lock across the switch into sched.
func (g Guard) Weaken() WeakGuard {
	g.lock.releaseAs(cpu.HartID())
	Gate().Pop()
	return WeakGuard{lock: g.lock}
}

// Promote re-acquires the lock identified by a WeakGuard, returning a full
// Guard. Used on wake to restore the lock sleep released.
//
// Promote does not push the IRQ gate again: a woken sleeper resumes with its
// hart's gate already at depth 1 (the scheduler pushes before every switch
// into a process), and that hold becomes the promoted guard's hold. The
// guard's eventual Release pops it.
func (w WeakGuard) Promote() Guard {
	if w.lock == nil {
		kfmt.Panic(errPromoteNotOwned)
	}
	archAcquireSpinlock(&w.lock.state, 1)
	atomic.StoreUint64(&w.lock.owner, cpu.HartID())
	return Guard{lock: w.lock}
}

// releaseAs performs the owner check and state clear shared by Release and
// Weaken.
func (l *Lock) releaseAs(hart uint64) {
	if atomic.LoadUint32(&l.state) == 0 {
		kfmt.Panic(errReleaseUnlocked)
	}
	if atomic.LoadUint64(&l.owner) != hart {
		kfmt.Panic(errReleaseNotOwner)
	}
	atomic.StoreUint64(&l.owner, noOwner)
	atomic.StoreUint32(&l.state, 0)
}

// Held reports whether the lock is currently held by any hart. Intended for
// assertions (e.g. the pool lock's internal consistency checks), not for
// synchronization decisions.
func (l *Lock) Held() bool {
	return atomic.LoadUint32(&l.state) != 0
}
