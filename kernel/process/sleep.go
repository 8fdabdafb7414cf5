package process

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/sync"
)

var errSleepNotScheduled = &kernel.Error{Module: "process", Message: "sleep: slot is not Scheduled"}

// Sleep blocks the current process on channel, atomically releasing g (a
// guard on the lock protecting the sleeper's condition) and re-acquiring it
// before returning. The caller must re-check its condition after Sleep
// returns; a wakeup is a hint, not a proof.
//
// The lost-wakeup window between "decided to sleep" and "visible in the
// pool" is closed in two steps: the slot turns BeingSlept under the pool
// lock, telling Wakeup a sleeper is in flight, and the pool sleep lock is
// parked on the process so putBack releases it only once the sleeper is
// pooled again, giving Wakeup something to wait on.
func Sleep(channel uintptr, g sync.Guard) sync.Guard {
	p := MyProc()
	p.Channel = channel
	p.State = Sleeping

	pg := poolLock.Acquire()
	if pool[p.PID].state != slotScheduled {
		kfmt.Panic(errSleepNotScheduled)
	}
	pool[p.PID].state = slotBeingSlept

	sg := poolSleepLock.Acquire()
	p.dropOnPutBack = &sg
	pg.Release()

	weak := g.Weaken()
	sched()

	p.Channel = 0
	return weak.Promote()
}

// Wakeup marks every pooled process sleeping on channel Runnable. A slot in
// the BeingSlept state belongs to a sleeper that has left its hart but is
// not yet pooled; Wakeup drops the pool lock, waits for the sleeper's
// hand-off guard to be released by putBack, and re-examines the slot, so a
// wakeup ordered after the corresponding sleep is never lost.
func Wakeup(channel uintptr) {
	g := poolLock.Acquire()

	pid := 0
	for pid < len(pool) {
		s := &pool[pid]

		if s.state == slotBeingSlept {
			g.Release()
			poolSleepLock.Acquire().Release()
			g = poolLock.Acquire()
			// Re-examine the same slot now that the sleeper has
			// been re-pooled (or is one round closer to it).
			continue
		}

		if s.state == slotPooling && s.proc != nil &&
			s.proc.State == Sleeping && s.proc.Channel == channel {
			s.proc.State = Runnable
		}
		pid++
	}

	g.Release()
}
