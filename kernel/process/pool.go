package process

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/sync"
)

// slotState is the pool's view of one pid.
type slotState uint8

const (
	// slotNoProc marks an unused pid.
	slotNoProc slotState = iota

	// slotPooling holds a process that exists and is not currently
	// scheduled on any hart.
	slotPooling

	// slotScheduled marks a process currently owned by some hart (or a
	// pid reserved by fork while the child is under construction; the
	// slot's proc pointer is nil in that case).
	slotScheduled

	// slotBeingSlept marks a process transitioning to Sleeping that has
	// not yet been put back. Wakeup must wait for it rather than miss it.
	slotBeingSlept
)

// slot pairs a state with the pooled process. proc is non-nil only while
// the state is slotPooling: a scheduled process is owned by its hart, not
// by the pool.
type slot struct {
	state slotState
	proc  *Process
}

var (
	// poolLock totally orders every slot transition.
	poolLock sync.Lock

	// pool maps pid to slot. A process never migrates slots.
	pool [mem.NMaxProcs]slot

	// poolSleepLock serializes the final step of going to sleep: a
	// sleeper holds it from the moment its slot turns BeingSlept until
	// putBack re-pools it, and Wakeup briefly acquires it to wait for
	// in-flight sleepers.
	poolSleepLock sync.Lock
)

var (
	errPutBackBadSlot = &kernel.Error{Module: "process", Message: "put back into a slot that is neither scheduled nor being slept"}
	errInsertBadSlot  = &kernel.Error{Module: "process", Message: "insert into a slot that was not reserved"}
)

// reservePID claims the lowest unused pid for a process under construction,
// marking the slot Scheduled (with no process attached) so neither the
// scheduler nor a concurrent fork can touch it. Returns false if the pool
// is full.
func reservePID() (uint64, bool) {
	g := poolLock.Acquire()
	defer g.Release()

	for pid := uint64(0); pid < mem.NMaxProcs; pid++ {
		if pool[pid].state == slotNoProc {
			pool[pid].state = slotScheduled
			return pid, true
		}
	}
	return 0, false
}

// insert places a fully built process into its reserved slot as Pooling.
func insert(p *Process) {
	g := poolLock.Acquire()
	defer g.Release()

	if pool[p.PID].state != slotScheduled || pool[p.PID].proc != nil {
		kfmt.Panic(errInsertBadSlot)
	}
	pool[p.PID] = slot{state: slotPooling, proc: p}
}

// claimNext scans the pool round-robin starting at start, takes the first
// Runnable pooled process out of its slot (slot becomes Scheduled) and
// marks it Running. Returns false if no process is runnable.
func claimNext(start uint64) (*Process, bool) {
	g := poolLock.Acquire()
	defer g.Release()

	for i := uint64(0); i < mem.NMaxProcs; i++ {
		pid := (start + i) % mem.NMaxProcs
		s := &pool[pid]
		if s.state != slotPooling || s.proc == nil || s.proc.State != Runnable {
			continue
		}

		p := s.proc
		s.proc = nil
		s.state = slotScheduled
		p.State = Running
		return p, true
	}
	return nil, false
}

// putBack returns a process the scheduler is done with to the pool. If the
// process parked a sleep hand-off guard (it is mid-sleep), that guard is
// released once the slot transition is visible, which unblocks any Wakeup
// waiting on an in-flight sleeper. Reports whether a parked guard was
// released, so the scheduler knows whether the hart's gate push has already
// been consumed.
func putBack(p *Process) bool {
	g := poolLock.Acquire()

	s := &pool[p.PID]
	if s.state != slotScheduled && s.state != slotBeingSlept {
		g.Release()
		kfmt.Panic(errPutBackBadSlot)
	}
	*s = slot{state: slotPooling, proc: p}

	handoff := p.dropOnPutBack
	p.dropOnPutBack = nil
	g.Release()

	if handoff != nil {
		handoff.Release()
		return true
	}
	return false
}

// ReapZombies removes every pooled Zombie from the pool and releases its
// resources. The syscall surface never calls this; it is the reclamation
// hook the exit path leaves for a future wait implementation, and it gives
// tests a way to verify drop balance.
func ReapZombies() int {
	var dead []*Process

	g := poolLock.Acquire()
	for pid := range pool {
		s := &pool[pid]
		if s.state == slotPooling && s.proc != nil && s.proc.State == Zombie {
			dead = append(dead, s.proc)
			*s = slot{state: slotNoProc}
		}
	}
	g.Release()

	for _, p := range dead {
		p.free()
	}
	return len(dead)
}
