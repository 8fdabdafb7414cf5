package process

import (
	"rvkernel/kernel"
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/file"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/sync"
)

var (
	errSchedRunning       = &kernel.Error{Module: "process", Message: "sched called on a Running process"}
	errSchedInterruptible = &kernel.Error{Module: "process", Message: "sched called with interrupts enabled"}
	errSchedGateDepth     = &kernel.Error{Module: "process", Message: "sched called with gate depth != 1"}
	errInitExited         = &kernel.Error{Module: "process", Message: "init exited"}
	errZombieResumed      = &kernel.Error{Module: "process", Message: "zombie process resumed"}
)

// forkRetTarget is where forkret sends a fresh process once its locks are
// dropped: the trap package's user-return path. Wired by the boot sequence
// to avoid an import cycle between process and trap.
var forkRetTarget func()

// SetForkRetTarget installs the function a fresh process enters after its
// first switch in. Called once at boot.
func SetForkRetTarget(fn func()) {
	forkRetTarget = fn
}

// Init wires the process package into its collaborators: the spinlock
// package's spin-yield hook and the pipe layer's blocking primitives.
// Called once by the boot hart before the first process is created.
func Init() {
	sync.SetYieldFn(spinYield)
	file.SetBlockHooks(Sleep, Wakeup)
}

// Scheduler is the per-hart scheduler loop. It never returns: each pass
// enables interrupts (so a pending timer can fire between processes), claims
// the next Runnable process in round-robin pid order, switches into it, and
// re-pools it when it switches back.
func Scheduler() {
	c := MyCPU()
	last := uint64(0)

	for {
		cpu.EnableInterrupts()

		p, ok := claimNext(last)
		if !ok {
			last = 0
			continue
		}

		c.Proc = p
		sync.Gate().Push()
		Swtch(&c.SchedulerContext, &p.Context)

		// The process left the gate at depth 1. If putBack released a
		// parked sleep guard that pop has already happened; otherwise
		// balance our own push here.
		if !putBack(p) {
			sync.Gate().Pop()
		}
		c.Proc = nil
		last = (p.PID + 1) % mem.NMaxProcs
	}
}

// sched switches from the current process back to the hart's scheduler
// context. Preconditions, all fatal: the process is no longer Running, the
// hart's interrupts are off, and the gate is at depth exactly 1 (the caller
// holds nothing beyond the gate itself). The gate's saved interrupt
// preference belongs to this process, not to whatever runs on the hart in
// between, so it is preserved across the switch.
func sched() {
	p := MyProc()

	if p.State == Running {
		kfmt.Panic(errSchedRunning)
	}
	if cpu.InterruptsEnabled() {
		kfmt.Panic(errSchedInterruptible)
	}
	if sync.Gate().Depth() != 1 {
		kfmt.Panic(errSchedGateDepth)
	}

	saved := sync.Gate().SavedEnabled()
	c := MyCPU()
	Swtch(&p.Context, &c.SchedulerContext)

	// Possibly resumed on a different hart; re-read the gate.
	sync.Gate().SetSavedEnabled(saved)
}

// YieldCPU gives up the current hart to the scheduler. The process becomes
// Runnable and will be claimed again on a later round-robin pass.
func YieldCPU() {
	sync.Gate().Push()
	p := MyProc()
	p.State = Runnable
	sched()
	sync.Gate().Pop()
}

// spinYield is installed as the spinlock package's yield hook: a hart that
// has spun too long on a contended lock gives the scheduler a chance to run
// other work. It only fires from a running process that holds nothing but
// the gate push of the acquire attempt itself; in any other situation
// (scheduler context, nested locks) yielding would violate sched's
// preconditions, so the hart just keeps spinning.
func spinYield() {
	p := MyProc()
	if p == nil || p.State != Running {
		return
	}
	if sync.Gate().Depth() != 1 {
		return
	}
	p.State = Runnable
	sched()
}

// forkret is the first code a fresh process runs: the scheduler's switch
// lands here with the hart's gate still pushed. It drops that hold and
// enters the user-return path, which takes the process to user mode for the
// first time.
func forkret() {
	sync.Gate().Pop()
	forkRetTarget()
}

// Exit marks the current process a Zombie and yields the hart for good.
// Resources are reclaimed later by ReapZombies; init exiting is fatal.
func Exit(code int64) {
	p := MyProc()
	if p.PID == 0 {
		kfmt.Panic(errInitExited)
	}

	p.ExitCode = code
	sync.Gate().Push()
	p.State = Zombie
	sched()

	kfmt.Panic(errZombieResumed)
}
