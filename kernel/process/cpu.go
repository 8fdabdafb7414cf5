package process

import (
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/mem"
)

// CPU is the per-hart record: the scheduler's own context and the process
// this hart is currently running, if any. The IRQ-gate counters live in
// kernel/sync, indexed by the same hart id.
//
// A hart only ever touches its own record, so no lock guards the array.
type CPU struct {
	// SchedulerContext is where a departing process's Swtch lands:
	// the saved state of this hart's scheduler loop.
	SchedulerContext Context

	// Proc is the process currently running on this hart, or nil while
	// the hart is in its scheduler loop.
	Proc *Process
}

// CPUs holds one record per hart, indexed by hart id.
var CPUs [mem.NCPUs]CPU

// MyCPU returns the record belonging to the currently executing hart.
func MyCPU() *CPU {
	return &CPUs[cpu.HartID()]
}

// MyProc returns the process running on the current hart, or nil if the
// hart is in its scheduler loop.
func MyProc() *Process {
	return MyCPU().Proc
}
