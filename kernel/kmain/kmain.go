// Package kmain drives the supervisor-mode boot sequence. The machine-mode
// assembly in start_riscv64.s arms each hart's timer, delegates traps, and
// drops into Kmain in supervisor mode; from there the boot hart builds the
// kernel's memory management and seeds the process pool while the other
// harts wait, and every hart ends up in its scheduler loop.
package kmain

import (
	"sync/atomic"

	"rvkernel/kernel"
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/kfmt/early"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm/allocator"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/process"
	"rvkernel/kernel/trap"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "scheduler returned"}

// booted flips to 1 once the boot hart has finished the shared setup the
// secondary harts depend on (allocator, kernel page table, init process).
var booted uint32

// Kmain is the per-hart supervisor-mode entry point, invoked by the
// start_riscv64.s assembly with this hart's id. It is not expected to
// return.
//
//go:noinline
func Kmain(hartID uint64) {
	if hartID == 0 {
		bootAllHarts()
	} else {
		for atomic.LoadUint32(&booted) == 0 {
		}
	}

	cpu.SwitchSatp(vmm.KernelSpace().Satp())
	trap.Init()
	kfmt.Printf("[kmain] hart %d online (mtime %d)\n", hartID, cpu.ReadMtime())

	process.Scheduler()

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating it as dead code and eliminating it.
	kfmt.Panic(errKmainReturned)
}

// bootAllHarts performs the one-time setup the boot hart owns: physical
// memory management, the kernel address space, the package wiring that
// breaks import cycles, and pid 0.
func bootAllHarts() {
	// The platform's start code registered its drivers before entering
	// Kmain; everything buffered so far replays to the UART now.
	InitConsole()

	early.Printf("[kmain] booting\n")

	if err := allocator.Init(mem.HeapStart, mem.HeapSize); err != nil {
		kfmt.Panic(err)
	}

	buildKernelSpace()

	process.Init()
	process.SetForkRetTarget(trap.UserTrapRet)
	process.InitProc()

	atomic.StoreUint32(&booted, 1)
}
