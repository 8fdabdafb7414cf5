// Package trap classifies and dispatches supervisor traps: device and timer
// interrupts taken in kernel mode, and the user->kernel transitions that
// arrive through the trampoline (syscalls, user-mode interrupts). The
// assembly entry points (kernelvec, uservec/userret, timervec) live in this
// package's .s files; the Go functions here are what they call into.
package trap

import (
	"rvkernel/kernel"
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/hal"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/process"
	"rvkernel/kernel/syscall"
)

// scause encoding: the interrupt bit plus the cause codes the kernel
// handles by name.
const (
	causeInterrupt = uint64(1) << 63

	irqSupervisorSoft     = 1
	irqSupervisorExternal = 9

	excEcallFromUser = 8
)

// sstatus and sip bits.
const (
	sstatusSIE  = uint64(1) << 1
	sstatusSPIE = uint64(1) << 5
	sstatusSPP  = uint64(1) << 8

	sipSSIP = uint64(1) << 1
)

// Device-interrupt classification results.
const (
	intrNone = iota
	intrTimer
	intrDevice
)

var (
	errKernelTrapFromUser   = &kernel.Error{Module: "trap", Message: "kernel trap taken from user mode"}
	errKernelTrapEnabled    = &kernel.Error{Module: "trap", Message: "kernel trap entered with interrupts enabled"}
	errKernelTrapException  = &kernel.Error{Module: "trap", Message: "unexpected exception in supervisor mode"}
	errUserTrapFromKernel   = &kernel.Error{Module: "trap", Message: "user trap taken from supervisor mode"}
	errUserTrapUnexpected   = &kernel.Error{Module: "trap", Message: "unexpected trap from user mode"}
	errKernelTrapUnexpected = &kernel.Error{Module: "trap", Message: "unexpected interrupt in supervisor mode"}
)

// Init points the hart's trap vector at the kernel trap entry. Every hart
// calls this once it is running on the kernel page table.
func Init() {
	cpu.WriteStvec(uint64(kernelvecAddr()))
}

// KernelTrap handles a trap taken while in supervisor mode. Called from
// kernelvec after it saved the caller-saved registers on the kernel stack.
// sepc and sstatus are preserved around any yield, since a timer-triggered
// switch can run other traps before this one returns.
func KernelTrap() {
	sepc := cpu.ReadSepc()
	sstatus := cpu.ReadSstatus()
	scause := cpu.ReadScause()

	if sstatus&sstatusSPP == 0 {
		kfmt.Panic(errKernelTrapFromUser)
	}
	if cpu.InterruptsEnabled() {
		kfmt.Panic(errKernelTrapEnabled)
	}

	if scause&causeInterrupt == 0 {
		kfmt.Printf("[trap] scause %x sepc %x stval %x\n", scause, sepc, cpu.ReadStval())
		kfmt.Panic(errKernelTrapException)
	}

	switch devIntr(scause) {
	case intrTimer:
		// A timer tick while a process's kernel side runs on this
		// hart turns into a voluntary yield.
		if p := process.MyProc(); p != nil && p.State == process.Running {
			process.YieldCPU()
		}
	case intrDevice:
		// Claimed and completed by devIntr.
	default:
		kfmt.Printf("[trap] scause %x sepc %x\n", scause, sepc)
		kfmt.Panic(errKernelTrapUnexpected)
	}

	cpu.WriteSepc(sepc)
	cpu.WriteSstatus(sstatus)
}

// UserTrap handles a trap taken from user mode. uservec has already
// switched to the kernel page table and this process's kernel stack before
// jumping here through the trap frame's trap field.
func UserTrap() {
	if cpu.ReadSstatus()&sstatusSPP != 0 {
		kfmt.Panic(errUserTrapFromKernel)
	}

	// Traps from now on are kernel traps.
	cpu.WriteStvec(uint64(kernelvecAddr()))

	p := process.MyProc()
	p.TrapFrame.EPC = cpu.ReadSepc()

	scause := cpu.ReadScause()
	switch {
	case scause == excEcallFromUser:
		// Resume past the ecall instruction, then run the syscall
		// with interrupts on.
		p.TrapFrame.EPC += 4
		cpu.EnableInterrupts()
		ret := syscall.Dispatch(p)
		p.TrapFrame.Regs[process.RegA0] = uint64(ret)

	case scause&causeInterrupt != 0:
		which := devIntr(scause)
		if which == intrNone {
			kfmt.Panic(errUserTrapUnexpected)
		}
		if which == intrTimer {
			process.YieldCPU()
		}

	default:
		kfmt.Printf("[trap] scause %x epc %x stval %x\n", scause, p.TrapFrame.EPC, cpu.ReadStval())
		kfmt.Panic(errUserTrapUnexpected)
	}

	UserTrapRet()
}

// devIntr classifies an interrupt cause. The supervisor software interrupt
// is the machine-mode timer trampoline's signal: acknowledge it and report
// a timer tick. A supervisor external interrupt is claimed from the PLIC
// and completed; an interrupt no driver claims is logged and ignored.
func devIntr(scause uint64) int {
	switch scause &^ causeInterrupt {
	case irqSupervisorSoft:
		cpu.ClearSip(sipSSIP)
		return intrTimer

	case irqSupervisorExternal:
		plic := hal.ActivePLIC()
		if plic == nil {
			return intrNone
		}
		irq := plic.Claim()
		if irq == 0 {
			return intrNone
		}
		switch irq {
		case mem.UARTIRQ, mem.VirtioBlkIRQ:
			// Serviced by the out-of-scope drivers; the core only
			// acknowledges.
		default:
			kfmt.Printf("[trap] unexpected external irq %d\n", irq)
		}
		plic.Complete(irq)
		return intrDevice
	}
	return intrNone
}
