package trap

import (
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/hal"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/process"
	"unsafe"
)

// UserTrapRet returns the current process to user mode. It refreshes the
// trap frame's kernel-reentry fields, arms stvec at the trampoline's
// uservec, sets up sstatus/sepc for an sret into user code, and jumps to
// userret inside the trampoline mapping, which switches to the user page
// table and restores the user register file.
func UserTrapRet() {
	cpu.DisableInterrupts()

	p := process.MyProc()

	// Send the next user trap to uservec, addressed through the
	// trampoline mapping shared by every address space.
	cpu.WriteStvec(uint64(mem.Trampoline + uservecOffset()))

	tf := p.TrapFrame
	tf.Satp = vmm.KernelSatp()
	tf.SP = uint64(p.KStackTop())
	tf.HartID = cpu.HartID()
	tf.Trap = uint64(userTrapPC())

	s := cpu.ReadSstatus()
	s &^= sstatusSPP // previous privilege: user
	s |= sstatusSPIE // enable interrupts once in user mode
	cpu.WriteSstatus(s)

	cpu.WriteSepc(tf.EPC)

	userSatp := p.AddrSpace.Satp()
	jumpUserret(mem.Trapframe, userSatp, mem.Trampoline+userretOffset())
}

// userTrapPC is the address uservec jumps to after re-entering the kernel.
func userTrapPC() uintptr {
	f := UserTrap
	return **(**uintptr)(unsafe.Pointer(&f))
}

// uservecOffset and userretOffset locate the two trampoline entry points
// relative to the start of the trampoline text, so they can be addressed
// through the fixed TRAMPOLINE virtual mapping.
func uservecOffset() uintptr {
	return uservecAddr() - hal.TrampolineStart
}

func userretOffset() uintptr {
	return userretAddr() - hal.TrampolineStart
}
