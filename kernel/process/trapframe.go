// Package process implements the kernel's process machinery: per-hart CPU
// state, the slotted process pool, the round-robin scheduler, the cross-hart
// sleep/wakeup protocol, and the process operations (init, fork, exec, exit)
// the syscall surface delegates to.
package process

// Register indices into TrapFrame.Regs, following the RISC-V integer
// register numbering the trampoline assembly saves them under. Only the
// registers the kernel reads by name are listed.
const (
	RegRA = 1
	RegSP = 2
	RegA0 = 10
	RegA1 = 11
	RegA2 = 12
	RegA3 = 13
	RegA4 = 14
	RegA5 = 15
	RegA7 = 17
)

// TrapFrame is the per-process scratch page where the trampoline saves the
// user register file on entry to the kernel and from which it restores on
// the way back out. The layout is fixed by the assembly contract: integer
// registers at byte offset 0, floating registers at 256, then satp (512),
// sp (520), hartid (528), trap (536), and epc (544). Field order below must
// never change.
type TrapFrame struct {
	Regs  [32]uint64
	FRegs [32]uint64

	// Satp holds the kernel satp; uservec loads it to switch back to the
	// kernel address space.
	Satp uint64

	// SP is the top of this process's kernel stack; uservec installs it
	// before jumping into Go code.
	SP uint64

	// HartID is the hart the process last ran on.
	HartID uint64

	// Trap is the address of the kernel's user-trap handler; uservec
	// jumps here after switching stacks.
	Trap uint64

	// EPC is the user program counter saved on entry and loaded into
	// sepc on return.
	EPC uint64
}
