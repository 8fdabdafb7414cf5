package process

import "unsafe"

// Context register slots. The switch assembly stores ra at index 0, sp at
// index 1, and s0..s11 behind them; nothing else needs saving because the
// switch happens at a plain call boundary where every other register is
// caller-owned.
const (
	ctxRA = 0
	ctxSP = 1
)

// Context is a kernel context: the callee-saved register set exchanged by
// the cooperative context switch. One lives inside every Process and one per
// hart holds the scheduler's own context.
type Context struct {
	Regs [14]uint64
}

// funcPC recovers the entry PC of a Go function value, so a fresh process's
// context can point its saved ra at forkret. This is the classic funcval
// double-dereference; it relies only on a func value being a pointer to a
// struct whose first word is the code pointer.
func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}
