//go:build riscv64
// +build riscv64

package process

// Swtch saves the current callee-saved register set (ra, sp, s0..s11) into
// old and restores new's, resuming execution wherever new's ra points.
// Implemented in swtch_riscv64.s.
func Swtch(old, new *Context)
