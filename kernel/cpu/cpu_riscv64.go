//go:build riscv64
// +build riscv64

// Package cpu exposes the handful of privileged RISC-V operations the rest
// of the kernel needs: CSR access, TLB/page-table activation, and the
// interrupt-enable bit. Each function below is implemented in
// cpu_riscv64.s; the Go declarations exist purely to give the assembly a
// typed, callable signature.
package cpu

// EnableInterrupts sets the supervisor interrupt-enable bit (sstatus.SIE).
func EnableInterrupts()

// DisableInterrupts clears the supervisor interrupt-enable bit and returns
// whether it was set beforehand, so callers can restore it later.
func DisableInterrupts() bool

// InterruptsEnabled reports the current value of sstatus.SIE without
// modifying it.
func InterruptsEnabled() bool

// Halt parks the hart in a wfi loop. Does not return.
func Halt()

// SfenceVMA flushes the entire TLB for the current hart. RISC-V has no
// single-address invalidation in the base ISA, so unlike amd64's
// FlushTLBEntry this always flushes everything.
func SfenceVMA()

// SwitchSatp installs a new page-table root (an already-shifted satp value,
// mode bits included) and flushes the TLB.
func SwitchSatp(satp uint64)

// ReadSatp returns the value of the satp CSR.
func ReadSatp() uint64

// HartID returns the value of the tp register, which start.s is required to
// have initialized to this hart's id before calling into Go code.
func HartID() uint64

// ReadMtime returns the CLINT's free-running mtime counter via a direct
// memory load (mtime is plain memory-mapped state, not a CSR).
func ReadMtime() uint64
