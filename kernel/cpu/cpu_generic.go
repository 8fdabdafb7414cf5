//go:build !riscv64
// +build !riscv64

// Package cpu, on non-riscv64 hosts, provides a pure-Go stand-in for the
// privileged operations cpu_riscv64.s implements in assembly. It exists so
// that kernel/sync, kernel/process, and kernel/trap can be unit tested with
// `go test` on the development host instead of requiring a riscv64
// target.
//
// The simulated state below is intentionally simplistic: one global
// interrupt-enable flag and one hart id, good enough to exercise the IRQ
// gate and scheduler logic but not a faithful multi-hart model.
package cpu

import "sync/atomic"

var (
	interruptsEnabled uint32
	simulatedHartID   uint64
	simulatedMtime    uint64
)

// EnableInterrupts sets the simulated interrupt-enable flag.
func EnableInterrupts() {
	atomic.StoreUint32(&interruptsEnabled, 1)
}

// DisableInterrupts clears the simulated interrupt-enable flag and returns
// its previous value.
func DisableInterrupts() bool {
	return atomic.SwapUint32(&interruptsEnabled, 0) != 0
}

// InterruptsEnabled reports the simulated interrupt-enable flag.
func InterruptsEnabled() bool {
	return atomic.LoadUint32(&interruptsEnabled) != 0
}

// Halt is a no-op on the host; there is no hart to park.
func Halt() {}

// SfenceVMA is a no-op on the host; there is no TLB to flush.
func SfenceVMA() {}

// SwitchSatp is a no-op on the host.
func SwitchSatp(satp uint64) {}

// ReadSatp always returns 0 on the host.
func ReadSatp() uint64 { return 0 }

// HartID returns the id set by SetHartIDForTest, defaulting to 0. The id is
// a single value shared by every goroutine, not one per goroutine.
func HartID() uint64 {
	return atomic.LoadUint64(&simulatedHartID)
}

// SetHartIDForTest sets the simulated hart id seen by every goroutine. Only
// meaningful on the host build; production code never calls this.
func SetHartIDForTest(id uint64) {
	atomic.StoreUint64(&simulatedHartID, id)
}

// ReadMtime returns a monotonically increasing simulated tick counter.
func ReadMtime() uint64 {
	return atomic.AddUint64(&simulatedMtime, 1)
}
