//go:build !riscv64
// +build !riscv64

package cpu

import "sync/atomic"

// Simulated supervisor trap CSRs, mirroring csr_riscv64.go the same way
// cpu_generic.go mirrors the interrupt-enable primitives: plain settable
// state, so kernel/trap's classification and entry/exit logic can be driven
// from `go test` without a riscv64 target.
var (
	simSepc    uint64
	simScause  uint64
	simStval   uint64
	simSstatus uint64
	simStvec   uint64
	simSip     uint64
)

// ReadSepc returns the simulated sepc value.
func ReadSepc() uint64 { return atomic.LoadUint64(&simSepc) }

// WriteSepc sets the simulated sepc value.
func WriteSepc(v uint64) { atomic.StoreUint64(&simSepc, v) }

// ReadScause returns the simulated scause value.
func ReadScause() uint64 { return atomic.LoadUint64(&simScause) }

// SetScauseForTest sets the simulated scause value. Only meaningful on the
// host build.
func SetScauseForTest(v uint64) { atomic.StoreUint64(&simScause, v) }

// ReadStval returns the simulated stval value.
func ReadStval() uint64 { return atomic.LoadUint64(&simStval) }

// SetStvalForTest sets the simulated stval value.
func SetStvalForTest(v uint64) { atomic.StoreUint64(&simStval, v) }

// ReadSstatus returns the simulated sstatus value.
func ReadSstatus() uint64 { return atomic.LoadUint64(&simSstatus) }

// WriteSstatus sets the simulated sstatus value.
func WriteSstatus(v uint64) { atomic.StoreUint64(&simSstatus, v) }

// WriteStvec sets the simulated stvec value.
func WriteStvec(v uint64) { atomic.StoreUint64(&simStvec, v) }

// ReadStvecForTest returns the simulated stvec value, so tests can observe
// where the trap path pointed the vector.
func ReadStvecForTest() uint64 { return atomic.LoadUint64(&simStvec) }

// ReadSip returns the simulated sip value.
func ReadSip() uint64 { return atomic.LoadUint64(&simSip) }

// SetSipForTest sets the simulated sip value.
func SetSipForTest(v uint64) { atomic.StoreUint64(&simSip, v) }

// ClearSip clears mask from the simulated sip value.
func ClearSip(mask uint64) {
	for {
		old := atomic.LoadUint64(&simSip)
		if atomic.CompareAndSwapUint64(&simSip, old, old&^mask) {
			return
		}
	}
}
