//go:build riscv64
// +build riscv64

package cpu

// Supervisor trap CSR access. Each function is a single CSR instruction in
// csr_riscv64.s; the trap dispatcher composes them into the entry/exit
// sequences described by its own package documentation.

// ReadSepc returns the supervisor exception program counter.
func ReadSepc() uint64

// WriteSepc sets the supervisor exception program counter.
func WriteSepc(v uint64)

// ReadScause returns the supervisor trap cause register.
func ReadScause() uint64

// ReadStval returns the supervisor trap value register.
func ReadStval() uint64

// ReadSstatus returns the supervisor status register.
func ReadSstatus() uint64

// WriteSstatus sets the supervisor status register.
func WriteSstatus(v uint64)

// WriteStvec sets the supervisor trap vector base address.
func WriteStvec(v uint64)

// ReadSip returns the supervisor interrupt-pending register.
func ReadSip() uint64

// ClearSip clears the bits in mask from the supervisor interrupt-pending
// register. Used to acknowledge the software (timer) interrupt the
// machine-mode trampoline raised.
func ClearSip(mask uint64)
