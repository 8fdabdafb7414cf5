// Package hal collects the minimal Go-side contracts the kernel core needs
// from the platform's out-of-scope device collaborators (UART, PLIC,
// virtio-blk) and from the linker. None of these are implemented here; the
// core only depends on the interfaces, so the trap and file layers stay
// testable against fakes and the drivers stay swappable per platform.
package hal

import "rvkernel/kernel"

// UART is the contract the core's console file (kernel/file) needs from the
// out-of-scope UART driver.
type UART interface {
	// PutByte transmits a single byte, blocking if the transmit FIFO is
	// full.
	PutByte(b byte)

	// GetByte returns the next received byte and true, or false if none
	// is available.
	GetByte() (byte, bool)
}

// PLIC is the contract the trap dispatcher needs from the out-of-scope PLIC
// driver to identify and acknowledge a pending external interrupt.
type PLIC interface {
	// Claim returns the IRQ number of the highest-priority pending
	// interrupt, or 0 if none is pending.
	Claim() uint32

	// Complete acknowledges that irq has been serviced.
	Complete(irq uint32)
}

// BlockDevice is the contract the fake filesystem collaborator is built on
// top of (out of scope here; specified only by this interface).
type BlockDevice interface {
	// ReadBlock reads one BSIZE-sized block into buf.
	ReadBlock(blockNo uint64, buf []byte) *kernel.Error

	// WriteBlock writes one BSIZE-sized block from buf.
	WriteBlock(blockNo uint64, buf []byte) *kernel.Error
}

var (
	activeUART UART
	activePLIC PLIC
	activeDisk BlockDevice
)

// RegisterUART installs the platform's UART driver. Called once at boot.
func RegisterUART(u UART) { activeUART = u }

// RegisterPLIC installs the platform's PLIC driver. Called once at boot.
func RegisterPLIC(p PLIC) { activePLIC = p }

// RegisterBlockDevice installs the platform's virtio-blk driver. Called once
// at boot.
func RegisterBlockDevice(d BlockDevice) { activeDisk = d }

// ActiveUART returns the currently registered UART driver, or nil if none
// has been registered yet (true during the earliest boot stages).
func ActiveUART() UART { return activeUART }

// ActivePLIC returns the currently registered PLIC driver.
func ActivePLIC() PLIC { return activePLIC }

// ActiveBlockDevice returns the currently registered block device driver.
func ActiveBlockDevice() BlockDevice { return activeDisk }

// Linker symbols consumed by the core. No code in this tree assigns them,
// the assembly entry point included, so they keep the zero values below;
// host-side tests exercise the Go logic with those zero values.
var (
	TextStart, TextEnd               uintptr
	RodataStart, RodataEnd           uintptr
	DataStart, DataEnd               uintptr
	BSSStart, BSSEnd                 uintptr
	KernelStackStart, KernelStackEnd uintptr
	TrampolineStart                  uintptr
)
