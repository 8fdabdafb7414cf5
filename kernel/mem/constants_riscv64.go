//go:build riscv64
// +build riscv64

package mem

// Constants describing the geometry of an Sv39 rv64 address space and the
// kernel's fixed physical heap. These mirror the values fixed by the
// platform rather than anything the allocator or page-table code is free to
// pick.
const (
	// PointerShift is equal to log2(unsafe.Sizeof(uintptr)).
	PointerShift = 3

	// PageShift is equal to log2(PageSize).
	PageShift = 12

	// PageSize defines the system's page size in bytes.
	PageSize = Size(1 << PageShift)

	// PageOrder is an alias for PageShift; callers that talk about
	// page-table geometry read more naturally with this name.
	PageOrder = PageShift

	// HeapStart is the physical base address of the kernel's managed
	// heap. The linker places kernel text/data/bss and per-hart stacks
	// below this address.
	HeapStart = 0x80100000

	// HeapSize is the size, in bytes, of the physical heap handed to the
	// frame allocator.
	HeapSize = Size(128 * 1024 * 1024)

	// MaxPage is the number of PageSize frames in the heap.
	MaxPage = uint64(HeapSize) / uint64(PageSize)

	// MaxVA is the largest virtual address representable in Sv39 (39
	// usable bits).
	MaxVA = uintptr(1) << 38

	// Trampoline is the fixed virtual address, shared by every address
	// space, at which the trampoline page (uservec/userret) is mapped.
	Trampoline = MaxVA - uintptr(PageSize)

	// Trapframe is the fixed virtual address, one page below the
	// trampoline, at which a process's trap frame is mapped.
	Trapframe = Trampoline - uintptr(PageSize)
)

// Device MMIO base addresses, fixed by the platform.
const (
	UARTBase       = 0x10000000
	VirtioBlk0     = 0x10001000
	CLINTBase      = 0x02000000
	CLINTMtime     = CLINTBase + 0xBFF8
	CLINTMtimecmp0 = CLINTBase + 0x4000
	PLICBase       = 0x0C000000
	UARTIRQ        = 10
	VirtioBlkIRQ   = 1
)
