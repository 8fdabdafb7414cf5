package vmm

import (
	"rvkernel/kernel"
	"rvkernel/kernel/mem/pmm"
)

// satpModeSv39 is the 4-bit MODE field value that selects Sv39 paging.
const satpModeSv39 = uint64(8)

// AddressSpace is the exported handle processes and the boot sequence use
// to own a three-level Sv39 translation tree. pageTable itself stays
// unexported (it is only ever reached through a frame-backed pointer, never
// constructed by value) so that every AddressSpace is guaranteed to be
// allocator-owned and walk-compatible.
type AddressSpace struct {
	root *pageTable
}

// New allocates a fresh, zeroed root table and returns the AddressSpace that
// owns it. Used both for the single kernel address space built once at boot
// and for every process's user address space.
func New() (*AddressSpace, *kernel.Error) {
	frame, err := frameAllocator()
	if err != nil {
		return nil, err
	}
	zeroFrame(frame)
	return &AddressSpace{root: pageTableAt(frame.Address())}, nil
}

// RootFrame returns the physical frame backing the root table.
func (as *AddressSpace) RootFrame() pmm.Frame {
	return pmm.FrameFromAddress(tableAddress(as.root))
}

// Satp computes the value to load into the satp CSR to make this address
// space active, in Sv39 mode with ASID 0 (the core never allocates distinct
// ASIDs; every switch does a full TLB flush per kernel/cpu.SwitchSatp).
func (as *AddressSpace) Satp() uint64 {
	ppn := uint64(as.RootFrame())
	return (satpModeSv39 << 60) | ppn
}

// KernelMap installs a supervisor-only mapping. See vmm.KernelMap.
func (as *AddressSpace) KernelMap(vaddr, paddr uintptr, flags PageTableEntryFlag) *kernel.Error {
	return KernelMap(as.root, vaddr, paddr, flags)
}

// UserMap installs a user-accessible mapping. See vmm.UserMap.
func (as *AddressSpace) UserMap(vaddr, paddr uintptr, flags PageTableEntryFlag) *kernel.Error {
	return UserMap(as.root, vaddr, paddr, flags)
}

// IDMapRange identity-maps [base, base+size). See vmm.IDMapRange.
func (as *AddressSpace) IDMapRange(base, size uintptr, flags PageTableEntryFlag) *kernel.Error {
	return IDMapRange(as.root, base, size, flags)
}

// PaddrOf resolves vaddr through this address space.
func (as *AddressSpace) PaddrOf(vaddr uintptr) (uintptr, *kernel.Error) {
	return PaddrOf(as.root, vaddr)
}

// AllocUserPage allocates one fresh frame from the global allocator and
// maps it at vaddr with flags, which must include FlagUser. It is the
// building block init_proc, fork, and exec use to populate a user image
// one page at a time.
func (as *AddressSpace) AllocUserPage(vaddr uintptr, flags PageTableEntryFlag) *kernel.Error {
	frame, err := frameAllocator()
	if err != nil {
		return err
	}
	zeroFrame(frame)
	return as.UserMap(vaddr, frame.Address(), flags)
}
