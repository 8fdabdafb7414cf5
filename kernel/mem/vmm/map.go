package vmm

import (
	"rvkernel/kernel"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

// mapPage installs a single leaf mapping vaddr -> paddr with the given
// flags into the table rooted at root, allocating any missing inner levels
// along the way. It refuses to overwrite an already-valid leaf and refuses
// misaligned addresses.
func mapPage(root *pageTable, vaddr, paddr uintptr, flags PageTableEntryFlag) *kernel.Error {
	if !Aligned(vaddr) || !Aligned(paddr) {
		return ErrMisaligned
	}

	pte, ok := walk(root, vaddr, true)
	if !ok {
		return ErrInvalidMapping
	}
	if pte.Valid() {
		return ErrAlreadyMapped
	}

	pte.SetFrame(pmm.FrameFromAddress(paddr))
	pte.SetFlags(flags | FlagValid)
	return nil
}

// KernelMap installs a supervisor-only (non-U) mapping into the kernel's
// page table. flags must not include FlagUser.
func KernelMap(root *pageTable, vaddr, paddr uintptr, flags PageTableEntryFlag) *kernel.Error {
	if flags&FlagUser != 0 {
		return ErrBadFlags
	}
	return mapPage(root, vaddr, paddr, flags)
}

// UserMap installs a user-accessible mapping into a process's page table.
// flags must include FlagUser.
func UserMap(root *pageTable, vaddr, paddr uintptr, flags PageTableEntryFlag) *kernel.Error {
	if flags&FlagUser == 0 {
		return ErrBadFlags
	}
	return mapPage(root, vaddr, paddr, flags)
}

// IDMapRange installs an identity mapping (vaddr == paddr) for every page in
// [base, base+size) using flags. Used at boot to map the kernel image,
// stacks, heap and MMIO windows into the kernel's own page table.
func IDMapRange(root *pageTable, base uintptr, size uintptr, flags PageTableEntryFlag) *kernel.Error {
	end := PageCeil(base + size)
	base = PageFloor(base)

	for addr := base; addr < end; addr += uintptr(mem.PageSize) {
		if err := KernelMap(root, addr, addr, flags); err != nil {
			return err
		}
	}
	return nil
}
