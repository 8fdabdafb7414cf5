package vmm

import "rvkernel/kernel"

// PaddrOf walks root looking for the leaf mapping vaddr and, if one is
// present, returns the physical address it resolves to (page base plus the
// original page offset).
func PaddrOf(root *pageTable, vaddr uintptr) (uintptr, *kernel.Error) {
	pte, ok := walk(root, vaddr, false)
	if !ok || !pte.Valid() || !pte.Leaf() {
		return 0, ErrInvalidMapping
	}

	return pte.Frame().Address() | PageOffset(vaddr), nil
}

// PageOffset returns the low, within-page bits of a virtual or physical
// address.
func PageOffset(addr uintptr) uintptr {
	return addr - PageFloor(addr)
}
