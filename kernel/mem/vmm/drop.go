package vmm

// Drop tears down this address space: every valid U leaf releases its
// backing frame and every valid inner table releases itself. Non-U leaves
// (identity/MMIO/trampoline mappings) are not allocator-owned and are left
// untouched — their frames belong to the kernel image or to MMIO, not to
// the frame allocator.
func (as *AddressSpace) Drop() {
	dropLevel(as.root)
	frameDeallocator(as.RootFrame())
	as.root = nil
}

// dropLevel recursively releases everything owned by table, without
// releasing table's own frame (the caller does that once the recursive
// call returns, since the caller is the one holding table's address).
func dropLevel(table *pageTable) {
	for i := range table.entries {
		entry := &table.entries[i]
		if !entry.Valid() {
			continue
		}

		if entry.Leaf() {
			if entry.HasFlags(FlagUser) {
				frameDeallocator(entry.Frame())
			}
			continue
		}

		child := pageTableAt(entry.Frame().Address())
		dropLevel(child)
		frameDeallocator(entry.Frame())
	}
}
