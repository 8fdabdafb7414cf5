package vmm

// UnmapUser removes every U leaf from this address space and frees its
// backing frame, leaving non-U (kernel, trampoline, trap-frame) mappings
// intact. exec uses this to discard the previous image before installing a
// new one.
func (as *AddressSpace) UnmapUser() {
	unmapUserLevel(as.root)
}

func unmapUserLevel(table *pageTable) {
	for i := range table.entries {
		entry := &table.entries[i]
		if !entry.Valid() {
			continue
		}

		if entry.Leaf() {
			if entry.HasFlags(FlagUser) {
				frameDeallocator(entry.Frame())
				*entry = 0
			}
			continue
		}

		unmapUserLevel(pageTableAt(entry.Frame().Address()))
	}
}
