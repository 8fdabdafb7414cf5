package vmm

import (
	"unsafe"

	"rvkernel/kernel"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

// Clone produces an independent deep copy of this address space: every
// valid leaf carrying the U flag is copied into a freshly allocated frame
// and relinked with identical flags in the copy; every valid non-leaf is
// mirrored with a freshly allocated inner table. Non-U leaves (kernel
// mappings, trampoline, trap frame) are not copied; fork's caller rebuilds
// those for the child process itself.
func (as *AddressSpace) Clone() (*AddressSpace, *kernel.Error) {
	dst, err := New()
	if err != nil {
		return nil, err
	}

	if err := cloneLevel(as.root, dst.root); err != nil {
		dst.Drop()
		return nil, err
	}
	return dst, nil
}

// cloneLevel recursively mirrors src into dst, one Sv39 level at a time.
func cloneLevel(src, dst *pageTable) *kernel.Error {
	for i := range src.entries {
		entry := &src.entries[i]
		if !entry.Valid() {
			continue
		}

		if entry.Leaf() {
			if !entry.HasFlags(FlagUser) {
				continue
			}

			frame, err := frameAllocator()
			if err != nil {
				return err
			}
			copyFrameContents(entry.Frame(), frame)

			dstEntry := &dst.entries[i]
			dstEntry.SetFrame(frame)
			dstEntry.SetFlags(entryFlags(*entry))
			continue
		}

		childFrame, err := frameAllocator()
		if err != nil {
			return err
		}
		zeroFrame(childFrame)

		dstEntry := &dst.entries[i]
		dstEntry.SetFrame(childFrame)
		dstEntry.SetFlags(FlagValid)

		if err := cloneLevel(pageTableAt(entry.Frame().Address()), pageTableAt(childFrame.Address())); err != nil {
			return err
		}
	}
	return nil
}

// copyFrameContents copies one PageSize-sized frame's contents from src to
// dst.
func copyFrameContents(src, dst pmm.Frame) {
	srcPage := (*[mem.PageSize]byte)(unsafe.Pointer(src.Address()))
	dstPage := (*[mem.PageSize]byte)(unsafe.Pointer(dst.Address()))
	*dstPage = *srcPage
}
