package vmm

import (
	"unsafe"

	"rvkernel/kernel"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

// FrameAllocatorFn matches the shape of a single-frame physical allocator.
// vmm depends on this function type rather than a concrete allocator
// implementation so that kernel/mem/pmm/allocator can register itself
// without vmm importing it back.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// FrameDeallocatorFn matches the shape of a single-frame physical
// deallocator.
type FrameDeallocatorFn func(pmm.Frame) *kernel.Error

// frameAllocator is the function used to obtain the frames backing new,
// inner page-table levels. It is nil until SetFrameAllocator is called by
// the kmain boot sequence.
var frameAllocator FrameAllocatorFn

// frameDeallocator is the function used to return frames to the global
// allocator when a user leaf or an inner table is released.
var frameDeallocator FrameDeallocatorFn

// SetFrameAllocator installs the function vmm uses to allocate the physical
// frames that back newly created inner page-table levels.
func SetFrameAllocator(fn FrameAllocatorFn) {
	frameAllocator = fn
}

// SetFrameDeallocator installs the function vmm uses to free frames it no
// longer needs (Drop, UnmapUser).
func SetFrameDeallocator(fn FrameDeallocatorFn) {
	frameDeallocator = fn
}

// walk descends the three Sv39 levels rooted at root looking for the leaf
// PTE that would translate vaddr. If alloc is true and an intermediate
// level is missing, walk allocates a fresh frame for it, zeroes it, and
// links it in with V-only flags before continuing the descent. If alloc is
// false, walk returns (nil, false) the moment it hits a missing
// intermediate level instead of allocating one.
//
// The returned pointer, when ok is true, is the address of the level-2
// (leaf) PTE slot itself, so callers can both inspect and mutate it.
func walk(root *pageTable, vaddr uintptr, alloc bool) (pte *pageTableEntry, ok bool) {
	table := root
	for level := uint(0); level < pageLevels-1; level++ {
		entry := &table.entries[vpn(vaddr, level)]

		if !entry.Valid() {
			if !alloc {
				return nil, false
			}

			frame, err := frameAllocator()
			if err != nil {
				return nil, false
			}
			zeroFrame(frame)

			entry.SetFrame(frame)
			entry.SetFlags(FlagValid)
		} else if entry.Leaf() {
			// A superpage or corrupt entry sits where an inner
			// table was expected.
			return nil, false
		}

		table = pageTableAt(entry.Frame().Address())
	}

	return &table.entries[vpn(vaddr, pageLevels-1)], true
}

// zeroFrame clears every byte of the physical frame so a freshly allocated
// inner page table starts out with no valid entries.
func zeroFrame(frame pmm.Frame) {
	page := (*[mem.PageSize]byte)(unsafe.Pointer(frame.Address()))
	for i := range page {
		page[i] = 0
	}
}
