// Package allocator implements the kernel's physical frame allocator.
package allocator

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt/early"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/sync"
)

var (
	errOutOfMemory = &kernel.Error{Module: "pmm_alloc", Message: "out of memory"}
	errBadFree     = &kernel.Error{Module: "pmm_alloc", Message: "address does not correspond to a live allocation"}

	// FrameAllocator is the kernel-wide physical frame allocator. It is
	// initialized once at boot by Init and is thereafter safe to call
	// from any hart.
	FrameAllocator BitmapAllocator
)

// BitmapAllocator is a first-fit, bitmap-based allocator for naturally
// contiguous multi-frame regions. Each entry in run tracks, for the first
// frame of a live allocation, how many frames that allocation spans; every
// other frame covered by the same allocation carries the same count. A zero
// entry means the frame is free.
//
// The entire structure is guarded by lock; every public method takes it
// before touching run.
type BitmapAllocator struct {
	lock sync.Spinlock

	// base is the physical address of run[0].
	base uintptr

	// run holds one entry per frame in the heap. run[i] == 0 means frame
	// i is free; run[i] == n > 0 means frame i begins (or belongs to) an
	// n-frame allocation.
	run []uint32
}

// Init sets up the allocator to manage maxPages frames starting at heapBase,
// i.e. the heap [heapBase, heapBase+maxPages*mem.PageSize); maxPages is also
// the length of the tracking array.
func (a *BitmapAllocator) Init(heapBase uintptr, maxPages uint64) {
	a.lock.Acquire()
	defer a.lock.Release()

	a.base = heapBase
	a.run = make([]uint32, maxPages)

	early.Printf("[pmm_alloc] heap base 0x%x, %d frames (%d MB)\n",
		uint64(heapBase), maxPages, uint64(maxPages*uint64(mem.PageSize))/(1024*1024))
}

// Allocate reserves the smallest run of naturally contiguous frames that can
// hold sizeBytes and returns the physical address of the first frame.
// Zero-sized requests are treated as a single-frame allocation.
func (a *BitmapAllocator) Allocate(sizeBytes mem.Size) (uintptr, *kernel.Error) {
	frames := framesNeeded(sizeBytes)

	a.lock.Acquire()
	defer a.lock.Release()

	start, ok := a.findFreeRun(frames)
	if !ok {
		return 0, errOutOfMemory
	}

	for i := uint64(0); i < frames; i++ {
		a.run[start+i] = uint32(frames)
	}

	return a.base + uintptr(start)*uintptr(mem.PageSize), nil
}

// Deallocate releases the run of frames that began at addr. An address below
// the heap, past its last frame, or on a frame that is currently free is
// rejected with errBadFree. An address inside a live run other than its
// first frame is not detected and corrupts allocator state.
func (a *BitmapAllocator) Deallocate(addr uintptr) *kernel.Error {
	a.lock.Acquire()
	defer a.lock.Release()

	if addr < a.base {
		return errBadFree
	}
	start := uint64(addr-a.base) / uint64(mem.PageSize)
	if start >= uint64(len(a.run)) {
		return errBadFree
	}

	n := a.run[start]
	if n == 0 {
		return errBadFree
	}

	for i := uint64(0); i < uint64(n); i++ {
		a.run[start+i] = 0
	}

	return nil
}

// AllocFrame satisfies vmm's single-frame allocator signature so the
// bitmap allocator can be registered directly via vmm.SetFrameAllocator,
// keeping vmm decoupled from any concrete allocator implementation.
func (a *BitmapAllocator) AllocFrame() (pmm.Frame, *kernel.Error) {
	addr, err := a.Allocate(mem.PageSize)
	if err != nil {
		return pmm.InvalidFrame, err
	}
	return pmm.FrameFromAddress(addr), nil
}

// FreeFrame releases a single frame previously returned by AllocFrame,
// satisfying vmm's FrameDeallocatorFn signature.
func (a *BitmapAllocator) FreeFrame(f pmm.Frame) *kernel.Error {
	return a.Deallocate(f.Address())
}

// findFreeRun scans the bitmap left-to-right for the first run of `frames`
// consecutive zero entries. Callers must hold a.lock.
func (a *BitmapAllocator) findFreeRun(frames uint64) (uint64, bool) {
	if frames == 0 {
		return 0, false
	}

	run := uint64(0)
	for i, v := range a.run {
		if v != 0 {
			run = 0
			continue
		}
		run++
		if run == frames {
			return uint64(i) + 1 - frames, true
		}
	}
	return 0, false
}

// framesNeeded rounds sizeBytes up to a whole number of frames, treating a
// zero-sized request as a single frame.
func framesNeeded(sizeBytes mem.Size) uint64 {
	if sizeBytes == 0 {
		return 1
	}
	return (uint64(sizeBytes) + uint64(mem.PageSize) - 1) / uint64(mem.PageSize)
}

// Init sets up the kernel physical memory allocation subsystem and wires it
// in as the frame source used by the vmm package.
func Init(heapBase uintptr, heapSize mem.Size) *kernel.Error {
	maxPages := uint64(heapSize) / uint64(mem.PageSize)
	FrameAllocator.Init(heapBase, maxPages)
	vmm.SetFrameAllocator(FrameAllocator.AllocFrame)
	vmm.SetFrameDeallocator(FrameAllocator.FreeFrame)
	return nil
}
