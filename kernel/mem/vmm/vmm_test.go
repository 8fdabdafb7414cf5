package vmm

import (
	"testing"
	"unsafe"

	"rvkernel/kernel"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

// testHeapPages backs every frame the test frame allocator hands out. Using
// real Go-owned memory (rather than a fixed physical address like
// mem.HeapStart) lets pageTableAt safely dereference the frames on the
// host. Go does not page-align the array, so it carries one spare page and
// frames start at the first page boundary inside it.
const testHeapFrames = 512

var testHeapPages [testHeapFrames + 1][mem.PageSize]byte

// newTestAllocator installs a small bump/free-list allocator over
// testHeapPages and returns a reset function tests should defer.
func newTestAllocator(t *testing.T) func() {
	t.Helper()

	var free [testHeapFrames]bool
	for i := range free {
		free[i] = true
	}

	base := PageCeil(uintptr(unsafe.Pointer(&testHeapPages[0][0])))

	alloc := func() (pmm.Frame, *kernel.Error) {
		for i, isFree := range free {
			if isFree {
				free[i] = false
				f := pmm.FrameFromAddress(base + uintptr(i)*uintptr(mem.PageSize))
				zeroFrame(f)
				return f, nil
			}
		}
		return pmm.InvalidFrame, &kernel.Error{Module: "vmm_test", Message: "out of test frames"}
	}

	dealloc := func(f pmm.Frame) *kernel.Error {
		idx := (f.Address() - base) / uintptr(mem.PageSize)
		if free[idx] {
			return &kernel.Error{Module: "vmm_test", Message: "double free"}
		}
		free[idx] = true
		return nil
	}

	SetFrameAllocator(alloc)
	SetFrameDeallocator(dealloc)

	return func() {
		SetFrameAllocator(nil)
		SetFrameDeallocator(nil)
	}
}

func TestMapAndPaddrOfRoundTrip(t *testing.T) {
	defer newTestAllocator(t)()

	as, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	vaddr := uintptr(0x1000)
	if err := as.AllocUserPage(vaddr, FlagUserRW); err != nil {
		t.Fatalf("AllocUserPage: %v", err)
	}

	paddr, err := as.PaddrOf(vaddr)
	if err != nil {
		t.Fatalf("PaddrOf: %v", err)
	}
	if paddr == 0 {
		t.Fatal("expected non-zero physical address")
	}

	if _, err := as.PaddrOf(vaddr + uintptr(mem.PageSize)); err != ErrInvalidMapping {
		t.Errorf("expected ErrInvalidMapping for unmapped address; got %v", err)
	}
}

func TestMapRefusesOverwrite(t *testing.T) {
	defer newTestAllocator(t)()

	as, _ := New()
	vaddr := uintptr(0x2000)
	if err := as.AllocUserPage(vaddr, FlagUserRW); err != nil {
		t.Fatalf("AllocUserPage: %v", err)
	}
	if err := as.AllocUserPage(vaddr, FlagUserRW); err != ErrAlreadyMapped {
		t.Errorf("expected ErrAlreadyMapped; got %v", err)
	}
}

func TestKernelMapRejectsUserFlag(t *testing.T) {
	defer newTestAllocator(t)()

	as, _ := New()
	if err := as.KernelMap(0x3000, 0x3000, FlagUserRW); err != ErrBadFlags {
		t.Errorf("expected ErrBadFlags; got %v", err)
	}
}

func TestMapRejectsMisalignedAddresses(t *testing.T) {
	defer newTestAllocator(t)()

	as, _ := New()
	if err := as.KernelMap(0x1001, 0x1000, FlagKernelRW); err != ErrMisaligned {
		t.Errorf("expected ErrMisaligned for vaddr; got %v", err)
	}
	if err := as.KernelMap(0x1000, 0x1001, FlagKernelRW); err != ErrMisaligned {
		t.Errorf("expected ErrMisaligned for paddr; got %v", err)
	}
}

func TestCloneIsolation(t *testing.T) {
	defer newTestAllocator(t)()

	parent, _ := New()
	vaddr := uintptr(0x1000)
	if err := parent.AllocUserPage(vaddr, FlagUserRW); err != nil {
		t.Fatalf("AllocUserPage: %v", err)
	}

	parentPaddr, _ := parent.PaddrOf(vaddr)
	(*[mem.PageSize]byte)(unsafe.Pointer(parentPaddr))[0] = 0xAA

	child, err := parent.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	childPaddr, err := child.PaddrOf(vaddr)
	if err != nil {
		t.Fatalf("child PaddrOf: %v", err)
	}
	if childPaddr == parentPaddr {
		t.Fatal("expected clone to allocate a distinct physical frame")
	}
	if got := (*[mem.PageSize]byte)(unsafe.Pointer(childPaddr))[0]; got != 0xAA {
		t.Errorf("expected cloned page to start with parent's contents 0xAA; got %#x", got)
	}

	// Write through the child; the parent's copy must be unaffected.
	(*[mem.PageSize]byte)(unsafe.Pointer(childPaddr))[0] = 0xBB
	if got := (*[mem.PageSize]byte)(unsafe.Pointer(parentPaddr))[0]; got != 0xAA {
		t.Errorf("write through child mutated parent's frame; parent now reads %#x", got)
	}
}

func TestCloneSkipsNonUserLeaves(t *testing.T) {
	defer newTestAllocator(t)()

	parent, _ := New()
	if err := parent.KernelMap(0x5000, 0x5000, FlagKernelRW); err != nil {
		t.Fatalf("KernelMap: %v", err)
	}

	child, err := parent.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if _, err := child.PaddrOf(0x5000); err != ErrInvalidMapping {
		t.Errorf("expected non-U mapping to be absent from the clone; got err=%v", err)
	}
}

func TestDropReleasesUserFramesOnly(t *testing.T) {
	reset := newTestAllocator(t)
	defer reset()

	as, _ := New()
	if err := as.AllocUserPage(0x1000, FlagUserRW); err != nil {
		t.Fatalf("AllocUserPage: %v", err)
	}
	if err := as.KernelMap(0x5000, 0x5000, FlagKernelRW); err != nil {
		t.Fatalf("KernelMap: %v", err)
	}

	as.Drop()

	// Every frame (including the root and the user leaf) must now be
	// available for re-allocation; the kernel identity mapping at 0x5000
	// was never allocator-owned so it cannot be "freed" or counted here.
	var got []pmm.Frame
	for i := 0; i < testHeapFrames; i++ {
		f, err := frameAllocator()
		if err != nil {
			t.Fatalf("expected all %d frames to be free after Drop, got only %d back: %v", testHeapFrames, i, err)
		}
		got = append(got, f)
	}
	_ = got
}

func TestUnmapUserLeavesKernelMappingsIntact(t *testing.T) {
	defer newTestAllocator(t)()

	as, _ := New()
	if err := as.AllocUserPage(0x1000, FlagUserRW); err != nil {
		t.Fatalf("AllocUserPage: %v", err)
	}
	if err := as.KernelMap(0x9000, 0x9000, FlagKernelRW); err != nil {
		t.Fatalf("KernelMap: %v", err)
	}

	as.UnmapUser()

	if _, err := as.PaddrOf(0x1000); err != ErrInvalidMapping {
		t.Errorf("expected user mapping to be gone after UnmapUser; err=%v", err)
	}
	if paddr, err := as.PaddrOf(0x9000); err != nil || paddr != 0x9000 {
		t.Errorf("expected kernel mapping to survive UnmapUser; paddr=%#x err=%v", paddr, err)
	}
}

func TestIDMapRange(t *testing.T) {
	defer newTestAllocator(t)()

	as, _ := New()
	if err := as.IDMapRange(0x4000, uintptr(3*mem.PageSize), FlagKernelRW); err != nil {
		t.Fatalf("IDMapRange: %v", err)
	}

	for _, vaddr := range []uintptr{0x4000, 0x5000, 0x6000} {
		paddr, err := as.PaddrOf(vaddr)
		if err != nil {
			t.Fatalf("PaddrOf(%#x): %v", vaddr, err)
		}
		if paddr != vaddr {
			t.Errorf("expected identity mapping at %#x; got %#x", vaddr, paddr)
		}
	}
}
