package kmain

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rvkernel/kernel"
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/vmm"
)

const testFrames = 256

var testPages [testFrames][mem.PageSize]byte

func setupAllocator(t *testing.T) {
	t.Helper()
	cpu.SetHartIDForTest(0)

	var free [testFrames]bool
	for i := range free {
		free[i] = true
	}
	vmm.SetFrameAllocator(func() (pmm.Frame, *kernel.Error) {
		for i := range free {
			if free[i] {
				free[i] = false
				for b := range testPages[i] {
					testPages[i][b] = 0
				}
				return pmm.FrameFromAddress(uintptr(unsafe.Pointer(&testPages[i][0]))), nil
			}
		}
		return pmm.InvalidFrame, &kernel.Error{Module: "kmain_test", Message: "out of test frames"}
	})
	vmm.SetFrameDeallocator(func(f pmm.Frame) *kernel.Error { return nil })
	t.Cleanup(func() {
		vmm.SetFrameAllocator(nil)
		vmm.SetFrameDeallocator(nil)
	})
}

func TestBuildKernelSpace(t *testing.T) {
	setupAllocator(t)

	buildKernelSpace()
	as := vmm.KernelSpace()
	require.NotNil(t, as)

	// Every MMIO window is identity mapped.
	for _, base := range []uintptr{mem.UARTBase, mem.VirtioBlk0, mem.CLINTBase, mem.PLICBase} {
		paddr, err := as.PaddrOf(base)
		require.Nil(t, err, "MMIO base %#x", base)
		assert.Equal(t, base, paddr)
	}

	// The heap is identity mapped end to end.
	for _, vaddr := range []uintptr{mem.HeapStart, mem.HeapStart + uintptr(mem.HeapSize) - uintptr(mem.PageSize)} {
		paddr, err := as.PaddrOf(vaddr)
		require.Nil(t, err)
		assert.Equal(t, vaddr, paddr)
	}

	// The CLINT's mtime register is reachable through the CLINT window.
	paddr, err := as.PaddrOf(mem.CLINTMtime)
	require.Nil(t, err)
	assert.Equal(t, uintptr(mem.CLINTMtime), paddr)

	// The trampoline is mapped at its fixed virtual address.
	_, err = as.PaddrOf(mem.Trampoline)
	assert.Nil(t, err)

	// No user-accessible mapping exists anywhere in the kernel space: a
	// clone (which copies only U leaves) must come out empty.
	clone, cerr := as.Clone()
	require.Nil(t, cerr)
	_, err = clone.PaddrOf(mem.UARTBase)
	assert.NotNil(t, err)
}
