package kmain

import (
	"rvkernel/kernel/hal"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/vmm"
)

// MMIO window sizes, fixed by the platform.
const (
	uartMMIOSize   = uintptr(mem.PageSize)
	virtioMMIOSize = uintptr(mem.PageSize)
	clintMMIOSize  = 0x10000
	plicMMIOSize   = 0x400000
)

// buildKernelSpace constructs the single kernel address space: identity
// mappings for the kernel image sections, the per-hart stacks, the heap,
// and the device MMIO windows, plus the one non-identity mapping of the
// trampoline text at the fixed TRAMPOLINE virtual address. The result is
// registered with vmm for every hart to install.
func buildKernelSpace() {
	as, err := vmm.New()
	if err != nil {
		kfmt.Panic(err)
	}

	idMap := func(start, end uintptr, flags vmm.PageTableEntryFlag) {
		if end <= start {
			return
		}
		if err := as.IDMapRange(start, end-start, flags); err != nil {
			kfmt.Panic(err)
		}
	}

	idMap(hal.TextStart, hal.TextEnd, vmm.FlagKernelRX)
	idMap(hal.RodataStart, hal.RodataEnd, vmm.FlagKernelRX)
	idMap(hal.DataStart, hal.DataEnd, vmm.FlagKernelRW)
	idMap(hal.BSSStart, hal.BSSEnd, vmm.FlagKernelRW)
	idMap(hal.KernelStackStart, hal.KernelStackEnd, vmm.FlagKernelRW)

	if err := as.IDMapRange(mem.HeapStart, uintptr(mem.HeapSize), vmm.FlagKernelRW); err != nil {
		kfmt.Panic(err)
	}

	if err := as.IDMapRange(mem.UARTBase, uartMMIOSize, vmm.FlagKernelRW); err != nil {
		kfmt.Panic(err)
	}
	if err := as.IDMapRange(mem.VirtioBlk0, virtioMMIOSize, vmm.FlagKernelRW); err != nil {
		kfmt.Panic(err)
	}
	if err := as.IDMapRange(mem.CLINTBase, clintMMIOSize, vmm.FlagKernelRW); err != nil {
		kfmt.Panic(err)
	}
	if err := as.IDMapRange(mem.PLICBase, plicMMIOSize, vmm.FlagKernelRW); err != nil {
		kfmt.Panic(err)
	}

	if err := as.KernelMap(mem.Trampoline, hal.TrampolineStart, vmm.FlagKernelRX); err != nil {
		kfmt.Panic(err)
	}

	vmm.SetKernelSpace(as)
}
