package vmm

import (
	"unsafe"

	"rvkernel/kernel/mem"
)

// pageLevels is the number of levels in an Sv39 page table (VPN2, VPN1,
// VPN0).
const pageLevels = 3

// pageLevelShifts[i] is the bit offset of level i's 9-bit VPN field within a
// virtual address.
var pageLevelShifts = [pageLevels]uint{30, 21, 12}

// vpnMask isolates a single 9-bit VPN field once shifted into place.
const vpnMask = uintptr(0x1FF)

// pageTable is a single, 4KiB-aligned level of an Sv39 translation tree: 512
// 8-byte entries. Every valid, non-leaf entry points at another pageTable
// backed by its own allocator frame; every valid leaf entry describes a
// mapped page.
type pageTable struct {
	entries [512]pageTableEntry
}

// pageTableAt reinterprets the physical frame at addr as a pageTable. This is
// safe only because kernel code runs with all of physical memory identity
// mapped, so a physical address can always be dereferenced directly.
func pageTableAt(addr uintptr) *pageTable {
	return (*pageTable)(unsafe.Pointer(addr))
}

// tableAddress is the inverse of pageTableAt: it recovers the physical
// address backing a pageTable pointer.
func tableAddress(t *pageTable) uintptr {
	return uintptr(unsafe.Pointer(t))
}

// vpn returns the 9-bit index into the page table at the given level (0 =
// root / VPN2) for virtual address vaddr.
func vpn(vaddr uintptr, level uint) uintptr {
	return (vaddr >> pageLevelShifts[level]) & vpnMask
}

// PageFloor rounds addr down to its containing page boundary.
func PageFloor(addr uintptr) uintptr {
	return addr &^ (uintptr(mem.PageSize) - 1)
}

// PageCeil rounds addr up to the next page boundary.
func PageCeil(addr uintptr) uintptr {
	return PageFloor(addr + uintptr(mem.PageSize) - 1)
}

// Aligned reports whether addr falls on a page boundary.
func Aligned(addr uintptr) bool {
	return addr&(uintptr(mem.PageSize)-1) == 0
}
