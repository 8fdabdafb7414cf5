// Package vmm implements the Sv39 page-table engine: building, mutating,
// walking, cloning and tearing down three-level translation tables for the
// kernel and for individual user address spaces.
package vmm

import (
	"rvkernel/kernel"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

// PageTableEntryFlag describes one of the low, architecture-defined bits of
// an Sv39 page table entry.
type PageTableEntryFlag uintptr

// Individual PTE flags, low 8 bits of a 64-bit Sv39 PTE (bit 9/8 are the
// reserved-for-software RSW bits and are not used here).
const (
	FlagValid PageTableEntryFlag = 1 << iota
	FlagRead
	FlagWrite
	FlagExec
	FlagUser
	FlagGlobal
	FlagAccessed
	FlagDirty
)

// Convenience flag groups used throughout the core.
const (
	FlagKernelRW = FlagValid | FlagRead | FlagWrite | FlagAccessed | FlagDirty
	FlagKernelRX = FlagValid | FlagRead | FlagExec | FlagAccessed | FlagDirty
	FlagUserRW   = FlagKernelRW | FlagUser
	FlagUserRX   = FlagKernelRX | FlagUser
	FlagUserR    = FlagValid | FlagRead | FlagUser | FlagAccessed
)

const (
	// ptePPNShift is the bit offset of the physical page number field in
	// a PTE.
	ptePPNShift = 10

	// ptePPNMask covers bits [53:10], the 44-bit PPN field.
	ptePPNMask = uintptr(0xFFFFFFFFFFF) << ptePPNShift
)

var (
	// ErrInvalidMapping is returned when looking up a virtual address
	// that has no valid leaf mapping.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

	// ErrMisaligned is returned when map()'s vaddr or target argument is
	// not page-aligned.
	ErrMisaligned = &kernel.Error{Module: "vmm", Message: "address is not page-aligned"}

	// ErrAlreadyMapped is returned when overwriting a valid leaf PTE.
	ErrAlreadyMapped = &kernel.Error{Module: "vmm", Message: "leaf already mapped"}

	// ErrBadFlags is returned when kernel_map is asked to install the U
	// flag, or user_map is asked to omit it.
	ErrBadFlags = &kernel.Error{Module: "vmm", Message: "flags are not valid for this mapping call"}
)

// pageTableEntry is a single 64-bit Sv39 page table entry: physical page
// number in bits [53:10], flags in bits [9:0].
type pageTableEntry uint64

// Valid reports whether the V flag is set.
func (pte pageTableEntry) Valid() bool {
	return pte.HasFlags(FlagValid)
}

// Leaf reports whether this entry has at least one of R, W, X set, i.e. it
// terminates the walk instead of pointing at another table.
func (pte pageTableEntry) Leaf() bool {
	return pte.HasAnyFlag(FlagRead | FlagWrite | FlagExec)
}

// HasFlags returns true if every flag in flags is set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return uintptr(pte)&uintptr(flags) == uintptr(flags)
}

// HasAnyFlag returns true if at least one flag in flags is set.
func (pte pageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return uintptr(pte)&uintptr(flags) != 0
}

// SetFlags ORs flags into the entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) | uintptr(flags))
}

// ClearFlags clears flags from the entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) &^ uintptr(flags))
}

// Frame returns the physical frame this entry points to.
func (pte pageTableEntry) Frame() pmm.Frame {
	return pmm.Frame((uintptr(pte) & ptePPNMask) >> ptePPNShift)
}

// SetFrame overwrites the PPN field of the entry to point to frame.
func (pte *pageTableEntry) SetFrame(frame pmm.Frame) {
	addr := frame.Address()
	*pte = pageTableEntry((uintptr(*pte) &^ ptePPNMask) | ((addr >> mem.PageShift) << ptePPNShift))
}

// entryFlags extracts just the low flag bits of a PTE, discarding its PPN
// field. Used by Clone to replicate a leaf's permission bits onto a new
// entry pointing at a different frame.
func entryFlags(pte pageTableEntry) PageTableEntryFlag {
	return PageTableEntryFlag(uintptr(pte) &^ ptePPNMask)
}
