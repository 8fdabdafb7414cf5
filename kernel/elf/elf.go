// Package elf implements the minimal ELF64 loading that exec needs: header
// validation and copying PT_LOAD segments into a user address space. The
// kernel only ever loads the static, page-aligned user binaries produced by
// this repository's own build, so relocation, dynamic linking, and section
// handling are absent.
package elf

import (
	"rvkernel/kernel"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/vmm"
	"unsafe"
)

const (
	// elfMagic is "\x7fELF" read as a little-endian 32-bit value.
	elfMagic = 0x464C457F

	// progTypeLoad marks a program header whose segment must be mapped.
	progTypeLoad = 1

	// headerSize and progHeaderSize are the fixed ELF64 layouts.
	headerSize     = 64
	progHeaderSize = 56
)

var (
	ErrWrongMagic   = &kernel.Error{Module: "elf", Message: "wrong magic number"}
	ErrTruncated    = &kernel.Error{Module: "elf", Message: "image smaller than its headers claim"}
	ErrBadMemSize   = &kernel.Error{Module: "elf", Message: "segment memsz smaller than filesz"}
	ErrVaddrWraps   = &kernel.Error{Module: "elf", Message: "segment vaddr + memsz overflows"}
	ErrVaddrAligned = &kernel.Error{Module: "elf", Message: "segment vaddr is not page-aligned"}
)

// progHeader is one decoded ELF64 program header.
type progHeader struct {
	ptype  uint32
	off    uint64
	vaddr  uint64
	filesz uint64
	memsz  uint64
}

// Load validates image as an ELF64 binary and maps every PT_LOAD segment
// into as at the segment's vaddr with user read/execute permissions,
// returning the entry point. The address space is expected to contain no
// user mappings (exec unmaps the old image first).
func Load(as *vmm.AddressSpace, image []byte) (uintptr, *kernel.Error) {
	if len(image) < headerSize {
		return 0, ErrTruncated
	}
	if le32(image, 0) != elfMagic {
		return 0, ErrWrongMagic
	}

	entry := le64(image, 24)
	phoff := le64(image, 32)
	phnum := int(le16(image, 56))

	for i := 0; i < phnum; i++ {
		base := int(phoff) + i*progHeaderSize
		if base+progHeaderSize > len(image) {
			return 0, ErrTruncated
		}

		hdr := progHeader{
			ptype:  le32(image, base),
			off:    le64(image, base+8),
			vaddr:  le64(image, base+16),
			filesz: le64(image, base+32),
			memsz:  le64(image, base+40),
		}
		if hdr.ptype != progTypeLoad {
			continue
		}
		if hdr.memsz < hdr.filesz {
			return 0, ErrBadMemSize
		}
		if hdr.vaddr+hdr.memsz < hdr.vaddr {
			return 0, ErrVaddrWraps
		}
		if !vmm.Aligned(uintptr(hdr.vaddr)) {
			return 0, ErrVaddrAligned
		}
		if hdr.off+hdr.filesz > uint64(len(image)) {
			return 0, ErrTruncated
		}

		if err := loadSegment(as, image, hdr); err != nil {
			return 0, err
		}
	}

	return uintptr(entry), nil
}

// loadSegment allocates pages covering [vaddr, vaddr+memsz), maps them URX,
// and copies the segment's filesz bytes into them. Pages past filesz stay
// zeroed (AllocUserPage hands out cleared frames), which covers .bss.
func loadSegment(as *vmm.AddressSpace, image []byte, hdr progHeader) *kernel.Error {
	pages := uint64(vmm.PageCeil(uintptr(hdr.memsz))) / uint64(mem.PageSize)

	for i := uint64(0); i < pages; i++ {
		vaddr := uintptr(hdr.vaddr) + uintptr(i)*uintptr(mem.PageSize)
		if err := as.AllocUserPage(vaddr, vmm.FlagUserRX); err != nil {
			return err
		}

		copied := i * uint64(mem.PageSize)
		if copied >= hdr.filesz {
			continue
		}
		n := hdr.filesz - copied
		if n > uint64(mem.PageSize) {
			n = uint64(mem.PageSize)
		}

		paddr, err := as.PaddrOf(vaddr)
		if err != nil {
			return err
		}
		src := uintptr(unsafe.Pointer(&image[hdr.off+copied]))
		kernel.Memcopy(src, paddr, uintptr(n))
	}
	return nil
}

func le16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func le64(b []byte, off int) uint64 {
	return uint64(le32(b, off)) | uint64(le32(b, off+4))<<32
}
