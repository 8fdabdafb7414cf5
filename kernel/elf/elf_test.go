package elf

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rvkernel/kernel"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/vmm"
)

const testFrames = 64

var testPages [testFrames][mem.PageSize]byte

func setupAllocator(t *testing.T) {
	t.Helper()

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
		return pmm.InvalidFrame, &kernel.Error{Module: "elf_test", Message: "out of test frames"}
	})
	vmm.SetFrameDeallocator(func(f pmm.Frame) *kernel.Error { return nil })

	t.Cleanup(func() {
		vmm.SetFrameAllocator(nil)
		vmm.SetFrameDeallocator(nil)
	})
}

// buildELF assembles a minimal ELF64 image: one PT_LOAD segment whose
// contents are payload, mapped at vaddr, with the given entry point.
// Tests corrupt individual header fields by patching the returned bytes.
func buildELF(entry, vaddr uint64, payload []byte) []byte {
	image := make([]byte, headerSize+progHeaderSize+len(payload))

	put32 := func(off int, v uint32) {
		image[off] = byte(v)
		image[off+1] = byte(v >> 8)
		image[off+2] = byte(v >> 16)
		image[off+3] = byte(v >> 24)
	}
	put64 := func(off int, v uint64) {
		put32(off, uint32(v))
		put32(off+4, uint32(v>>32))
	}

	put32(0, elfMagic)
	put64(24, entry)
	put64(32, headerSize) // phoff: right after the file header
	image[56] = 1         // phnum

	ph := headerSize
	put32(ph, progTypeLoad)
	put64(ph+8, uint64(headerSize+progHeaderSize)) // off
	put64(ph+16, vaddr)
	put64(ph+32, uint64(len(payload))) // filesz
	put64(ph+40, uint64(len(payload))) // memsz

	copy(image[headerSize+progHeaderSize:], payload)
	return image
}

func TestLoadRejectsWrongMagic(t *testing.T) {
	setupAllocator(t)
	as, err := vmm.New()
	require.Nil(t, err)

	image := buildELF(0x1000, 0x1000, []byte{0x13, 0x00, 0x00, 0x00})
	image[0] = 0xDE
	image[1] = 0xAD
	image[2] = 0xBE
	image[3] = 0xEF

	_, lerr := Load(as, image)
	require.Equal(t, ErrWrongMagic, lerr)
	assert.Equal(t, "wrong magic number", lerr.Message)
}

func TestLoadRejectsBadHeaders(t *testing.T) {
	setupAllocator(t)
	as, err := vmm.New()
	require.Nil(t, err)

	// memsz < filesz
	image := buildELF(0, 0x1000, []byte{1, 2, 3, 4})
	image[headerSize+40] = 1 // memsz = 1 < filesz = 4
	for i := 1; i < 8; i++ {
		image[headerSize+40+i] = 0
	}
	_, lerr := Load(as, image)
	assert.Equal(t, ErrBadMemSize, lerr)

	// vaddr + memsz wraps
	image = buildELF(0, ^uint64(0)&^uint64(mem.PageSize-1), []byte{1, 2, 3, 4})
	image[headerSize+41] = 0x10 // memsz = 0x1004: vaddr + memsz passes 2^64
	_, lerr = Load(as, image)
	assert.Equal(t, ErrVaddrWraps, lerr)

	// misaligned vaddr
	image = buildELF(0, 0x1001, []byte{1, 2, 3, 4})
	_, lerr = Load(as, image)
	assert.Equal(t, ErrVaddrAligned, lerr)

	// image too small for its headers
	_, lerr = Load(as, make([]byte, 16))
	assert.Equal(t, ErrTruncated, lerr)
}

func TestLoadMapsSegment(t *testing.T) {
	setupAllocator(t)
	as, err := vmm.New()
	require.Nil(t, err)

	payload := make([]byte, int(mem.PageSize)+128)
	for i := range payload {
		payload[i] = byte(i)
	}

	entry, lerr := Load(as, buildELF(0x2000, 0x2000, payload))
	require.Nil(t, lerr)
	assert.Equal(t, uintptr(0x2000), entry)

	// Both pages of the segment are mapped and carry the payload.
	for _, check := range []struct {
		vaddr uintptr
		off   int
		n     int
	}{
		{0x2000, 0, int(mem.PageSize)},
		{0x2000 + uintptr(mem.PageSize), int(mem.PageSize), 128},
	} {
		paddr, perr := as.PaddrOf(check.vaddr)
		require.Nil(t, perr)
		got := unsafe.Slice((*byte)(unsafe.Pointer(paddr)), check.n)
		assert.Equal(t, payload[check.off:check.off+check.n], []byte(got))
	}

	// Memory past filesz within the last page stays zeroed.
	paddr, perr := as.PaddrOf(0x2000 + uintptr(mem.PageSize))
	require.Nil(t, perr)
	tail := unsafe.Slice((*byte)(unsafe.Pointer(paddr+128)), 64)
	for _, b := range tail {
		require.Zero(t, b)
	}
}
