package process

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rvkernel/kernel/fs"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/vmm"
)

// buildTestELF assembles a minimal ELF64 image with one PT_LOAD segment at
// vaddr holding payload, entry at vaddr.
func buildTestELF(vaddr uint64, payload []byte) []byte {
	const headerSize, progHeaderSize = 64, 56
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

	put32(0, 0x464C457F) // "\x7fELF"
	put64(24, vaddr)     // entry
	put64(32, headerSize)
	image[56] = 1 // one program header

	put32(headerSize, 1) // PT_LOAD
	put64(headerSize+8, headerSize+progHeaderSize)
	put64(headerSize+16, vaddr)
	put64(headerSize+32, uint64(len(payload))) // filesz
	put64(headerSize+40, uint64(len(payload))) // memsz

	copy(image[headerSize+progHeaderSize:], payload)
	return image
}

func TestExecReplacesImage(t *testing.T) {
	setupKernelHeap(t, procFrames)

	payload := []byte{0x13, 0x00, 0x00, 0x00, 0x73, 0x00, 0x00, 0x00}
	defer fs.SetTableForTest(nil)
	fs.SetTableForTest([]fs.Entry{{Name: "/prog", Data: buildTestELF(0x10000, payload)}})

	pool[2] = slot{state: slotScheduled}
	p := newProcess(2)
	as, err := vmm.New()
	require.Nil(t, err)
	p.AddrSpace = as
	p.mapFixedPages()

	// The old image: one user page that exec must discard.
	require.Nil(t, as.AllocUserPage(0x3000, vmm.FlagUserRX))
	p.TrapFrame.EPC = 0x3000
	p.State = Running
	CPUs[0].Proc = p

	require.Equal(t, int64(0), Exec("/prog"))

	// The trap frame points into the new program.
	assert.Equal(t, uint64(0x10000), p.TrapFrame.EPC)
	assert.Equal(t, uint64(userStackTop), p.TrapFrame.Regs[RegSP])

	// The old image is gone; the new segment and stack are mapped.
	_, err = as.PaddrOf(0x3000)
	assert.Equal(t, vmm.ErrInvalidMapping, err)

	paddr, err := as.PaddrOf(0x10000)
	require.Nil(t, err)
	got := unsafe.Slice((*byte)(unsafe.Pointer(paddr)), len(payload))
	assert.Equal(t, payload, []byte(got))

	_, err = as.PaddrOf(userStackTop - uintptr(mem.PageSize))
	assert.Nil(t, err)

	// The kernel-only fixed mappings survive the image swap.
	_, err = as.PaddrOf(mem.Trapframe)
	assert.Nil(t, err)
}
