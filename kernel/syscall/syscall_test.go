package syscall

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rvkernel/kernel"
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/file"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/hal"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/process"
)

const testFrames = 128

var testPages [testFrames][mem.PageSize]byte

type fakeUART struct {
	rx []byte
	tx []byte
}

func (u *fakeUART) PutByte(b byte) { u.tx = append(u.tx, b) }

func (u *fakeUART) GetByte() (byte, bool) {
	if len(u.rx) == 0 {
		return 0, false
	}
	b := u.rx[0]
	u.rx = u.rx[1:]
	return b, true
}

// newTestProc builds a process with a live user address space (one URW page
// at userBase) and a trap frame, enough for the marshalling helpers to
// translate pointers the way they would on real hardware.
func newTestProc(t *testing.T) (*process.Process, uintptr) {
	t.Helper()

	cpu.SetHartIDForTest(0)
	cpu.EnableInterrupts()

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
		return pmm.InvalidFrame, &kernel.Error{Module: "syscall_test", Message: "out of test frames"}
	})
	vmm.SetFrameDeallocator(func(f pmm.Frame) *kernel.Error { return nil })
	t.Cleanup(func() {
		vmm.SetFrameAllocator(nil)
		vmm.SetFrameDeallocator(nil)
	})

	as, err := vmm.New()
	require.Nil(t, err)

	const userBase = uintptr(0x1000)
	require.Nil(t, as.AllocUserPage(userBase, vmm.FlagUserRW))

	p := &process.Process{
		PID:       1,
		State:     process.Running,
		AddrSpace: as,
		TrapFrame: &process.TrapFrame{},
	}

	paddr, err := as.PaddrOf(userBase)
	require.Nil(t, err)
	return p, paddr
}

// poke writes bytes into the test process's user page at the given user
// offset.
func poke(pagePaddr uintptr, off int, data []byte) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(pagePaddr+uintptr(off))), len(data))
	copy(dst, data)
}

func call(p *process.Process, num uint64, args ...uint64) int64 {
	p.TrapFrame.Regs[process.RegA7] = num
	for i, a := range args {
		p.TrapFrame.Regs[process.RegA0+i] = a
	}
	return Dispatch(p)
}

func TestOpenDupConsoleBootstrap(t *testing.T) {
	p, page := newTestProc(t)
	hal.RegisterUART(&fakeUART{})

	// The initcode sequence: open("/console") = 0, dup(0) = 1, dup(0) = 2.
	poke(page, 0, []byte("/console"))
	assert.Equal(t, int64(0), call(p, SysOpen, 0x1000, 8, 0))
	assert.Equal(t, int64(1), call(p, SysDup, 0))
	assert.Equal(t, int64(2), call(p, SysDup, 0))

	require.NotNil(t, p.Files[0])
	assert.Same(t, p.Files[0], p.Files[1])
	assert.Same(t, p.Files[0], p.Files[2])
}

func TestWriteToConsole(t *testing.T) {
	p, page := newTestProc(t)
	uart := &fakeUART{}
	hal.RegisterUART(uart)

	p.Files[0] = file.OpenConsole()

	poke(page, 0x100, []byte("hello"))
	got := call(p, SysWrite, 0, 0x1100, 5)
	assert.Equal(t, int64(5), got)
	assert.Equal(t, "hello", string(uart.tx))
}

func TestReadFromConsole(t *testing.T) {
	p, page := newTestProc(t)
	uart := &fakeUART{rx: []byte("ok")}
	hal.RegisterUART(uart)

	p.Files[0] = file.OpenConsole()

	got := call(p, SysRead, 0, 0x1200, 8)
	assert.Equal(t, int64(2), got)

	buf := unsafe.Slice((*byte)(unsafe.Pointer(page+0x200)), 2)
	assert.Equal(t, "ok", string(buf))
}

func TestOpenAndReadFSFile(t *testing.T) {
	p, page := newTestProc(t)

	defer fs.SetTableForTest(nil)
	fs.SetTableForTest([]fs.Entry{{Name: "/motd", Data: []byte("welcome")}})

	poke(page, 0, []byte("/motd"))
	fd := call(p, SysOpen, 0x1000, 5, 0)
	require.Equal(t, int64(0), fd)

	got := call(p, SysRead, 0, 0x1100, 7)
	assert.Equal(t, int64(7), got)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(page+0x100)), 7)
	assert.Equal(t, "welcome", string(buf))

	// A second read continues at the shared offset: end of file.
	assert.Equal(t, int64(0), call(p, SysRead, 0, 0x1100, 7))
}

func TestCloseFreesDescriptor(t *testing.T) {
	p, _ := newTestProc(t)
	hal.RegisterUART(&fakeUART{})

	p.Files[0] = file.OpenConsole()
	assert.Equal(t, int64(0), call(p, SysClose, 0))
	assert.Nil(t, p.Files[0])

	// The slot is reusable.
	p.Files[0] = file.OpenConsole()
	assert.NotNil(t, p.Files[0])
}

func TestDupReturnsMinusOneWhenTableFull(t *testing.T) {
	p, _ := newTestProc(t)
	hal.RegisterUART(&fakeUART{})

	for i := range p.Files {
		p.Files[i] = file.OpenConsole()
	}
	assert.Equal(t, int64(-1), call(p, SysDup, 0))
}
