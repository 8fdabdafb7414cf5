// Package syscall implements the kernel's system-call surface: it decodes
// the trap frame's argument registers, validates and translates user
// pointers through the calling process's page table, and routes each call
// to the process or file operation that implements it.
package syscall

import (
	"unsafe"

	"rvkernel/kernel"
	"rvkernel/kernel/file"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/process"
)

// Syscall numbers, fixed by the ABI.
const (
	SysFork  = 0
	SysExit  = 1
	SysRead  = 4
	SysWrite = 5
	SysClose = 6
	SysExec  = 8
	SysOpen  = 9
	SysDup   = 16
)

var (
	errUnknownSyscall = &kernel.Error{Module: "syscall", Message: "unknown syscall number"}
	errNegativeSize   = &kernel.Error{Module: "syscall", Message: "negative size argument"}
	errPtrStraddles   = &kernel.Error{Module: "syscall", Message: "pointer argument straddles a page boundary"}
	errBadFD          = &kernel.Error{Module: "syscall", Message: "bad file descriptor"}
)

// handlerFn implements one syscall against the calling process.
type handlerFn func(p *process.Process) int64

// handlers routes a syscall number to its implementation.
var handlers = map[uint64]handlerFn{
	SysFork:  sysFork,
	SysExit:  sysExit,
	SysRead:  sysRead,
	SysWrite: sysWrite,
	SysClose: sysClose,
	SysExec:  sysExec,
	SysOpen:  sysOpen,
	SysDup:   sysDup,
}

// Dispatch runs the syscall identified by the trap frame's a7 register and
// returns the value the trap path stores into a0. An unknown number is
// fatal; user code is part of this kernel's own image and a bad number
// means the image is broken.
func Dispatch(p *process.Process) int64 {
	num := p.TrapFrame.Regs[process.RegA7]

	h, ok := handlers[num]
	if !ok {
		kfmt.Panic(errUnknownSyscall)
	}
	return h(p)
}

// argRaw reads argument register a0+pos.
func argRaw(p *process.Process, pos int) uint64 {
	return p.TrapFrame.Regs[process.RegA0+pos]
}

// argInt reads an argument as a signed integer.
func argInt(p *process.Process, pos int) int64 {
	return int64(argRaw(p, pos))
}

// argSize reads an argument as a non-negative length; a negative value is
// fatal.
func argSize(p *process.Process, pos int) int {
	v := int64(int32(argRaw(p, pos)))
	if v < 0 {
		kfmt.Panic(errNegativeSize)
	}
	return int(v)
}

// argPtr reads a user pointer argument and translates it through the
// calling process's page table. The size bytes starting at the pointer must
// sit inside a single, mapped page; anything else is fatal.
func argPtr(p *process.Process, pos, size int) uintptr {
	uva := uintptr(argRaw(p, pos))

	pageBase := vmm.PageFloor(uva)
	if uva+uintptr(size) > pageBase+uintptr(mem.PageSize) {
		kfmt.Panic(errPtrStraddles)
	}

	paddr, err := p.AddrSpace.PaddrOf(pageBase)
	if err != nil {
		kfmt.Panic(err)
	}
	return paddr + (uva - pageBase)
}

// argBytes returns a kernel byte slice over the user buffer argument at
// (ptrPos, sizePos).
func argBytes(p *process.Process, ptrPos, sizePos int) []byte {
	size := argSize(p, sizePos)
	if size == 0 {
		return nil
	}
	paddr := argPtr(p, ptrPos, size)
	return unsafe.Slice((*byte)(unsafe.Pointer(paddr)), size)
}

// argString copies the user string argument at (ptrPos, sizePos) into
// kernel memory.
func argString(p *process.Process, ptrPos, sizePos int) string {
	return string(argBytes(p, ptrPos, sizePos))
}

// argFD resolves a file-descriptor argument to the open file it names. A
// descriptor that is out of range or closed is fatal.
func argFD(p *process.Process, pos int) (int, file.File) {
	fd := argInt(p, pos)
	if fd < 0 || fd >= process.NOFILE || p.Files[fd] == nil {
		kfmt.Panic(errBadFD)
	}
	return int(fd), p.Files[fd]
}

// nextFreeFD finds the lowest closed descriptor slot, or -1 if the table is
// full.
func nextFreeFD(p *process.Process) int {
	for i := range p.Files {
		if p.Files[i] == nil {
			return i
		}
	}
	return -1
}
