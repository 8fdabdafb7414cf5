package process

import (
	"rvkernel/kernel"
	"rvkernel/kernel/elf"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/kfmt"
)

// execMaxFileSize bounds the image exec will load. The embedded filesystem
// keeps file contents in kernel memory already, so the bound is a sanity
// check on the table rather than a buffer size.
const execMaxFileSize = 128 * 1024

var errExecTooLarge = &kernel.Error{Module: "process", Message: "exec: image exceeds the load limit"}

// Exec replaces the current process's user image with the ELF binary at
// path: the old user pages are discarded, every PT_LOAD segment is mapped
// URX, a fresh user stack is mapped, and the trap frame is pointed at the
// new entry. On success the process returns to user mode inside the new
// program; every failure (missing file, oversized or malformed image) is
// fatal, per the kernel's invalid-user-input policy.
func Exec(path string) int64 {
	p := MyProc()

	entry, err := fs.Lookup(path)
	if err != nil {
		kfmt.Panic(err)
	}
	if len(entry.Data) > execMaxFileSize {
		kfmt.Panic(errExecTooLarge)
	}

	p.AddrSpace.UnmapUser()

	entryPoint, err := elf.Load(p.AddrSpace, entry.Data)
	if err != nil {
		kfmt.Panic(err)
	}

	mapUserStack(p.AddrSpace)

	p.TrapFrame.EPC = uint64(entryPoint)
	p.TrapFrame.Regs[RegSP] = uint64(userStackTop)

	return 0
}
