package syscall

import (
	"rvkernel/kernel"
	"rvkernel/kernel/file"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/process"
)

// consolePath is the device path open special-cases to the UART-backed
// console file.
const consolePath = "/console"

var errTransferTooLarge = &kernel.Error{Module: "syscall", Message: "read/write larger than the filesystem block size"}

// sysRead: read(fd, buf, len). Delegates to the file object after bounding
// len at the filesystem block size.
func sysRead(p *process.Process) int64 {
	_, f := argFD(p, 0)

	size := argSize(p, 2)
	if size > fs.BSIZE {
		kfmt.Panic(errTransferTooLarge)
	}

	buf := argBytes(p, 1, 2)
	n, err := f.Read(buf)
	if err != nil {
		kfmt.Panic(err)
	}
	return int64(n)
}

// sysWrite: write(fd, buf, len). Same bounds as sysRead.
func sysWrite(p *process.Process) int64 {
	_, f := argFD(p, 0)

	size := argSize(p, 2)
	if size > fs.BSIZE {
		kfmt.Panic(errTransferTooLarge)
	}

	buf := argBytes(p, 1, 2)
	n, err := f.Write(buf)
	if err != nil {
		kfmt.Panic(err)
	}
	return int64(n)
}

// sysOpen: open(path, len, mode). Builds a console file for the device path
// or a filesystem file for anything the embedded table holds; the mode
// argument is accepted and ignored since every file is read-only or a
// device. Returns the new descriptor, or -1 if the table is full.
func sysOpen(p *process.Process) int64 {
	path := argString(p, 0, 1)

	fd := nextFreeFD(p)
	if fd < 0 {
		return -1
	}

	if path == consolePath {
		p.Files[fd] = file.OpenConsole()
		return int64(fd)
	}

	entry, err := fs.Lookup(path)
	if err != nil {
		kfmt.Panic(err)
	}
	p.Files[fd] = file.OpenFSFile(entry)
	return int64(fd)
}

// sysClose: close(fd). Drops the process's handle.
func sysClose(p *process.Process) int64 {
	fd, f := argFD(p, 0)
	if err := f.Close(); err != nil {
		kfmt.Panic(err)
	}
	p.Files[fd] = nil
	return 0
}

// sysDup: dup(fd). Shares the existing handle into the lowest free slot.
// Returns the new descriptor, or -1 if the table is full.
func sysDup(p *process.Process) int64 {
	_, f := argFD(p, 0)

	fd := nextFreeFD(p)
	if fd < 0 {
		return -1
	}
	p.Files[fd] = f.Dup()
	return int64(fd)
}
