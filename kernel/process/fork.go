package process

import "rvkernel/kernel/kfmt"

// Fork clones the current process: a deep copy of its user address space, a
// copy of its trap frame (with a0 forced to 0, so the child observes a zero
// return), and a share of every open file handle. The child enters the pool
// Runnable. Returns the child's pid, or -1 if the pool is full.
func Fork() int64 {
	parent := MyProc()

	pid, ok := reservePID()
	if !ok {
		return -1
	}

	child := newProcess(pid)

	as, err := parent.AddrSpace.Clone()
	if err != nil {
		kfmt.Panic(err)
	}
	child.AddrSpace = as
	child.mapFixedPages()

	*child.TrapFrame = *parent.TrapFrame
	child.TrapFrame.Regs[RegA0] = 0

	for i, f := range parent.Files {
		if f != nil {
			child.Files[i] = f.Dup()
		}
	}

	child.State = Runnable
	insert(child)

	return int64(pid)
}
