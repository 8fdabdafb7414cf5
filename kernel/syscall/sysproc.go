package syscall

import "rvkernel/kernel/process"

// sysFork: fork(). The child's a0 was forced to 0 when its trap frame was
// copied; the parent receives the child pid.
func sysFork(p *process.Process) int64 {
	return process.Fork()
}

// sysExit: exit(code). Never returns.
func sysExit(p *process.Process) int64 {
	process.Exit(argInt(p, 0))
	return 0
}

// sysExec: exec(path, len). Replaces the user image; the 0 return value
// lands in the new image's a0.
func sysExec(p *process.Process) int64 {
	return process.Exec(argString(p, 0, 1))
}
