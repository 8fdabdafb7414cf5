package mem

// Kernel tunables. These bound the scheduler's and process table's static
// arrays; the values are conventions of this kernel, not of the platform.
const (
	// NCPUs is the number of harts the kernel supports simultaneously.
	NCPUs = 8

	// NMaxProcs is the number of slots in the process pool.
	NMaxProcs = 256

	// KStackPages is the number of PageSize pages reserved for each
	// process's kernel stack.
	KStackPages = 1024

	// SchedulerInterval is, in mtime ticks, how often the machine-mode
	// timer trampoline rearms the timer and raises a supervisor
	// software interrupt.
	SchedulerInterval = 1_000_000
)
