package process

import (
	"unsafe"

	"rvkernel/kernel"
	"rvkernel/kernel/file"
	"rvkernel/kernel/hal"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/pmm/allocator"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/sync"
)

// State is a process's position in its lifecycle state machine.
type State uint8

// Process states.
const (
	Unused State = iota
	Sleeping
	Runnable
	Running
	Zombie
)

// NOFILE is the number of slots in a process's file-handle table.
const NOFILE = 16

// User-stack geometry: the stack ends at a fixed high user address, well
// below the trap-frame page, and spans a handful of pages.
const (
	userStackTop   uintptr = 0x80000000
	userStackPages         = 4
)

var (
	errOutOfKernelMemory = &kernel.Error{Module: "process", Message: "out of memory building a process"}
	errInitcodeTooLarge  = &kernel.Error{Module: "process", Message: "initcode blob exceeds one page"}
	errInitSlotTaken     = &kernel.Error{Module: "process", Message: "init process slot already occupied"}
)

// Process is one schedulable user program: its user address space, trap
// frame, kernel context, kernel stack, file-handle table, and scheduling
// state. A process lives at pool index PID for its entire life.
type Process struct {
	// PID is the process's identity and its pool slot index.
	PID uint64

	// State is the scheduling state. It is written only by the process
	// itself (while Running) or under the pool lock.
	State State

	// AddrSpace is the process's user page table. Owned exclusively by
	// the process; the scheduler transfers ownership through the pool.
	AddrSpace *vmm.AddressSpace

	// TrapFrame points into the process's trap-frame page.
	TrapFrame *TrapFrame

	// Context is the saved kernel context used by the cooperative switch.
	Context Context

	// Channel is the sleep channel this process is blocked on, if any.
	Channel uintptr

	// Files is the file-handle table; nil entries are free descriptors.
	Files [NOFILE]file.File

	// ExitCode is the value passed to exit, kept for the reaper hook.
	ExitCode int64

	// kstack is the base of the kernel stack region; the stack grows
	// down from KStackTop.
	kstack uintptr

	// tfFrame is the allocator frame backing TrapFrame.
	tfFrame pmm.Frame

	// dropOnPutBack, when non-nil, is the sleep hand-off guard released
	// by putBack once the sleeper is visible in the pool again.
	dropOnPutBack *sync.Guard
}

// KStackTop returns the initial kernel stack pointer for this process.
func (p *Process) KStackTop() uintptr {
	return p.kstack + uintptr(mem.KStackPages)*uintptr(mem.PageSize)
}

// newProcess builds the parts of a process every creation path shares: the
// kernel stack, the trap-frame page, and a kernel context that enters
// forkret on the first switch in. The caller attaches an address space and
// then calls mapFixedPages. Allocation failure is fatal: it means the kernel
// heap cannot hold another process.
func newProcess(pid uint64) *Process {
	p := &Process{PID: pid, State: Unused}

	kstack, err := allocator.FrameAllocator.Allocate(mem.Size(mem.KStackPages) * mem.PageSize)
	if err != nil {
		kfmt.Panic(errOutOfKernelMemory)
	}
	p.kstack = kstack

	tf, err := allocator.FrameAllocator.AllocFrame()
	if err != nil {
		kfmt.Panic(errOutOfKernelMemory)
	}
	p.tfFrame = tf
	p.TrapFrame = (*TrapFrame)(unsafe.Pointer(tf.Address()))
	*p.TrapFrame = TrapFrame{}

	p.Context.Regs[ctxRA] = uint64(funcPC(forkret))
	p.Context.Regs[ctxSP] = uint64(p.KStackTop())

	return p
}

// mapFixedPages installs the two fixed-virtual-address mappings every user
// address space carries: the trampoline text and this process's trap-frame
// page. Both are kernel-only (no U flag).
func (p *Process) mapFixedPages() {
	if err := p.AddrSpace.KernelMap(mem.Trampoline, hal.TrampolineStart, vmm.FlagKernelRX); err != nil {
		kfmt.Panic(err)
	}
	if err := p.AddrSpace.KernelMap(mem.Trapframe, p.tfFrame.Address(), vmm.FlagKernelRW); err != nil {
		kfmt.Panic(err)
	}
}

// mapUserStack maps userStackPages fresh, zeroed URW pages ending at
// userStackTop.
func mapUserStack(as *vmm.AddressSpace) {
	for i := 0; i < userStackPages; i++ {
		vaddr := userStackTop - uintptr(i+1)*uintptr(mem.PageSize)
		if err := as.AllocUserPage(vaddr, vmm.FlagUserRW); err != nil {
			kfmt.Panic(err)
		}
	}
}

// free returns every resource the process owns to the allocator: its user
// address space (which releases user frames and inner tables), its
// trap-frame page, and its kernel stack. File handles are closed so shared
// refcounts drop. Only the reaper calls this, on processes no hart can
// reach anymore.
func (p *Process) free() {
	for i, f := range p.Files {
		if f != nil {
			f.Close()
			p.Files[i] = nil
		}
	}
	if p.AddrSpace != nil {
		p.AddrSpace.Drop()
		p.AddrSpace = nil
	}
	allocator.FrameAllocator.FreeFrame(p.tfFrame)
	allocator.FrameAllocator.Deallocate(p.kstack)
}

// InitProc builds pid 0 from the embedded initcode blob: one URX page at
// virtual address 0 holding the code, a user stack ending at userStackTop,
// epc at 0. It is inserted into the pool Runnable, ready for the first
// scheduler pass.
func InitProc() {
	if len(initCode) > int(mem.PageSize) {
		kfmt.Panic(errInitcodeTooLarge)
	}

	g := poolLock.Acquire()
	if pool[0].state != slotNoProc {
		kfmt.Panic(errInitSlotTaken)
	}
	pool[0].state = slotScheduled
	g.Release()

	p := newProcess(0)

	as, err := vmm.New()
	if err != nil {
		kfmt.Panic(errOutOfKernelMemory)
	}
	p.AddrSpace = as
	p.mapFixedPages()

	if err := as.AllocUserPage(0, vmm.FlagUserRX); err != nil {
		kfmt.Panic(err)
	}
	paddr, err := as.PaddrOf(0)
	if err != nil {
		kfmt.Panic(err)
	}
	kernel.Memcopy(uintptr(unsafe.Pointer(&initCode[0])), paddr, uintptr(len(initCode)))

	mapUserStack(as)

	p.TrapFrame.EPC = 0
	p.TrapFrame.Regs[RegSP] = uint64(userStackTop)
	p.State = Runnable

	insert(p)
}
