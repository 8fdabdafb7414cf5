//go:build !riscv64
// +build !riscv64

package process

// swtchFn stands in for the assembly context switch on the host. Tests
// install a function emulating the far side of the switch (the scheduler
// when a process switches out, or vice versa), which lets the full
// sleep/yield protocol run single-threaded under `go test`.
var swtchFn func(old, new *Context)

// Swtch invokes the host-side stand-in for the context switch, or does
// nothing if no stand-in is installed.
func Swtch(old, new *Context) {
	if swtchFn != nil {
		swtchFn(old, new)
	}
}
