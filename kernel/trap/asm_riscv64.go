//go:build riscv64
// +build riscv64

package trap

// kernelvecAddr returns the address of the supervisor trap entry in
// kernelvec_riscv64.s.
func kernelvecAddr() uintptr

// uservecAddr and userretAddr return the link-time addresses of the two
// trampoline entry points; UserTrapRet rebases them onto the TRAMPOLINE
// virtual mapping.
func uservecAddr() uintptr

func userretAddr() uintptr

// jumpUserret transfers control to userret through its trampoline-mapped
// address, passing the trap-frame virtual address and the user satp. Does
// not return.
func jumpUserret(trapframeVA uintptr, userSatp uint64, target uintptr)
