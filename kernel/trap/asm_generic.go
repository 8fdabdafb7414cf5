//go:build !riscv64
// +build !riscv64

package trap

import "rvkernel/kernel/hal"

// Host stand-ins for the assembly entry points, mirroring the cpu package's
// host build: addresses become observable placeholder values and the final
// jump to user mode becomes a recordable no-op so the trap-return path can
// run under `go test`.

// jumpedToUser records the arguments of the last jumpUserret call, for
// tests that drive UserTrapRet.
var jumpedToUser struct {
	trapframeVA uintptr
	userSatp    uint64
	target      uintptr
	count       int
}

func kernelvecAddr() uintptr { return 0x1000 }

func uservecAddr() uintptr { return hal.TrampolineStart }

func userretAddr() uintptr { return hal.TrampolineStart + 0x80 }

func jumpUserret(trapframeVA uintptr, userSatp uint64, target uintptr) {
	jumpedToUser.trapframeVA = trapframeVA
	jumpedToUser.userSatp = userSatp
	jumpedToUser.target = target
	jumpedToUser.count++
}
