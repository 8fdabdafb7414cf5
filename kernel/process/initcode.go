package process

// initCode is the embedded bootstrap user program mapped at user virtual
// address 0 for pid 0. It opens the console, dups it onto descriptors 1 and
// 2, and execs /init; if exec somehow returns it exits. Hand-assembled
// position-independent rv64 code; the listing alongside each word is the
// source of truth for the bytes.
var initCode = []byte{
	// 00: auipc a0, 0          ; a0 = 0
	0x17, 0x05, 0x00, 0x00,
	// 04: addi  a0, a0, 0x60   ; a0 = &"/console"
	0x13, 0x05, 0x05, 0x06,
	// 08: li    a1, 8          ; len("/console")
	0x93, 0x05, 0x80, 0x00,
	// 0c: li    a2, 0          ; mode
	0x13, 0x06, 0x00, 0x00,
	// 10: li    a7, 9          ; open
	0x93, 0x08, 0x90, 0x00,
	// 14: ecall                ; -> fd 0
	0x73, 0x00, 0x00, 0x00,
	// 18: li    a0, 0
	0x13, 0x05, 0x00, 0x00,
	// 1c: li    a7, 16         ; dup
	0x93, 0x08, 0x00, 0x01,
	// 20: ecall                ; -> fd 1
	0x73, 0x00, 0x00, 0x00,
	// 24: li    a0, 0
	0x13, 0x05, 0x00, 0x00,
	// 28: li    a7, 16         ; dup
	0x93, 0x08, 0x00, 0x01,
	// 2c: ecall                ; -> fd 2
	0x73, 0x00, 0x00, 0x00,
	// 30: auipc a0, 0          ; a0 = 0x30
	0x17, 0x05, 0x00, 0x00,
	// 34: addi  a0, a0, 0x40   ; a0 = &"/init"
	0x13, 0x05, 0x05, 0x04,
	// 38: li    a1, 5          ; len("/init")
	0x93, 0x05, 0x50, 0x00,
	// 3c: li    a7, 8          ; exec
	0x93, 0x08, 0x80, 0x00,
	// 40: ecall
	0x73, 0x00, 0x00, 0x00,
	// 44: li    a7, 1          ; exit, if exec ever returns
	0x93, 0x08, 0x10, 0x00,
	// 48: li    a0, 0
	0x13, 0x05, 0x00, 0x00,
	// 4c: ecall
	0x73, 0x00, 0x00, 0x00,
	// 50: j     .              ; not reached
	0x6f, 0x00, 0x00, 0x00,
	// 54..5f: padding
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	// 60: "/console\0"
	'/', 'c', 'o', 'n', 's', 'o', 'l', 'e', 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	// 70: "/init\0"
	'/', 'i', 'n', 'i', 't', 0x00,
}
