package file

import (
	"rvkernel/kernel"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/hal"
	"rvkernel/kernel/kfmt"
)

var errNoUART = &kernel.Error{Module: "file", Message: "console opened before a UART driver was registered"}

// Console is the device file backing "/console". It carries no state of its
// own; reads and writes go straight to the registered UART driver, which
// provides its own synchronization. Dup therefore shares the same value
// rather than copying anything.
type Console struct{}

// OpenConsole returns the console device file. A UART driver must already be
// registered; the console is only ever opened from a running process, long
// after the boot sequence installed the platform drivers.
func OpenConsole() *Console {
	if hal.ActiveUART() == nil {
		kfmt.Panic(errNoUART)
	}
	return &Console{}
}

// Read drains up to len(buf) received bytes from the UART, returning as soon
// as no more input is pending.
func (c *Console) Read(buf []byte) (int, *kernel.Error) {
	if len(buf) > fs.BSIZE {
		return 0, errReadTooLarge
	}

	uart := hal.ActiveUART()
	for i := range buf {
		b, ok := uart.GetByte()
		if !ok {
			return i, nil
		}
		buf[i] = b
	}
	return len(buf), nil
}

// Write transmits every byte of buf through the UART.
func (c *Console) Write(buf []byte) (int, *kernel.Error) {
	if len(buf) > fs.BSIZE {
		return 0, errWriteTooLarge
	}

	uart := hal.ActiveUART()
	for _, b := range buf {
		uart.PutByte(b)
	}
	return len(buf), nil
}

// Close is a no-op; the console has no per-open resources to release.
func (c *Console) Close() *kernel.Error {
	return nil
}

// Dup shares the same console value; there is no per-handle state.
func (c *Console) Dup() File {
	return c
}
