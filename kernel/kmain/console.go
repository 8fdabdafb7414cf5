package kmain

import (
	"rvkernel/kernel/hal"
	"rvkernel/kernel/kfmt"
)

// uartWriter adapts the registered UART driver to io.Writer so kfmt can
// drain its pre-console ring buffer and send all later output to the
// platform console.
type uartWriter struct{}

func (uartWriter) Write(p []byte) (int, error) {
	uart := hal.ActiveUART()
	if uart == nil {
		return len(p), nil
	}
	for _, b := range p {
		uart.PutByte(b)
	}
	return len(p), nil
}

// InitConsole points kernel logging at the UART the platform registered.
// Called by bootAllHarts once the platform has registered its drivers; everything
// printed earlier is replayed from the ring buffer. Each line carries a
// kernel prefix so kernel output is distinguishable from user writes to
// the console file, which go to the UART directly.
func InitConsole() {
	kfmt.SetOutputSink(&kfmt.PrefixWriter{
		Sink:   uartWriter{},
		Prefix: []byte("[kernel] "),
	})
}
