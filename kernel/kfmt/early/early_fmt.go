// Package early provides a Printf wrapper safe to call from the earliest
// boot code, before hal device probing has picked an active console. It
// simply forwards to kfmt.Printf, which already buffers everything written
// before kfmt.SetOutputSink is called in a ring buffer; the separate package
// exists so that early-boot call sites (the frame allocator, the page-table
// bootstrap) can be grepped for and migrated independently of the rest of
// the kernel's logging.
package early

import "rvkernel/kernel/kfmt"

// Printf behaves exactly like kfmt.Printf.
func Printf(format string, args ...interface{}) {
	kfmt.Printf(format, args...)
}
