// Package kernel contains types shared across the entire kernel tree.
package kernel

// Error is the kernel's sole error representation. Every fallible kernel
// operation returns a *Error instead of the stdlib error interface so that
// kfmt.Panic can report it without pulling in the errors/fmt machinery
// before the Go runtime is fully initialized.
type Error struct {
	// Module is the short name of the package that generated the error.
	Module string

	// Message describes what went wrong.
	Message string
}

// Error implements the error interface so a *Error can still be passed
// anywhere a stdlib error is expected (e.g. by host-side tooling and tests).
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return "[" + e.Module + "] " + e.Message
}
