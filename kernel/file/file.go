// Package file implements the kernel's File abstraction: a closed set of
// file kinds (console device, fake-filesystem file, pipe end) reached through
// shared handles. The kernel knows the full set of kinds, so an
// interface over a handful of concrete types is all the polymorphism
// needed.
package file

import "rvkernel/kernel"

// File is the interface every file-table entry satisfies, independent of
// whether it is backed by the console device, the fake filesystem or a pipe.
type File interface {
	// Read copies up to len(buf) bytes into buf, returning the number of
	// bytes read.
	Read(buf []byte) (int, *kernel.Error)

	// Write copies len(buf) bytes from buf into the file.
	Write(buf []byte) (int, *kernel.Error)

	// Close drops one reference. An FSFile releases its state only once
	// every Dup'd reference has been closed; a Pipe end is not reference
	// counted and closes on the first Close of any of its handles.
	Close() *kernel.Error

	// Dup returns a new reference to the same underlying file, sharing
	// state (e.g. an FSFile's read/write offset) with the original.
	Dup() File
}

var errReadTooLarge = &kernel.Error{Module: "file", Message: "read exceeds BSIZE"}
var errWriteTooLarge = &kernel.Error{Module: "file", Message: "write exceeds BSIZE"}
