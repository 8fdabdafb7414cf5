// Package fs implements the kernel's fake filesystem: a read-only linear
// table of embedded blobs, generated at build time by cmd/mkfs from a host
// skeleton directory. There is no notion of directories, permissions, or
// inodes here, only a flat name to byte-slice mapping.
package fs

import "rvkernel/kernel"

// BSIZE is the block size used to chunk file reads and writes. Syscall
// argument validation caps any single read/write request at this size.
const BSIZE = 1024

// Entry is one file's worth of embedded content.
type Entry struct {
	Name string
	Data []byte
}

// Table holds every file the kernel image was built with. cmd/mkfs
// generates the source file that initializes this slice; it is empty until
// that generated file is linked in (or, in host tests, until tests call
// SetTableForTest).
var Table []Entry

var errNotFound = &kernel.Error{Module: "fs", Message: "no such file"}

// Lookup returns the embedded entry named path, or errNotFound.
func Lookup(path string) (*Entry, *kernel.Error) {
	for i := range Table {
		if Table[i].Name == path {
			return &Table[i], nil
		}
	}
	return nil, errNotFound
}

// SetTableForTest overwrites Table, used by package tests and by higher
// layers' tests that need a deterministic fake filesystem without linking
// cmd/mkfs's generated output.
func SetTableForTest(entries []Entry) {
	Table = entries
}
