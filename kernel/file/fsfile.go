package file

import (
	"rvkernel/kernel"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/sync"
)

var errFSWrite = &kernel.Error{Module: "file", Message: "write to a filesystem file is unimplemented"}

// fsFileState is the state shared by every Dup'd handle to the same open
// file: the embedded entry, the read offset, and the number of live handles.
// The offset moves under its own lock, per the shared-resource policy: file
// objects are shared across processes and each protects its own state.
type fsFileState struct {
	lock   sync.Lock
	entry  *fs.Entry
	offset int
	refs   int32
}

// FSFile is a handle to a read-only file in the embedded filesystem table.
// Handles produced by Dup share offset and refcount state.
type FSFile struct {
	s *fsFileState
}

// OpenFSFile builds the first handle to entry with the offset at zero.
func OpenFSFile(entry *fs.Entry) *FSFile {
	return &FSFile{s: &fsFileState{entry: entry, refs: 1}}
}

// Read copies up to len(buf) bytes from the shared offset and advances it.
// At end of file it returns 0.
func (f *FSFile) Read(buf []byte) (int, *kernel.Error) {
	if len(buf) > fs.BSIZE {
		return 0, errReadTooLarge
	}

	g := f.s.lock.Acquire()
	n := copy(buf, f.s.entry.Data[f.s.offset:])
	f.s.offset += n
	g.Release()

	return n, nil
}

// Write is undefined for filesystem files; the embedded table is read-only.
func (f *FSFile) Write(buf []byte) (int, *kernel.Error) {
	kfmt.Panic(errFSWrite)
	return 0, errFSWrite
}

// Close drops one handle. The backing entry lives in the embedded table, so
// there is nothing to release once the last handle goes away; the refcount
// exists so shared state is not torn down while a Dup'd handle survives.
func (f *FSFile) Close() *kernel.Error {
	g := f.s.lock.Acquire()
	f.s.refs--
	g.Release()
	return nil
}

// Dup returns a new handle sharing this file's offset and refcount.
func (f *FSFile) Dup() File {
	g := f.s.lock.Acquire()
	f.s.refs++
	g.Release()
	return &FSFile{s: f.s}
}

// Refs reports the number of live handles. Exposed for the pool's
// consistency assertions and for tests.
func (f *FSFile) Refs() int32 {
	g := f.s.lock.Acquire()
	defer g.Release()
	return f.s.refs
}
