package store

import "fmt"

// CorruptDataError reports a backing file that exists but does not have the
// expected row shape. Line is the 1-based physical line the offending record
// starts on; 0 means the file as a whole.
type CorruptDataError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptDataError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("corrupt data in %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("corrupt data in %s: %v", e.Path, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write of the backing file.
type PersistenceError struct {
	Path string
	Op   string // create, write, sync, rename, mkdir
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
