package binding

import "errors"

// Sentinel errors every Binding implementation reports through, so the
// typed layer can classify failures without knowing the implementation.
// Implementations wrap these with contextual detail.
var (
	ErrNotFound    = errors.New("object not found")
	ErrExists      = errors.New("object already exists")
	ErrBadHandle   = errors.New("invalid or released handle")
	ErrReadOnly    = errors.New("file is read-only")
	ErrUnsupported = errors.New("operation not supported by binding")
	ErrWrongType   = errors.New("wrong object or datatype kind")
	ErrSelection   = errors.New("selection does not fit dataspace")
)
