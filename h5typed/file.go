package h5typed

import (
	"github.com/ansel1/merry"
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/scope"
)

// File is an open HDF5 file seen through the typed layer. All typed
// reader/writer surfaces hang off it.
//
// A File and everything derived from it must not be mutated from multiple
// goroutines; see the package documentation.
type File struct {
	b            binding.Binding
	h            binding.Handle
	path         string
	readOnly     bool
	latestFormat bool
	logger       logrus.FieldLogger
	closed       bool
	registry     *typeRegistry
}

// Create creates (truncating) a file through the given binding.
func Create(b binding.Binding, path string, opts ...FileOption) (*File, error) {
	o := defaultFileOptions()
	for _, opt := range opts {
		opt(o)
	}
	h, err := b.CreateFile(path, o.latestFormat)
	if err != nil {
		return nil, wrapBinding(err, path)
	}
	f := &File{b: b, h: h, path: path, latestFormat: o.latestFormat, logger: o.logger}
	f.registry = newTypeRegistry(f)
	f.log().WithField("path", path).Debug("created file")
	return f, nil
}

// Open opens an existing file read-write.
func Open(b binding.Binding, path string, opts ...FileOption) (*File, error) {
	return open(b, path, false, opts...)
}

// OpenReadOnly opens an existing file for reading only.
func OpenReadOnly(b binding.Binding, path string, opts ...FileOption) (*File, error) {
	return open(b, path, true, opts...)
}

func open(b binding.Binding, path string, readOnly bool, opts ...FileOption) (*File, error) {
	o := defaultFileOptions()
	for _, opt := range opts {
		opt(o)
	}
	h, err := b.OpenFile(path, readOnly)
	if err != nil {
		return nil, wrapBinding(err, path)
	}
	f := &File{
		b: b, h: h, path: path,
		readOnly:     readOnly,
		latestFormat: o.latestFormat,
		logger:       o.logger,
	}
	f.registry = newTypeRegistry(f)
	f.log().WithFields(logrus.Fields{"path": path, "readOnly": readOnly}).Debug("opened file")
	return f, nil
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Flush forces a file-level synchronization.
func (f *File) Flush() error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	return wrapBinding(f.b.FlushFile(f.h), f.path)
}

// Close releases the file handle and the per-file datatype cache. Closing
// twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.registry.teardown()
	return wrapBinding(f.b.CloseFile(f.h), f.path)
}

func (f *File) log() logrus.FieldLogger {
	if f.logger != nil {
		return f.logger
	}
	return discardLogger
}

// discardLogger swallows log output when no logger is configured.
var discardLogger logrus.FieldLogger = func() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(discard{})
	l.SetLevel(logrus.PanicLevel)
	return l
}()

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// run executes a typed operation under a cleanup scope.
func (f *File) run(fn func(*scope.Scope) error) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	return scope.RunLogged(f.logger, fn)
}

// --- typed surfaces ---

// Int8s returns the reader/writer surface for 8-bit signed integers.
func (f *File) Int8s() *NumericRW[int8] { return &NumericRW[int8]{f: f, elem: elemInt8} }

// Int16s returns the reader/writer surface for 16-bit signed integers.
func (f *File) Int16s() *NumericRW[int16] { return &NumericRW[int16]{f: f, elem: elemInt16} }

// Int32s returns the reader/writer surface for 32-bit signed integers.
func (f *File) Int32s() *NumericRW[int32] { return &NumericRW[int32]{f: f, elem: elemInt32} }

// Int64s returns the reader/writer surface for 64-bit signed integers.
func (f *File) Int64s() *NumericRW[int64] { return &NumericRW[int64]{f: f, elem: elemInt64} }

// Float32s returns the reader/writer surface for 32-bit floats.
func (f *File) Float32s() *NumericRW[float32] { return &NumericRW[float32]{f: f, elem: elemFloat32} }

// Float64s returns the reader/writer surface for 64-bit floats.
func (f *File) Float64s() *NumericRW[float64] { return &NumericRW[float64]{f: f, elem: elemFloat64} }

// Strings returns the string surface.
func (f *File) Strings() *StringRW { return &StringRW{f: f} }

// Bools returns the boolean and bit-field surface.
func (f *File) Bools() *BoolRW { return &BoolRW{f: f} }

// Enums returns the enumeration surface.
func (f *File) Enums() *EnumRW { return &EnumRW{f: f} }

// Compounds returns the compound-record surface.
func (f *File) Compounds() *CompoundRW { return &CompoundRW{f: f} }

// Opaques returns the opaque tagged-blob surface.
func (f *File) Opaques() *OpaqueRW { return &OpaqueRW{f: f} }

// References returns the object-reference surface.
func (f *File) References() *ReferenceRW { return &ReferenceRW{f: f} }

// Times returns the timestamp surface.
func (f *File) Times() *TimeRW { return &TimeRW{f: f} }
