// Package h5typed is a typed, path-addressed layer over an HDF5 binding.
//
// The package reads and writes hierarchical scientific datasets — groups,
// datasets, attributes, committed datatypes and links — through typed
// per-element-kind surfaces obtained from a File:
//
//	f, _ := h5typed.Create(bind, "data.h5")
//	defer f.Close()
//
//	_ = f.Float64s().WriteMatrix("/m", [][]float64{{1, 2}, {3, 4}})
//	_ = f.Int32s().WriteArray("/x", []int32{0, 1, 2}, h5typed.WithChunks(4))
//	vals, _ := f.Int32s().ReadArrayBlockWithOffset("/x", 5, 3)
//
// Every surface offers the same matrix of operations: scalar, 1-D, 2-D
// and N-D reads and writes, block and block-with-offset variants, and a
// natural-block iterator that streams chunked datasets one chunk per
// round-trip. Composite kinds — enumerations, compound records, opaque
// tagged blobs, bit fields, object references, timestamps — have their
// own surfaces built on the same plumbing.
//
// # The binding
//
// The package never touches the container format. All primitive
// operations go through the binding.Binding interface: a cgo wrapper over
// the native library in production, or the in-memory implementation used
// by the tests. Handles acquired during an operation are owned by a
// cleanup scope and released in reverse order on every exit path.
//
// # Committed datatypes
//
// Enumerations, the boolean type, the variable-length string type,
// opaque tags and named compound layouts are committed under the
// reserved /__DATATYPES__ group and reused across writes. Paths starting
// with "__" are internal and filtered from member enumeration.
//
// # Concurrency
//
// A File and everything derived from it must not be mutated from
// multiple goroutines. Read-only files may be shared when the binding
// reports thread-safe reads; the package adds no locking of its own.
package h5typed
