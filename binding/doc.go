// Package binding defines the contract between the typed HDF5 layer and a
// lower-level HDF5 implementation.
//
// The typed layer (package h5typed) never touches the container format
// itself. Everything it needs — opening files, creating dataspaces,
// selecting hyperslabs, reading and writing raw element bytes, building and
// committing datatypes — goes through the Binding interface declared here.
// All resources are opaque int64 handles; the typed layer acquires them
// inside a cleanup scope and releases them in reverse order.
//
// Two implementations are expected in practice: a cgo wrapper over the
// native HDF5 library, and the in-memory implementation in
// internal/membind that backs the test suite and the h5inspect tool.
package binding
