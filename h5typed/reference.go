package h5typed

import (
	"strconv"
	"strings"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/bytecodec"
)

// ReferenceRW is the object-reference surface. A reference is the in-file
// address of an object, stored as an i64. The string form is
// "\0<decimal-address>": the leading NUL distinguishes it from a path.
// Obtain it from File.References.
type ReferenceRW struct {
	f *File
}

// EncodeReference returns the string form of a reference value.
func EncodeReference(addr uint64) string {
	return "\x00" + strconv.FormatUint(addr, 10)
}

// ParseReference decodes a reference string form.
func ParseReference(s string) (uint64, error) {
	if !strings.HasPrefix(s, "\x00") {
		return 0, merry.Appendf(ErrNotAReference, "%q has no reference marker", s)
	}
	addr, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil {
		return 0, merry.Appendf(ErrNotAReference, "%q: %v", s, err)
	}
	return addr, nil
}

// IsReferenceString reports whether s is in the encoded reference form.
func IsReferenceString(s string) bool {
	return strings.HasPrefix(s, "\x00")
}

// Write stores a reference to the object at targetPath in a scalar
// dataset at path.
func (rw *ReferenceRW) Write(path, targetPath string, opts ...DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		addr, err := rw.f.b.ObjectAddress(rw.f.h, CleanPath(targetPath))
		if err != nil {
			return wrapBinding(err, targetPath)
		}
		storage, err := rw.f.b.MakeReferenceType()
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, storage)
		ds, err := rw.f.prepareDataset(s, path, storage, 8, nil, o)
		if err != nil {
			return err
		}
		native, err := rw.f.b.MakeIntType(8, true, false)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, native)
		buf := make([]byte, 8)
		bytecodec.EncodeInt64s(buf, []int64{int64(addr)}, hostOrder)
		return wrapBinding(rw.f.b.WriteData(ds, native, binding.SpaceAll, binding.SpaceAll, buf), path)
	})
}

// readAddr reads the reference value stored at path.
func (rw *ReferenceRW) readAddr(path string) (uint64, error) {
	var addr uint64
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		ty, err := rw.f.datasetType(s, ds, path)
		if err != nil {
			return err
		}
		cls, err := rw.f.b.TypeClass(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		if cls != binding.ClassReference {
			return merry.Appendf(ErrNotAReference, "%q stores %s", path, cls)
		}
		native, err := rw.f.b.MakeIntType(8, true, false)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, native)
		buf := make([]byte, 8)
		if err := rw.f.b.ReadData(ds, native, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
			return wrapBinding(err, path)
		}
		vals := make([]int64, 1)
		bytecodec.DecodeInt64s(vals, buf, hostOrder)
		addr = uint64(vals[0])
		return nil
	})
	return addr, err
}

// Read resolves the reference at path to the target's canonical path.
func (rw *ReferenceRW) Read(path string) (string, error) {
	addr, err := rw.readAddr(path)
	if err != nil {
		return "", err
	}
	target, err := rw.f.b.PathByAddress(rw.f.h, addr)
	if err != nil {
		return "", wrapBinding(err, path)
	}
	return target, nil
}

// ReadEncoded returns the reference at path in its encoded string form
// without resolving it.
func (rw *ReferenceRW) ReadEncoded(path string) (string, error) {
	addr, err := rw.readAddr(path)
	if err != nil {
		return "", err
	}
	return EncodeReference(addr), nil
}

// Resolve turns an encoded reference string into the target's canonical
// path.
func (rw *ReferenceRW) Resolve(encoded string) (string, error) {
	addr, err := ParseReference(encoded)
	if err != nil {
		return "", err
	}
	target, err := rw.f.b.PathByAddress(rw.f.h, addr)
	if err != nil {
		return "", wrapBinding(err, encoded)
	}
	return target, nil
}
