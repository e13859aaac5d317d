package h5typed

import (
	"reflect"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// CompoundRW is the compound-record surface. Records are structs (fields
// matched by name or `h5` tag), map[string]any, []any, or fixed arrays;
// the member mapping is supplied explicitly, inferred from struct tags,
// or derived from the on-disk compound type when reading. Obtain it from
// File.Compounds.
type CompoundRW struct {
	f *File
}

func toSpecs(members []CompoundMember) []memberSpec {
	specs := make([]memberSpec, len(members))
	for i, m := range members {
		specs[i] = memberSpec{CompoundMember: m}
	}
	return specs
}

// mappingFor resolves the write-side mapping: explicit members win,
// otherwise struct tags are inferred.
func mappingFor(rec any, members []CompoundMember) ([]CompoundMember, error) {
	if len(members) > 0 {
		return members, nil
	}
	return InferMapping(rec)
}

// Write writes a scalar compound record.
func (rw *CompoundRW) Write(path string, rec any, members ...CompoundMember) error {
	return rw.write(path, []any{rec}, nil, rec, members, nil)
}

// WriteArray writes a rank-1 compound dataset. recs must be a slice; its
// elements are the records.
func (rw *CompoundRW) WriteArray(path string, recs any, members ...CompoundMember) error {
	rv := reflect.ValueOf(recs)
	if rv.Kind() != reflect.Slice {
		return merry.Appendf(ErrTypeMismatch, "WriteArray needs a slice, got %T", recs)
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	if len(list) == 0 {
		return merry.Appendf(ErrShapeMismatch, "empty record slice for %q", path)
	}
	return rw.write(path, list, []uint64{uint64(len(list))}, list[0], members, nil)
}

func (rw *CompoundRW) write(path string, recs []any, dims []uint64, sample any,
	members []CompoundMember, opts []DatasetOption) error {

	mapping, err := mappingFor(sample, members)
	if err != nil {
		return err
	}
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		cb, err := buildByteifyer(rw.f, sample, toSpecs(mapping))
		if err != nil {
			return err
		}
		storage, err := cb.buildStorageType(rw.f, s, 0)
		if err != nil {
			return err
		}
		ds, err := rw.f.prepareDataset(s, path, storage, cb.recordSize, dims, o)
		if err != nil {
			return err
		}
		buf := make([]byte, len(recs)*cb.recordSize)
		for i, rec := range recs {
			if err := cb.byteify(rec, buf[i*cb.recordSize:(i+1)*cb.recordSize]); err != nil {
				return err
			}
		}
		return wrapBinding(rw.f.b.WriteData(ds, storage, binding.SpaceAll, binding.SpaceAll, buf), path)
	})
}

// CommitType commits the compound layout for sample under
// __DATATYPES__/Compound_<name>, deduplicating per file.
func (rw *CompoundRW) CommitType(name string, sample any, members ...CompoundMember) error {
	mapping, err := mappingFor(sample, members)
	if err != nil {
		return err
	}
	return rw.f.run(func(s *scopeT) error {
		_, err := rw.f.registry.compoundType(name, func() (binding.Handle, error) {
			cb, err := buildByteifyer(rw.f, sample, toSpecs(mapping))
			if err != nil {
				return binding.InvalidHandle, err
			}
			// Registry-owned: built outside the scope so the handle
			// survives the operation.
			return cb.buildStorageType(rw.f, &scopeT{}, 0)
		})
		return err
	})
}

// storedSpecs derives the member mapping from the on-disk compound type,
// carrying the stored offsets. Struct records refine the kind per field
// (a time.Time field turns a stored i64 into a timestamp member).
func (rw *CompoundRW) storedSpecs(ty binding.Handle, path string, rec any) ([]memberSpec, int, error) {
	b := rw.f.b
	stored, err := b.CompoundMembers(ty)
	if err != nil {
		return nil, 0, wrapBinding(err, path)
	}
	total, err := b.TypeSize(ty)
	if err != nil {
		return nil, 0, wrapBinding(err, path)
	}
	specs := make([]memberSpec, 0, len(stored))
	for _, sm := range stored {
		spec, err := rw.specForStored(sm, path, rec)
		_ = b.Close(sm.Type)
		if err != nil {
			return nil, 0, err
		}
		specs = append(specs, spec)
	}
	return specs, total, nil
}

func (rw *CompoundRW) specForStored(sm binding.CompoundMemberInfo, path string, rec any) (memberSpec, error) {
	b := rw.f.b
	cls, err := b.TypeClass(sm.Type)
	if err != nil {
		return memberSpec{}, wrapBinding(err, path)
	}
	size, err := b.TypeSize(sm.Type)
	if err != nil {
		return memberSpec{}, wrapBinding(err, path)
	}

	m := CompoundMember{Name: sm.Name}
	// A stored array of bitfield words is the packed form of a bit-set
	// member.
	if cls == binding.ClassArray {
		base, err := b.ArrayBase(sm.Type)
		if err != nil {
			return memberSpec{}, wrapBinding(err, path)
		}
		baseCls, err := b.TypeClass(base)
		_ = b.Close(base)
		if err != nil {
			return memberSpec{}, wrapBinding(err, path)
		}
		if baseCls != binding.ClassBitField {
			return memberSpec{}, merry.Appendf(ErrTypeMismatch,
				"%q member %q: unsupported array member", path, sm.Name)
		}
		m.Kind = KindBitField
		m.Length = size / 8
		return memberSpec{CompoundMember: m, offset: sm.Offset, hasOffset: true}, nil
	}

	variant := VariantNone
	if rec != nil && fieldIsTime(rec, sm.Name) {
		variant = VariantTimestampMillis
	}
	kind, ok := overrideMemberKind(cls, size, variant)
	if !ok {
		return memberSpec{}, merry.Appendf(ErrTypeMismatch,
			"%q member %q: no host kind for class %s size %d", path, sm.Name, cls, size)
	}
	m.Kind = kind
	switch kind {
	case KindString, KindOpaque:
		m.Length = size
		if kind == KindOpaque {
			if m.Tag, err = b.OpaqueTag(sm.Type); err != nil {
				return memberSpec{}, wrapBinding(err, path)
			}
		}
	case KindBitField:
		m.Length = size / 8
	case KindEnum:
		names, err := b.EnumMembers(sm.Type)
		if err != nil {
			return memberSpec{}, wrapBinding(err, path)
		}
		m.Enum = NewEnumType(sm.Name, names...)
	}
	return memberSpec{CompoundMember: m, offset: sm.Offset, hasOffset: true}, nil
}

func fieldIsTime(rec any, name string) bool {
	rt := reflect.TypeOf(rec)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return false
	}
	// Match by field name or h5 tag.
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tagName, _ := parseTag(f.Tag.Get("h5"))
		if f.Name == name || tagName == name {
			return f.Type == timeType
		}
	}
	return false
}

// renameForStruct maps stored member names onto struct field names via
// the struct's h5 tags.
func renameForStruct(specs []memberSpec, rec any) {
	rt := reflect.TypeOf(rec)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return
	}
	byTag := make(map[string]string)
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if tagName, _ := parseTag(f.Tag.Get("h5")); tagName != "" && tagName != "-" {
			byTag[tagName] = f.Name
		}
	}
	for i := range specs {
		if field, ok := byTag[specs[i].Name]; ok {
			specs[i].Field = field
		}
	}
}

// Read reads a scalar compound record into rec: a struct pointer, a
// map[string]any, a []any, or an array pointer. Members present in the
// file but absent from a struct model are skipped; their bytes are
// discarded.
func (rw *CompoundRW) Read(path string, rec any) error {
	return rw.read(path, func(n int, each func(i int, rec any) error) error {
		if n != 1 {
			return merry.Appendf(ErrRankMismatch, "%q holds %d records, want a scalar", path, n)
		}
		return each(0, rec)
	}, rec)
}

// ReadArray reads a rank-1 compound dataset into *[]T (structs or maps).
func (rw *CompoundRW) ReadArray(path string, recsPtr any) error {
	rv := reflect.ValueOf(recsPtr)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return merry.Appendf(ErrTypeMismatch, "ReadArray needs a pointer to slice, got %T", recsPtr)
	}
	elemType := rv.Elem().Type().Elem()
	sample := sampleRecordFor(elemType)
	return rw.read(path, func(n int, each func(i int, rec any) error) error {
		out := reflect.MakeSlice(rv.Elem().Type(), n, n)
		for i := 0; i < n; i++ {
			rec := newRecordFor(elemType)
			if err := each(i, rec); err != nil {
				return err
			}
			out.Index(i).Set(recordValue(rec, elemType))
		}
		rv.Elem().Set(out)
		return nil
	}, sample)
}

// sampleRecordFor builds a probe record of the slice element type, used
// only for mapping derivation.
func sampleRecordFor(elemType reflect.Type) any {
	return newRecordFor(elemType)
}

// newRecordFor allocates a writable record for one slice element.
func newRecordFor(elemType reflect.Type) any {
	switch elemType.Kind() {
	case reflect.Map:
		return map[string]any{}
	case reflect.Struct:
		return reflect.New(elemType).Interface()
	default:
		return reflect.New(elemType).Interface()
	}
}

// recordValue converts the filled record back to the slice element shape.
func recordValue(rec any, elemType reflect.Type) reflect.Value {
	rv := reflect.ValueOf(rec)
	if rv.Kind() == reflect.Ptr && elemType.Kind() != reflect.Ptr {
		rv = rv.Elem()
	}
	return rv
}

func (rw *CompoundRW) read(path string, deliver func(n int, each func(i int, rec any) error) error, sample any) error {
	return rw.f.run(func(s *scopeT) error {
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
		if cls != binding.ClassCompound {
			return merry.Appendf(ErrTypeMismatch, "%q stores %s, want COMPOUND", path, cls)
		}
		specs, totalSize, err := rw.storedSpecs(ty, path, sample)
		if err != nil {
			return err
		}
		renameForStruct(specs, sample)
		cb, err := buildByteifyer(rw.f, sample, specs)
		if err != nil {
			return err
		}
		dims, _, err := rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		n := int(elemCount(dims))
		buf := make([]byte, n*totalSize)
		if err := rw.f.b.ReadData(ds, ty, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
			return wrapBinding(err, path)
		}
		return deliver(n, func(i int, rec any) error {
			return cb.setFromBytes(rec, buf[i*totalSize:(i+1)*totalSize])
		})
	})
}
