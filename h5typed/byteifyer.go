package h5typed

import (
	"reflect"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// memberSpec is a CompoundMember plus an optional explicit byte offset.
// Mappings derived from an on-disk compound carry the stored offsets;
// user-supplied mappings are packed cumulatively.
type memberSpec struct {
	CompoundMember
	offset    int
	hasOffset bool
}

// memberEncoder translates one compound member between a record slot and
// its byte slice in the packed record. A dummy encoder stands in for a
// schema member with no corresponding struct field: it writes zeros,
// ignores reads, and still reports the true storage type so the record
// layout is preserved.
type memberEncoder struct {
	member CompoundMember
	index  int
	offset int
	size   int
	dummy  bool

	byteify      func(view recordView, rec any, dst []byte) error
	setFromBytes func(view recordView, rec any, src []byte) error
	// makeStorage creates the on-disk member type; the caller owns the
	// handle.
	makeStorage func(f *File) (binding.Handle, error)
}

// memberFactory produces encoders for the member kinds it handles. The
// registry is an ordered list; the first factory whose CanHandle answers
// positively wins.
type memberFactory interface {
	CanHandle(m CompoundMember) bool
	CreateEncoder(f *File, m CompoundMember, index, offset int) (*memberEncoder, error)
	// OverrideKind maps an on-disk class back to a host kind, when this
	// factory has an opinion. The first non-false answer wins.
	OverrideKind(cls binding.TypeClass, elemSize int, variant TypeVariant) (MemberKind, bool)
}

// defaultMemberFactories is the built-in registry in registration order.
// The time factory precedes the plain integer factory so a
// timestamp-tagged i64 maps to a time value.
var defaultMemberFactories = []memberFactory{
	timeMemberFactory{},
	intMemberFactory{},
	floatMemberFactory{},
	stringMemberFactory{},
	enumMemberFactory{},
	bitFieldMemberFactory{},
	opaqueMemberFactory{},
}

func findMemberFactory(m CompoundMember) (memberFactory, error) {
	for _, fac := range defaultMemberFactories {
		if fac.CanHandle(m) {
			return fac, nil
		}
	}
	return nil, merry.Appendf(ErrTypeMismatch, "no factory handles member %q (kind %d)", m.Name, m.Kind)
}

// overrideMemberKind consults the factories for a host kind matching an
// on-disk class.
func overrideMemberKind(cls binding.TypeClass, elemSize int, variant TypeVariant) (MemberKind, bool) {
	for _, fac := range defaultMemberFactories {
		if k, ok := fac.OverrideKind(cls, elemSize, variant); ok {
			return k, true
		}
	}
	return 0, false
}

// compoundByteifyer packs records into a fixed binary layout and back,
// one encoder per member with cumulative offsets.
type compoundByteifyer struct {
	view       recordView
	members    []*memberEncoder
	recordSize int
}

// buildByteifyer assembles encoders for the member list against a sample
// record. With AccessField, a member whose struct field does not exist
// gets the dummy encoder, which keeps the layout intact while ignoring
// the value. recordSize is at least the packed span; a stored type may
// declare a larger size.
func buildByteifyer(f *File, sample any, specs []memberSpec) (*compoundByteifyer, error) {
	view, err := viewFor(sample)
	if err != nil {
		return nil, err
	}
	cb := &compoundByteifyer{view: view}
	offset := 0
	for i, spec := range specs {
		memberOffset := offset
		if spec.hasOffset {
			memberOffset = spec.offset
		}
		fac, err := findMemberFactory(spec.CompoundMember)
		if err != nil {
			return nil, err
		}
		enc, err := fac.CreateEncoder(f, spec.CompoundMember, i, memberOffset)
		if err != nil {
			return nil, err
		}
		if view.mode() == AccessField && !hasField(sample, spec.fieldName()) {
			makeDummy(enc)
		}
		cb.members = append(cb.members, enc)
		if end := memberOffset + enc.size; end > cb.recordSize {
			cb.recordSize = end
		}
		offset = memberOffset + enc.size
	}
	return cb, nil
}

func hasField(rec any, name string) bool {
	rt := reflect.TypeOf(rec)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return false
	}
	_, ok := rt.FieldByName(name)
	return ok
}

// makeDummy replaces the encoder's value movement with a zero-fill write
// and a no-op read, preserving size and storage type.
func makeDummy(enc *memberEncoder) {
	enc.dummy = true
	size := enc.size
	enc.byteify = func(_ recordView, _ any, dst []byte) error {
		for i := 0; i < size; i++ {
			dst[i] = 0
		}
		return nil
	}
	enc.setFromBytes = func(recordView, any, []byte) error { return nil }
}

// byteify packs one record.
func (cb *compoundByteifyer) byteify(rec any, dst []byte) error {
	for _, enc := range cb.members {
		if err := enc.byteify(cb.view, rec, dst[enc.offset:enc.offset+enc.size]); err != nil {
			return merry.Appendf(err, "member %q", enc.member.Name)
		}
	}
	return nil
}

// setFromBytes unpacks one record.
func (cb *compoundByteifyer) setFromBytes(rec any, src []byte) error {
	for _, enc := range cb.members {
		if err := enc.setFromBytes(cb.view, rec, src[enc.offset:enc.offset+enc.size]); err != nil {
			return merry.Appendf(err, "member %q", enc.member.Name)
		}
	}
	return nil
}

// buildStorageType creates the on-disk compound type for this layout.
// The handle is registered with the scope.
func (cb *compoundByteifyer) buildStorageType(f *File, s *scopeT, totalSize int) (binding.Handle, error) {
	if totalSize < cb.recordSize {
		totalSize = cb.recordSize
	}
	ct, err := f.b.MakeCompoundType(totalSize)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, "compound type")
	}
	s.Handle(f.b, ct)
	for _, enc := range cb.members {
		mt, err := enc.makeStorage(f)
		if err != nil {
			return binding.InvalidHandle, err
		}
		insertErr := f.b.CompoundInsert(ct, enc.member.Name, enc.offset, mt)
		// Committed member types (enums) are owned by the registry;
		// transient ones are closed here after insertion copies them.
		if !enc.registryOwned() {
			_ = f.b.Close(mt)
		}
		if insertErr != nil {
			return binding.InvalidHandle, wrapBinding(insertErr, enc.member.Name)
		}
	}
	return ct, nil
}

// registryOwned reports whether the member's storage handle belongs to
// the per-file type registry and must not be closed by the byteifyer.
func (enc *memberEncoder) registryOwned() bool {
	return enc.member.Kind == KindEnum
}
