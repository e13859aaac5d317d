package membind

import (
	"fmt"

	"github.com/robert-malhotra/go-h5typed/binding"
)

type memType struct {
	class     binding.TypeClass
	size      int
	signed    bool
	bigEndian bool
	varString bool
	tag       string
	enumBase  *memType
	enumNames []string
	enumOrds  []int64
	members   []memMember
	arrayBase *memType
	arrayDims []uint64
}

type memMember struct {
	name   string
	offset int
	typ    *memType
}

func (t *memType) clone() *memType {
	c := *t
	if t.enumBase != nil {
		c.enumBase = t.enumBase.clone()
	}
	c.enumNames = append([]string(nil), t.enumNames...)
	c.enumOrds = append([]int64(nil), t.enumOrds...)
	c.members = make([]memMember, len(t.members))
	for i, mb := range t.members {
		c.members[i] = memMember{name: mb.name, offset: mb.offset, typ: mb.typ.clone()}
	}
	if t.arrayBase != nil {
		c.arrayBase = t.arrayBase.clone()
	}
	c.arrayDims = append([]uint64(nil), t.arrayDims...)
	return &c
}

func typesEqual(a, b *memType) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.class != b.class || a.size != b.size || a.signed != b.signed ||
		a.bigEndian != b.bigEndian || a.varString != b.varString || a.tag != b.tag {
		return false
	}
	if !typesEqual(a.enumBase, b.enumBase) || !typesEqual(a.arrayBase, b.arrayBase) {
		return false
	}
	if len(a.enumNames) != len(b.enumNames) || len(a.members) != len(b.members) ||
		len(a.arrayDims) != len(b.arrayDims) {
		return false
	}
	for i := range a.enumNames {
		if a.enumNames[i] != b.enumNames[i] || a.enumOrds[i] != b.enumOrds[i] {
			return false
		}
	}
	for i := range a.members {
		if a.members[i].name != b.members[i].name || a.members[i].offset != b.members[i].offset ||
			!typesEqual(a.members[i].typ, b.members[i].typ) {
			return false
		}
	}
	for i := range a.arrayDims {
		if a.arrayDims[i] != b.arrayDims[i] {
			return false
		}
	}
	return true
}

// MakeIntType creates a fixed-point type of 1, 2, 4 or 8 bytes.
func (m *Membind) MakeIntType(size int, signed, bigEndian bool) (binding.Handle, error) {
	switch size {
	case 1, 2, 4, 8:
	default:
		return binding.InvalidHandle, fmt.Errorf("%w: integer size %d", binding.ErrUnsupported, size)
	}
	return m.alloc(&memType{class: binding.ClassInteger, size: size, signed: signed, bigEndian: bigEndian}), nil
}

// MakeFloatType creates a floating-point type of 4 or 8 bytes.
func (m *Membind) MakeFloatType(size int, bigEndian bool) (binding.Handle, error) {
	if size != 4 && size != 8 {
		return binding.InvalidHandle, fmt.Errorf("%w: float size %d", binding.ErrUnsupported, size)
	}
	return m.alloc(&memType{class: binding.ClassFloat, size: size, signed: true, bigEndian: bigEndian}), nil
}

// MakeStringType creates a fixed-length string type of the given byte
// length (terminator included).
func (m *Membind) MakeStringType(length int) (binding.Handle, error) {
	if length <= 0 {
		return binding.InvalidHandle, fmt.Errorf("%w: string length %d", binding.ErrUnsupported, length)
	}
	return m.alloc(&memType{class: binding.ClassString, size: length}), nil
}

// MakeVarStringType creates the variable-length string type.
func (m *Membind) MakeVarStringType() (binding.Handle, error) {
	return m.alloc(&memType{class: binding.ClassVarLen, size: 16, varString: true}), nil
}

// MakeBitFieldType creates a bitfield type of the given byte size.
func (m *Membind) MakeBitFieldType(size int) (binding.Handle, error) {
	if size <= 0 {
		return binding.InvalidHandle, fmt.Errorf("%w: bitfield size %d", binding.ErrUnsupported, size)
	}
	return m.alloc(&memType{class: binding.ClassBitField, size: size}), nil
}

// MakeEnumType creates an empty enumeration over the given base integer
// type.
func (m *Membind) MakeEnumType(base binding.Handle) (binding.Handle, error) {
	bt, err := m.typeOf(base)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if bt.class != binding.ClassInteger {
		return binding.InvalidHandle, fmt.Errorf("%w: enum base must be an integer type", binding.ErrWrongType)
	}
	return m.alloc(&memType{
		class:     binding.ClassEnum,
		size:      bt.size,
		signed:    bt.signed,
		bigEndian: bt.bigEndian,
		enumBase:  bt.clone(),
	}), nil
}

// EnumInsert adds a named value to an enumeration type.
func (m *Membind) EnumInsert(t binding.Handle, name string, ordinal int64) error {
	et, err := m.typeOf(t)
	if err != nil {
		return err
	}
	if et.class != binding.ClassEnum {
		return fmt.Errorf("%w: not an enum type", binding.ErrWrongType)
	}
	for _, n := range et.enumNames {
		if n == name {
			return fmt.Errorf("%w: enum value %q", binding.ErrExists, name)
		}
	}
	et.enumNames = append(et.enumNames, name)
	et.enumOrds = append(et.enumOrds, ordinal)
	return nil
}

// EnumMembers returns the enumeration's value names in insertion order.
func (m *Membind) EnumMembers(t binding.Handle) ([]string, error) {
	et, err := m.typeOf(t)
	if err != nil {
		return nil, err
	}
	if et.class != binding.ClassEnum {
		return nil, fmt.Errorf("%w: not an enum type", binding.ErrWrongType)
	}
	return append([]string(nil), et.enumNames...), nil
}

// MakeCompoundType creates an empty compound type of the given total size.
func (m *Membind) MakeCompoundType(size int) (binding.Handle, error) {
	if size <= 0 {
		return binding.InvalidHandle, fmt.Errorf("%w: compound size %d", binding.ErrUnsupported, size)
	}
	return m.alloc(&memType{class: binding.ClassCompound, size: size}), nil
}

// CompoundInsert adds a member at the given offset.
func (m *Membind) CompoundInsert(t binding.Handle, name string, offset int, member binding.Handle) error {
	ct, err := m.typeOf(t)
	if err != nil {
		return err
	}
	if ct.class != binding.ClassCompound {
		return fmt.Errorf("%w: not a compound type", binding.ErrWrongType)
	}
	mt, err := m.typeOf(member)
	if err != nil {
		return err
	}
	if offset+mt.size > ct.size {
		return fmt.Errorf("%w: member %q at offset %d overflows compound size %d",
			binding.ErrSelection, name, offset, ct.size)
	}
	ct.members = append(ct.members, memMember{name: name, offset: offset, typ: mt.clone()})
	return nil
}

// CompoundMembers lists the compound's members in insertion order.
func (m *Membind) CompoundMembers(t binding.Handle) ([]binding.CompoundMemberInfo, error) {
	ct, err := m.typeOf(t)
	if err != nil {
		return nil, err
	}
	if ct.class != binding.ClassCompound {
		return nil, fmt.Errorf("%w: not a compound type", binding.ErrWrongType)
	}
	out := make([]binding.CompoundMemberInfo, len(ct.members))
	for i, mb := range ct.members {
		out[i] = binding.CompoundMemberInfo{
			Name:   mb.name,
			Offset: mb.offset,
			Type:   m.alloc(mb.typ.clone()),
		}
	}
	return out, nil
}

// MakeOpaqueType creates an opaque type of the given size with a tag.
func (m *Membind) MakeOpaqueType(size int, tag string) (binding.Handle, error) {
	if size <= 0 {
		return binding.InvalidHandle, fmt.Errorf("%w: opaque size %d", binding.ErrUnsupported, size)
	}
	return m.alloc(&memType{class: binding.ClassOpaque, size: size, tag: tag}), nil
}

// OpaqueTag returns the tag of an opaque type.
func (m *Membind) OpaqueTag(t binding.Handle) (string, error) {
	ot, err := m.typeOf(t)
	if err != nil {
		return "", err
	}
	if ot.class != binding.ClassOpaque {
		return "", fmt.Errorf("%w: not an opaque type", binding.ErrWrongType)
	}
	return ot.tag, nil
}

// MakeArrayType creates an array type over a scalar base.
func (m *Membind) MakeArrayType(base binding.Handle, dims []uint64) (binding.Handle, error) {
	bt, err := m.typeOf(base)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if bt.class == binding.ClassArray {
		return binding.InvalidHandle, fmt.Errorf("%w: array of array", binding.ErrWrongType)
	}
	if len(dims) == 0 {
		return binding.InvalidHandle, fmt.Errorf("%w: array type needs dimensions", binding.ErrUnsupported)
	}
	n := 1
	for _, d := range dims {
		n *= int(d)
	}
	return m.alloc(&memType{
		class:     binding.ClassArray,
		size:      bt.size * n,
		arrayBase: bt.clone(),
		arrayDims: append([]uint64(nil), dims...),
	}), nil
}

// ArrayDims returns the per-axis lengths of an array type.
func (m *Membind) ArrayDims(t binding.Handle) ([]uint64, error) {
	at, err := m.typeOf(t)
	if err != nil {
		return nil, err
	}
	if at.class != binding.ClassArray {
		return nil, fmt.Errorf("%w: not an array type", binding.ErrWrongType)
	}
	return append([]uint64(nil), at.arrayDims...), nil
}

// ArrayBase returns the element type of an array type.
func (m *Membind) ArrayBase(t binding.Handle) (binding.Handle, error) {
	at, err := m.typeOf(t)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if at.class != binding.ClassArray {
		return binding.InvalidHandle, fmt.Errorf("%w: not an array type", binding.ErrWrongType)
	}
	return m.alloc(at.arrayBase.clone()), nil
}

// MakeReferenceType creates the object-reference type.
func (m *Membind) MakeReferenceType() (binding.Handle, error) {
	return m.alloc(&memType{class: binding.ClassReference, size: 8}), nil
}

// TypeClass returns the datatype class.
func (m *Membind) TypeClass(t binding.Handle) (binding.TypeClass, error) {
	mt, err := m.typeOf(t)
	if err != nil {
		return 0, err
	}
	return mt.class, nil
}

// TypeSize returns the element size in bytes.
func (m *Membind) TypeSize(t binding.Handle) (int, error) {
	mt, err := m.typeOf(t)
	if err != nil {
		return 0, err
	}
	return mt.size, nil
}

// TypeSigned reports whether an integer type is signed.
func (m *Membind) TypeSigned(t binding.Handle) (bool, error) {
	mt, err := m.typeOf(t)
	if err != nil {
		return false, err
	}
	return mt.signed, nil
}

// TypeBigEndian reports the byte order.
func (m *Membind) TypeBigEndian(t binding.Handle) (bool, error) {
	mt, err := m.typeOf(t)
	if err != nil {
		return false, err
	}
	return mt.bigEndian, nil
}

// TypeIsVarString reports whether the type is the variable-length string
// type.
func (m *Membind) TypeIsVarString(t binding.Handle) (bool, error) {
	mt, err := m.typeOf(t)
	if err != nil {
		return false, err
	}
	return mt.varString, nil
}

// TypeEqual structurally compares two types.
func (m *Membind) TypeEqual(a, b binding.Handle) bool {
	at, err := m.typeOf(a)
	if err != nil {
		return false
	}
	bt, err := m.typeOf(b)
	if err != nil {
		return false
	}
	return typesEqual(at, bt)
}

// CopyType returns an independent copy of the type.
func (m *Membind) CopyType(t binding.Handle) (binding.Handle, error) {
	mt, err := m.typeOf(t)
	if err != nil {
		return binding.InvalidHandle, err
	}
	return m.alloc(mt.clone()), nil
}

// CommitType persists the type as a named datatype at path.
func (m *Membind) CommitType(file binding.Handle, path string, t binding.Handle) error {
	f, err := m.file(file)
	if err != nil {
		return err
	}
	if f.readOnly {
		return binding.ErrReadOnly
	}
	mt, err := m.typeOf(t)
	if err != nil {
		return err
	}
	parent, name, err := m.resolveParent(f, path, true)
	if err != nil {
		return err
	}
	if _, exists := parent.children[name]; exists {
		return fmt.Errorf("%w: %q", binding.ErrExists, path)
	}
	node := f.newObject(binding.TypeNamedDatatype)
	node.dtype = mt.clone()
	parent.insertChild(name, node)
	return nil
}

// OpenCommittedType opens the named datatype at path.
func (m *Membind) OpenCommittedType(file binding.Handle, path string) (binding.Handle, error) {
	f, err := m.file(file)
	if err != nil {
		return binding.InvalidHandle, err
	}
	obj, err := m.resolve(f, path, true)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if obj.typ != binding.TypeNamedDatatype {
		return binding.InvalidHandle, fmt.Errorf("%w: %q is not a datatype", binding.ErrWrongType, path)
	}
	return m.alloc(obj.dtype.clone()), nil
}
