package binding

// Handle is an opaque reference to a binding-managed resource: a file, an
// object, a dataspace, a datatype or an attribute. Handles are only
// meaningful to the binding that issued them.
type Handle int64

// InvalidHandle is returned from failed acquisitions.
const InvalidHandle Handle = -1

// SpaceAll selects an entire dataspace. Passing it as a memory or file space
// to ReadData/WriteData means "the whole extent, no selection".
const SpaceAll Handle = 0

// Unlimited is the max-dimension sentinel for extendable axes.
const Unlimited = ^uint64(0)

// ObjectType tags what kind of object a path resolves to.
type ObjectType int

const (
	TypeGroup ObjectType = iota
	TypeDataset
	TypeNamedDatatype
	TypeSoftLink
	TypeExternalLink
	TypeOther
)

func (t ObjectType) String() string {
	switch t {
	case TypeGroup:
		return "group"
	case TypeDataset:
		return "dataset"
	case TypeNamedDatatype:
		return "datatype"
	case TypeSoftLink:
		return "soft link"
	case TypeExternalLink:
		return "external link"
	default:
		return "other"
	}
}

// TypeClass is the on-disk datatype class.
type TypeClass int

const (
	ClassInteger TypeClass = iota
	ClassFloat
	ClassString
	ClassBitField
	ClassOpaque
	ClassCompound
	ClassReference
	ClassEnum
	ClassVarLen
	ClassArray
)

func (c TypeClass) String() string {
	switch c {
	case ClassInteger:
		return "INTEGER"
	case ClassFloat:
		return "FLOAT"
	case ClassString:
		return "STRING"
	case ClassBitField:
		return "BITFIELD"
	case ClassOpaque:
		return "OPAQUE"
	case ClassCompound:
		return "COMPOUND"
	case ClassReference:
		return "REFERENCE"
	case ClassEnum:
		return "ENUM"
	case ClassVarLen:
		return "VARLEN"
	case ClassArray:
		return "ARRAY"
	default:
		return "UNKNOWN"
	}
}

// Layout is the raw-data storage layout of a dataset.
type Layout int

const (
	LayoutCompact Layout = iota
	LayoutContiguous
	LayoutChunked
)

func (l Layout) String() string {
	switch l {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	default:
		return "chunked"
	}
}

// ObjectInfo describes an object at a path.
type ObjectInfo struct {
	Type ObjectType
	// LinkTarget is the raw link value for soft and external links:
	// the target path, or "EXTERNAL::<file>::<path>".
	LinkTarget string
}

// CompoundMemberInfo describes one member of a compound datatype.
type CompoundMemberInfo struct {
	Name   string
	Offset int
	Type   Handle
}

// Capabilities reports behaviors of the underlying implementation that the
// typed layer conditions on.
type Capabilities struct {
	// ContiguousWriteNeedsFlush is set by bindings linked against HDF5
	// versions where overwriting a contiguous dataset without a prior file
	// flush corrupts the write (observed with 1.8.1).
	ContiguousWriteNeedsFlush bool
	// ShrinkInPlace reports whether SetExtent may reduce an axis below the
	// current size.
	ShrinkInPlace bool
	// ThreadSafeReads reports whether read-only handles tolerate concurrent
	// use.
	ThreadSafeReads bool
}

// Binding is the full set of primitive operations the typed layer needs.
// Implementations are not required to be safe for concurrent mutation of a
// single file handle; see the concurrency notes on package h5typed.
type Binding interface {
	// --- files ---

	// CreateFile creates (truncating) a file. latestFormat selects the
	// newest on-disk format the implementation supports; external links
	// require it.
	CreateFile(path string, latestFormat bool) (Handle, error)
	OpenFile(path string, readOnly bool) (Handle, error)
	FlushFile(file Handle) error
	CloseFile(file Handle) error
	Capabilities() Capabilities

	// --- objects and links ---

	Exists(file Handle, path string) bool
	ObjectInfo(file Handle, path string) (ObjectInfo, error)
	CreateGroup(file Handle, path string) error
	GroupMembers(file Handle, path string) ([]string, error)
	CreateHardLink(file Handle, targetPath, linkPath string) error
	CreateSoftLink(file Handle, targetPath, linkPath string) error
	CreateExternalLink(file Handle, linkPath, targetFile, targetPath string) error
	DeleteLink(file Handle, path string) error
	MoveLink(file Handle, oldPath, newPath string) error

	// ObjectAddress returns a stable in-file address for an existing
	// object, usable as an object reference value.
	ObjectAddress(file Handle, path string) (uint64, error)
	// PathByAddress resolves an address back to a canonical path.
	PathByAddress(file Handle, addr uint64) (string, error)

	// --- datasets ---

	// CreateDataset creates a dataset. chunk must be non-nil exactly when
	// layout is LayoutChunked; deflate is the gzip level, 0 for none.
	CreateDataset(file Handle, path string, typeID Handle, dims, maxDims []uint64,
		layout Layout, chunk []uint64, deflate int) (Handle, error)
	OpenDataset(file Handle, path string) (Handle, error)
	DatasetType(ds Handle) (Handle, error)
	DatasetSpace(ds Handle) (Handle, error)
	DatasetLayout(ds Handle) (Layout, []uint64, error)
	SetExtent(ds Handle, dims []uint64) error

	// ReadData/WriteData move raw element bytes between buf and the
	// dataset, converting between the dataset's stored type and memType.
	// memSpace and fileSpace may be SpaceAll.
	ReadData(ds Handle, memType, memSpace, fileSpace Handle, buf []byte) error
	WriteData(ds Handle, memType, memSpace, fileSpace Handle, buf []byte) error

	// Variable-length string payloads do not fit the flat-buffer model;
	// they move through dedicated calls.
	ReadVarStrings(ds Handle, fileSpace Handle) ([]string, error)
	WriteVarStrings(ds Handle, fileSpace Handle, vals []string) error

	// --- dataspaces ---

	CreateScalarSpace() (Handle, error)
	CreateSimpleSpace(dims, maxDims []uint64) (Handle, error)
	SpaceDims(space Handle) (dims, maxDims []uint64, err error)
	SelectHyperslab(space Handle, start, count []uint64) error

	// --- datatypes ---

	MakeIntType(size int, signed, bigEndian bool) (Handle, error)
	MakeFloatType(size int, bigEndian bool) (Handle, error)
	MakeStringType(length int) (Handle, error)
	MakeVarStringType() (Handle, error)
	MakeBitFieldType(size int) (Handle, error)
	MakeEnumType(base Handle) (Handle, error)
	EnumInsert(t Handle, name string, ordinal int64) error
	EnumMembers(t Handle) ([]string, error)
	MakeCompoundType(size int) (Handle, error)
	CompoundInsert(t Handle, name string, offset int, member Handle) error
	CompoundMembers(t Handle) ([]CompoundMemberInfo, error)
	MakeOpaqueType(size int, tag string) (Handle, error)
	OpaqueTag(t Handle) (string, error)
	MakeArrayType(base Handle, dims []uint64) (Handle, error)
	ArrayDims(t Handle) ([]uint64, error)
	ArrayBase(t Handle) (Handle, error)
	MakeReferenceType() (Handle, error)

	TypeClass(t Handle) (TypeClass, error)
	TypeSize(t Handle) (int, error)
	TypeSigned(t Handle) (bool, error)
	TypeBigEndian(t Handle) (bool, error)
	TypeIsVarString(t Handle) (bool, error)
	TypeEqual(a, b Handle) bool
	CopyType(t Handle) (Handle, error)

	CommitType(file Handle, path string, t Handle) error
	OpenCommittedType(file Handle, path string) (Handle, error)

	// --- attributes ---

	AttrExists(file Handle, objPath, name string) (bool, error)
	AttrNames(file Handle, objPath string) ([]string, error)
	CreateAttr(file Handle, objPath, name string, typeID Handle, dims []uint64) (Handle, error)
	OpenAttr(file Handle, objPath, name string) (Handle, error)
	DeleteAttr(file Handle, objPath, name string) error
	AttrType(attr Handle) (Handle, error)
	AttrDims(attr Handle) ([]uint64, error)
	ReadAttr(attr Handle, memType Handle, buf []byte) error
	WriteAttr(attr Handle, memType Handle, buf []byte) error
	ReadAttrVarStrings(attr Handle) ([]string, error)
	WriteAttrVarStrings(attr Handle, vals []string) error

	// Close releases any non-file handle. Closing an already-released
	// handle is an error.
	Close(h Handle) error
}
