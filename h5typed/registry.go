package h5typed

import (
	"fmt"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// dataTypeGroup is the reserved group holding committed datatypes.
const dataTypeGroup = "/__DATATYPES__"

// Committed-type name prefixes under dataTypeGroup.
const (
	enumTypePrefix     = "Enum_"
	compoundTypePrefix = "Compound_"
	opaqueTypePrefix   = "Opaque_"
	booleanTypeName    = "Boolean"
	varStringTypeName  = "String_VariableLength"
	typeVariantName    = "TypeVariant"
)

// typeVariantRenameCap bounds the search for an unused TypeVariant.<n>
// path when the committed enum's cardinality no longer matches.
const typeVariantRenameCap = 1024

// typeRegistry is the per-file committed datatype cache, keyed by
// canonical path. Handles held here live until file close; they are never
// registered with operation scopes.
type typeRegistry struct {
	f     *File
	cache map[string]binding.Handle
}

func newTypeRegistry(f *File) *typeRegistry {
	return &typeRegistry{f: f, cache: make(map[string]binding.Handle)}
}

// teardown closes every cached handle. Part of file close.
func (r *typeRegistry) teardown() {
	for path, h := range r.cache {
		if err := r.f.b.Close(h); err != nil {
			r.f.log().WithError(err).WithField("type", path).Warn("closing committed type")
		}
	}
	r.cache = make(map[string]binding.Handle)
}

// committed returns the committed type at path, opening it if present and
// otherwise creating it with create and committing it. Idempotent per
// file.
func (r *typeRegistry) committed(path string, create func() (binding.Handle, error)) (binding.Handle, error) {
	if h, ok := r.cache[path]; ok {
		return h, nil
	}
	b := r.f.b
	if b.Exists(r.f.h, path) {
		h, err := b.OpenCommittedType(r.f.h, path)
		if err != nil {
			return binding.InvalidHandle, wrapBinding(err, path)
		}
		r.cache[path] = h
		return h, nil
	}
	h, err := create()
	if err != nil {
		return binding.InvalidHandle, err
	}
	if err := r.commitAt(path, h); err != nil {
		_ = b.Close(h)
		return binding.InvalidHandle, err
	}
	r.cache[path] = h
	return h, nil
}

func (r *typeRegistry) commitAt(path string, h binding.Handle) error {
	b := r.f.b
	if !b.Exists(r.f.h, dataTypeGroup) {
		if err := b.CreateGroup(r.f.h, dataTypeGroup); err != nil {
			return wrapBinding(err, dataTypeGroup)
		}
	}
	if err := b.CommitType(r.f.h, path, h); err != nil {
		return wrapBinding(err, path)
	}
	r.f.log().WithField("type", path).Debug("committed datatype")
	return nil
}

// enumStorageWidth returns the signed integer byte width for an enum of
// the given cardinality: strict `<` at both boundaries, applied uniformly
// to storage selection and validation.
func enumStorageWidth(cardinality int) int {
	switch {
	case cardinality < 127:
		return 1
	case cardinality < 32767:
		return 2
	default:
		return 4
	}
}

// buildEnum creates an (uncommitted) enum type over the narrowest signed
// base that fits the value count.
func (r *typeRegistry) buildEnum(values []string) (binding.Handle, error) {
	b := r.f.b
	base, err := b.MakeIntType(enumStorageWidth(len(values)), true, false)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, "enum base")
	}
	defer b.Close(base)
	et, err := b.MakeEnumType(base)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, "enum type")
	}
	for i, name := range values {
		if err := b.EnumInsert(et, name, int64(i)); err != nil {
			_ = b.Close(et)
			return binding.InvalidHandle, wrapBinding(err, name)
		}
	}
	return et, nil
}

// enumType returns the committed enum named name with the given values.
// With check set, an existing committed enum must list the same values in
// the same order; a mismatch fails with ErrEnumIncompatible before any
// commit.
func (r *typeRegistry) enumType(name string, values []string, check bool) (binding.Handle, error) {
	path := dataTypeGroup + "/" + enumTypePrefix + name
	h, err := r.committed(path, func() (binding.Handle, error) {
		return r.buildEnum(values)
	})
	if err != nil {
		return binding.InvalidHandle, err
	}
	if check {
		stored, err := r.f.b.EnumMembers(h)
		if err != nil {
			return binding.InvalidHandle, wrapBinding(err, path)
		}
		if err := compareEnumValues(name, stored, values); err != nil {
			return binding.InvalidHandle, err
		}
	}
	return h, nil
}

func compareEnumValues(name string, stored, requested []string) error {
	if len(stored) != len(requested) {
		return merry.Appendf(ErrEnumIncompatible,
			"enum %q has %d committed values, %d requested", name, len(stored), len(requested))
	}
	for i := range stored {
		if stored[i] != requested[i] {
			return merry.Appendf(ErrEnumIncompatible,
				"enum %q value %d is %q, requested %q", name, i, stored[i], requested[i])
		}
	}
	return nil
}

// booleanType returns the committed boolean type: an enum {FALSE, TRUE}
// over i8.
func (r *typeRegistry) booleanType() (binding.Handle, error) {
	return r.committed(dataTypeGroup+"/"+booleanTypeName, func() (binding.Handle, error) {
		return r.buildEnum([]string{"FALSE", "TRUE"})
	})
}

// varStringType returns the committed variable-length string type.
func (r *typeRegistry) varStringType() (binding.Handle, error) {
	return r.committed(dataTypeGroup+"/"+varStringTypeName, func() (binding.Handle, error) {
		h, err := r.f.b.MakeVarStringType()
		return h, wrapBinding(err, varStringTypeName)
	})
}

// opaqueType returns the committed opaque type for tag with the given
// size.
func (r *typeRegistry) opaqueType(tag string, size int) (binding.Handle, error) {
	path := dataTypeGroup + "/" + opaqueTypePrefix + tag
	h, err := r.committed(path, func() (binding.Handle, error) {
		th, err := r.f.b.MakeOpaqueType(size, tag)
		return th, wrapBinding(err, path)
	})
	if err != nil {
		return binding.InvalidHandle, err
	}
	stored, err := r.f.b.TypeSize(h)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, path)
	}
	if stored != size {
		return binding.InvalidHandle, merry.Appendf(ErrTypeMismatch,
			"opaque type %q has size %d, requested %d", tag, stored, size)
	}
	return h, nil
}

// compoundType commits a compound type under its name. The caller builds
// the transient type; the registry only deduplicates the committed copy.
func (r *typeRegistry) compoundType(name string, build func() (binding.Handle, error)) (binding.Handle, error) {
	return r.committed(dataTypeGroup+"/"+compoundTypePrefix+name, build)
}

// typeVariantType returns the committed TypeVariant enum matching this
// library's variant list. When a committed enum exists with a different
// cardinality (written by another library generation), a fresh type is
// committed at TypeVariant.<n> for the smallest unused n and the reserved
// soft link TypeVariant is repointed at it. The search is capped;
// exhaustion fails with ErrLayoutUnsupported.
func (r *typeRegistry) typeVariantType() (binding.Handle, error) {
	b := r.f.b
	linkPath := dataTypeGroup + "/" + typeVariantName
	if h, ok := r.cache[linkPath]; ok {
		return h, nil
	}

	if b.Exists(r.f.h, linkPath) {
		h, err := b.OpenCommittedType(r.f.h, linkPath)
		if err != nil {
			return binding.InvalidHandle, wrapBinding(err, linkPath)
		}
		names, err := b.EnumMembers(h)
		if err != nil {
			_ = b.Close(h)
			return binding.InvalidHandle, wrapBinding(err, linkPath)
		}
		if len(names) == typeVariantCount() {
			r.cache[linkPath] = h
			return h, nil
		}
		// Cardinality drifted: commit a fresh generation below.
		_ = b.Close(h)
	}

	h, err := r.buildEnum(typeVariantNames)
	if err != nil {
		return binding.InvalidHandle, err
	}
	committed := false
	for n := 0; n < typeVariantRenameCap; n++ {
		candidate := fmt.Sprintf("%s.%d", linkPath, n)
		if b.Exists(r.f.h, candidate) {
			continue
		}
		if err := r.commitAt(candidate, h); err != nil {
			_ = b.Close(h)
			return binding.InvalidHandle, err
		}
		if b.Exists(r.f.h, linkPath) {
			info, err := b.ObjectInfo(r.f.h, linkPath)
			if err == nil && info.Type == binding.TypeSoftLink {
				if err := b.DeleteLink(r.f.h, linkPath); err != nil {
					_ = b.Close(h)
					return binding.InvalidHandle, wrapBinding(err, linkPath)
				}
			} else if err == nil {
				// The base name holds an old committed type; move it
				// aside is not possible without renumbering, so leave it
				// and fail loudly rather than shadow it.
				_ = b.Close(h)
				return binding.InvalidHandle, merry.Appendf(ErrLayoutUnsupported,
					"%q exists and is not a soft link", linkPath)
			}
		}
		if err := b.CreateSoftLink(r.f.h, candidate, linkPath); err != nil {
			_ = b.Close(h)
			return binding.InvalidHandle, wrapBinding(err, linkPath)
		}
		committed = true
		break
	}
	if !committed {
		_ = b.Close(h)
		return binding.InvalidHandle, merry.Appendf(ErrLayoutUnsupported,
			"no free name for %q after %d attempts", linkPath, typeVariantRenameCap)
	}
	r.cache[linkPath] = h
	return h, nil
}
