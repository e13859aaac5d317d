package h5typed

import (
	"fmt"
	"strings"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// ObjectType tags what a path resolves to.
type ObjectType = binding.ObjectType

// Re-exported object type tags.
const (
	TypeGroup         = binding.TypeGroup
	TypeDataset       = binding.TypeDataset
	TypeNamedDatatype = binding.TypeNamedDatatype
	TypeSoftLink      = binding.TypeSoftLink
	TypeExternalLink  = binding.TypeExternalLink
)

// ObjectInfo describes an object.
type ObjectInfo struct {
	Path string
	Type ObjectType
	// LinkTarget is set for soft and external links: the raw target path,
	// or "EXTERNAL::<file>::<path>".
	LinkTarget string
}

// Exists reports whether a path resolves to any object.
func (f *File) Exists(path string) bool {
	if f.closed {
		return false
	}
	return f.b.Exists(f.h, CleanPath(path))
}

// Info returns the object's type and, for links, the raw target.
func (f *File) Info(path string) (ObjectInfo, error) {
	if f.closed {
		return ObjectInfo{}, merry.Here(ErrClosed)
	}
	path = CleanPath(path)
	info, err := f.b.ObjectInfo(f.h, path)
	if err != nil {
		return ObjectInfo{}, wrapBinding(err, path)
	}
	return ObjectInfo{Path: path, Type: info.Type, LinkTarget: info.LinkTarget}, nil
}

// CreateGroup creates a group, with intermediate groups as needed.
func (f *File) CreateGroup(path string) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	path = CleanPath(path)
	return wrapBinding(f.b.CreateGroup(f.h, path), path)
}

// Members lists a group's children. Names under the reserved "/__"
// namespace are filtered out unless includeInternal is requested via
// MembersAll.
func (f *File) Members(path string) ([]string, error) {
	return f.members(path, false)
}

// MembersAll lists a group's children including reserved internal names.
func (f *File) MembersAll(path string) ([]string, error) {
	return f.members(path, true)
}

func (f *File) members(path string, includeInternal bool) ([]string, error) {
	if f.closed {
		return nil, merry.Here(ErrClosed)
	}
	path = CleanPath(path)
	names, err := f.b.GroupMembers(f.h, path)
	if err != nil {
		return nil, wrapBinding(err, path)
	}
	if includeInternal {
		return names, nil
	}
	out := names[:0]
	for _, n := range names {
		if !strings.HasPrefix(n, "__") {
			out = append(out, n)
		}
	}
	return out, nil
}

// Delete unlinks the object at path.
func (f *File) Delete(path string) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	path = CleanPath(path)
	return wrapBinding(f.b.DeleteLink(f.h, path), path)
}

// Move renames the link at oldPath to newPath.
func (f *File) Move(oldPath, newPath string) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	return wrapBinding(f.b.MoveLink(f.h, CleanPath(oldPath), CleanPath(newPath)), oldPath)
}

// CreateHardLink links linkPath to the object at targetPath.
func (f *File) CreateHardLink(targetPath, linkPath string) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	return wrapBinding(f.b.CreateHardLink(f.h, CleanPath(targetPath), CleanPath(linkPath)), linkPath)
}

// CreateSoftLink creates a soft link at linkPath pointing to targetPath.
// The target need not exist yet.
func (f *File) CreateSoftLink(targetPath, linkPath string) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	return wrapBinding(f.b.CreateSoftLink(f.h, CleanPath(targetPath), CleanPath(linkPath)), linkPath)
}

// CreateExternalLink creates a link into another file, encoded as
// "EXTERNAL::<native-path>::<hdf5-path>". The containing file must have
// been created with WithLatestFormat.
func (f *File) CreateExternalLink(linkPath, targetFile, targetPath string) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	if !f.latestFormat {
		return merry.Appendf(ErrLayoutUnsupported,
			"external link %q requires the latest file format", linkPath)
	}
	return wrapBinding(f.b.CreateExternalLink(f.h, CleanPath(linkPath), targetFile, CleanPath(targetPath)), linkPath)
}

// ExternalLinkTarget splits an external link's raw value into its file and
// object paths.
func ExternalLinkTarget(raw string) (file, path string, err error) {
	parts := strings.SplitN(raw, "::", 3)
	if len(parts) != 3 || parts[0] != "EXTERNAL" {
		return "", "", merry.Appendf(ErrNotAReference, "malformed external link %q", raw)
	}
	return parts[1], parts[2], nil
}

// WalkFunc visits one object during a Walk. Returning an error stops the
// walk and surfaces that error.
type WalkFunc func(info ObjectInfo) error

// Walk visits every object under root depth-first in member order. The
// reserved internal namespace is skipped unless the walk starts inside
// it.
func (f *File) Walk(root string, fn WalkFunc) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	root = CleanPath(root)
	info, err := f.Info(root)
	if err != nil {
		return err
	}
	if err := fn(info); err != nil {
		return err
	}
	return f.walkChildren(root, info, fn)
}

func (f *File) walkChildren(path string, info ObjectInfo, fn WalkFunc) error {
	if info.Type != TypeGroup {
		return nil
	}
	members, err := f.Members(path)
	if err != nil {
		return err
	}
	for _, name := range members {
		childPath := path + "/" + name
		if path == "/" {
			childPath = "/" + name
		}
		child, err := f.Info(childPath)
		if err != nil {
			return err
		}
		if err := fn(child); err != nil {
			return err
		}
		// Links are reported but not traversed; following them here
		// could loop.
		if child.Type == TypeSoftLink || child.Type == TypeExternalLink {
			continue
		}
		if err := f.walkChildren(childPath, child, fn); err != nil {
			return err
		}
	}
	return nil
}

// DatasetInfo describes a dataset's stored shape and layout.
type DatasetInfo struct {
	Path      string
	Dims      []uint64
	MaxDims   []uint64
	Layout    binding.Layout
	ChunkDims []uint64
	TypeClass binding.TypeClass
	ElemSize  int
	Variant   TypeVariant
}

// Dataset returns shape, layout and datatype information for the dataset
// at path.
func (f *File) Dataset(path string) (DatasetInfo, error) {
	var out DatasetInfo
	err := f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := f.openDataset(s, path)
		if err != nil {
			return err
		}
		dims, maxDims, err := f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		layout, chunk, err := f.b.DatasetLayout(ds)
		if err != nil {
			return wrapBinding(err, path)
		}
		ty, err := f.datasetType(s, ds, path)
		if err != nil {
			return err
		}
		cls, err := f.b.TypeClass(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		size, err := f.b.TypeSize(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		variant, err := f.readTypeVariant(path)
		if err != nil {
			return err
		}
		out = DatasetInfo{
			Path: path, Dims: dims, MaxDims: maxDims,
			Layout: layout, ChunkDims: chunk,
			TypeClass: cls, ElemSize: size, Variant: variant,
		}
		return nil
	})
	return out, err
}

// openDataset opens a dataset under the scope, classifying failures.
func (f *File) openDataset(s *scopeT, path string) (binding.Handle, error) {
	info, err := f.b.ObjectInfo(f.h, path)
	if err != nil {
		return binding.InvalidHandle, merry.Appendf(ErrNoSuchObject, "%q", path)
	}
	switch info.Type {
	case TypeDataset, TypeSoftLink, TypeExternalLink:
	default:
		return binding.InvalidHandle, merry.Appendf(ErrNotADataset, "%q is a %s", path, info.Type)
	}
	ds, err := f.b.OpenDataset(f.h, path)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, path)
	}
	s.Handle(f.b, ds)
	return ds, nil
}

func (f *File) String() string {
	return fmt.Sprintf("h5typed.File(%s)", f.path)
}
