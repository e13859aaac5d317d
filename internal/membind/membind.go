// Package membind is an in-memory implementation of binding.Binding.
//
// It models an HDF5 file as an object tree: groups hold named children in
// insertion order, datasets hold raw element bytes (flat for compact and
// contiguous layouts, a btree-indexed chunk map with per-chunk deflate for
// the chunked layout), and committed datatypes and links are first-class
// nodes. The test suite runs the whole typed layer against it, and
// cmd/h5inspect can build demonstration trees with it.
//
// Like the native library, a membind file handle is not safe for
// concurrent mutation. Reads are not safe for concurrent use either:
// opening and closing handles updates a shared handle table without
// locking, so Capabilities reports ThreadSafeReads as false.
package membind

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// Membind implements binding.Binding over in-memory files.
type Membind struct {
	handles map[binding.Handle]interface{}
	next    binding.Handle
	files   map[string]*memFile
}

// New returns an empty binding with no open files.
func New() *Membind {
	return &Membind{
		handles: make(map[binding.Handle]interface{}),
		next:    1,
		files:   make(map[string]*memFile),
	}
}

type memFile struct {
	path         string
	latestFormat bool
	readOnly     bool
	root         *memObject
	nextAddr     uint64
	closed       bool
}

type memObject struct {
	typ        binding.ObjectType
	addr       uint64
	children   map[string]*memObject
	order      []string
	attrs      map[string]*memAttr
	attrOrder  []string
	dset       *memDataset
	dtype      *memType
	linkTarget string
}

type memAttr struct {
	typ     *memType
	dims    []uint64 // nil means scalar
	data    []byte
	varData []string
}

type dsHandle struct {
	file *memFile
	obj  *memObject
}

type attrHandle struct {
	file *memFile
	obj  *memObject
	attr *memAttr
}

func (m *Membind) alloc(v interface{}) binding.Handle {
	h := m.next
	m.next++
	m.handles[h] = v
	return h
}

func (m *Membind) lookup(h binding.Handle) (interface{}, error) {
	v, ok := m.handles[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", binding.ErrBadHandle, h)
	}
	return v, nil
}

func (m *Membind) file(h binding.Handle) (*memFile, error) {
	v, err := m.lookup(h)
	if err != nil {
		return nil, err
	}
	f, ok := v.(*memFile)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not a file", binding.ErrBadHandle, h)
	}
	if f.closed {
		return nil, fmt.Errorf("%w: file %q is closed", binding.ErrBadHandle, f.path)
	}
	return f, nil
}

func (m *Membind) dataset(h binding.Handle) (*dsHandle, error) {
	v, err := m.lookup(h)
	if err != nil {
		return nil, err
	}
	d, ok := v.(*dsHandle)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not a dataset", binding.ErrBadHandle, h)
	}
	return d, nil
}

func (m *Membind) space(h binding.Handle) (*memSpace, error) {
	v, err := m.lookup(h)
	if err != nil {
		return nil, err
	}
	s, ok := v.(*memSpace)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not a dataspace", binding.ErrBadHandle, h)
	}
	return s, nil
}

func (m *Membind) typeOf(h binding.Handle) (*memType, error) {
	v, err := m.lookup(h)
	if err != nil {
		return nil, err
	}
	t, ok := v.(*memType)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not a datatype", binding.ErrBadHandle, h)
	}
	return t, nil
}

func (m *Membind) attribute(h binding.Handle) (*attrHandle, error) {
	v, err := m.lookup(h)
	if err != nil {
		return nil, err
	}
	a, ok := v.(*attrHandle)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not an attribute", binding.ErrBadHandle, h)
	}
	return a, nil
}

// --- files ---

func newGroup(addr uint64) *memObject {
	return &memObject{
		typ:      binding.TypeGroup,
		addr:     addr,
		children: make(map[string]*memObject),
		attrs:    make(map[string]*memAttr),
	}
}

func (f *memFile) newObject(typ binding.ObjectType) *memObject {
	f.nextAddr++
	o := &memObject{
		typ:      typ,
		addr:     f.nextAddr,
		children: make(map[string]*memObject),
		attrs:    make(map[string]*memAttr),
	}
	return o
}

// CreateFile creates (or truncates) an in-memory file.
func (m *Membind) CreateFile(path string, latestFormat bool) (binding.Handle, error) {
	f := &memFile{
		path:         path,
		latestFormat: latestFormat,
		nextAddr:     1,
	}
	f.root = newGroup(1)
	m.files[path] = f
	return m.alloc(f), nil
}

// OpenFile opens a previously created in-memory file.
func (m *Membind) OpenFile(path string, readOnly bool) (binding.Handle, error) {
	f, ok := m.files[path]
	if !ok {
		return binding.InvalidHandle, fmt.Errorf("%w: file %q", binding.ErrNotFound, path)
	}
	f.closed = false
	f.readOnly = readOnly
	return m.alloc(f), nil
}

// FlushFile is a no-op for the in-memory tree.
func (m *Membind) FlushFile(file binding.Handle) error {
	_, err := m.file(file)
	return err
}

// CloseFile closes the handle; the tree stays resident for reopening.
func (m *Membind) CloseFile(file binding.Handle) error {
	f, err := m.file(file)
	if err != nil {
		return err
	}
	f.closed = true
	delete(m.handles, file)
	return nil
}

// Capabilities reports the in-memory implementation's behaviors.
func (m *Membind) Capabilities() binding.Capabilities {
	return binding.Capabilities{
		ContiguousWriteNeedsFlush: false,
		ShrinkInPlace:             false,
		ThreadSafeReads:           false,
	}
}

// --- path resolution ---

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

const maxLinkDepth = 64

// resolve walks path from the root, following soft and external links in
// intermediate components and, when followLinks is set, in the final one.
func (m *Membind) resolve(f *memFile, path string, followLinks bool) (*memObject, error) {
	return m.resolveDepth(f, path, followLinks, 0)
}

func (m *Membind) resolveDepth(f *memFile, path string, followLinks bool, depth int) (*memObject, error) {
	if depth > maxLinkDepth {
		return nil, fmt.Errorf("%w: link depth exceeded at %q", binding.ErrNotFound, path)
	}
	parts := splitPath(path)
	cur := f.root
	for i, name := range parts {
		child, ok := cur.children[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", binding.ErrNotFound, path)
		}
		last := i == len(parts)-1
		if (child.typ == binding.TypeSoftLink || child.typ == binding.TypeExternalLink) && (!last || followLinks) {
			target, err := m.followLink(f, child, depth+1)
			if err != nil {
				return nil, err
			}
			child = target
		}
		if last {
			return child, nil
		}
		if child.typ != binding.TypeGroup {
			return nil, fmt.Errorf("%w: %q is not a group", binding.ErrWrongType, name)
		}
		cur = child
	}
	return cur, nil
}

func (m *Membind) followLink(f *memFile, link *memObject, depth int) (*memObject, error) {
	if link.typ == binding.TypeSoftLink {
		return m.resolveDepth(f, link.linkTarget, true, depth)
	}
	// EXTERNAL::<file>::<path>
	parts := strings.SplitN(link.linkTarget, "::", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed external link %q", binding.ErrWrongType, link.linkTarget)
	}
	ext, ok := m.files[parts[1]]
	if !ok {
		return nil, fmt.Errorf("%w: external file %q", binding.ErrNotFound, parts[1])
	}
	return m.resolveDepth(ext, parts[2], true, depth)
}

// resolveParent returns the parent group (creating intermediates when
// create is set) and the leaf name.
func (m *Membind) resolveParent(f *memFile, path string, create bool) (*memObject, string, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("%w: root has no parent", binding.ErrWrongType)
	}
	cur := f.root
	for _, name := range parts[:len(parts)-1] {
		child, ok := cur.children[name]
		if !ok {
			if !create {
				return nil, "", fmt.Errorf("%w: %q", binding.ErrNotFound, path)
			}
			child = f.newObject(binding.TypeGroup)
			cur.children[name] = child
			cur.order = append(cur.order, name)
		}
		if child.typ == binding.TypeSoftLink || child.typ == binding.TypeExternalLink {
			target, err := m.followLink(f, child, 0)
			if err != nil {
				return nil, "", err
			}
			child = target
		}
		if child.typ != binding.TypeGroup {
			return nil, "", fmt.Errorf("%w: %q is not a group", binding.ErrWrongType, name)
		}
		cur = child
	}
	return cur, parts[len(parts)-1], nil
}

func (o *memObject) insertChild(name string, child *memObject) {
	if _, exists := o.children[name]; !exists {
		o.order = append(o.order, name)
	}
	o.children[name] = child
}

func (o *memObject) removeChild(name string) bool {
	if _, ok := o.children[name]; !ok {
		return false
	}
	delete(o.children, name)
	for i, n := range o.order {
		if n == name {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// --- objects and links ---

// Exists reports whether path resolves to any object, without following a
// final soft link.
func (m *Membind) Exists(file binding.Handle, path string) bool {
	f, err := m.file(file)
	if err != nil {
		return false
	}
	if splitPath(path) == nil {
		return true
	}
	_, err = m.resolve(f, path, false)
	return err == nil
}

// ObjectInfo describes the object at path without following a final link.
func (m *Membind) ObjectInfo(file binding.Handle, path string) (binding.ObjectInfo, error) {
	f, err := m.file(file)
	if err != nil {
		return binding.ObjectInfo{}, err
	}
	obj, err := m.resolve(f, path, false)
	if err != nil {
		return binding.ObjectInfo{}, err
	}
	return binding.ObjectInfo{Type: obj.typ, LinkTarget: obj.linkTarget}, nil
}

// CreateGroup creates a group, with intermediate groups as needed.
func (m *Membind) CreateGroup(file binding.Handle, path string) error {
	f, err := m.file(file)
	if err != nil {
		return err
	}
	if f.readOnly {
		return binding.ErrReadOnly
	}
	parent, name, err := m.resolveParent(f, path, true)
	if err != nil {
		return err
	}
	if _, exists := parent.children[name]; exists {
		return fmt.Errorf("%w: %q", binding.ErrExists, path)
	}
	parent.insertChild(name, f.newObject(binding.TypeGroup))
	return nil
}

// GroupMembers lists the group's children in insertion order.
func (m *Membind) GroupMembers(file binding.Handle, path string) ([]string, error) {
	f, err := m.file(file)
	if err != nil {
		return nil, err
	}
	obj, err := m.resolve(f, path, true)
	if err != nil {
		return nil, err
	}
	if obj.typ != binding.TypeGroup {
		return nil, fmt.Errorf("%w: %q is not a group", binding.ErrWrongType, path)
	}
	return append([]string(nil), obj.order...), nil
}

// CreateHardLink links linkPath to the object at targetPath.
func (m *Membind) CreateHardLink(file binding.Handle, targetPath, linkPath string) error {
	f, err := m.file(file)
	if err != nil {
		return err
	}
	if f.readOnly {
		return binding.ErrReadOnly
	}
	target, err := m.resolve(f, targetPath, true)
	if err != nil {
		return err
	}
	parent, name, err := m.resolveParent(f, linkPath, true)
	if err != nil {
		return err
	}
	if _, exists := parent.children[name]; exists {
		return fmt.Errorf("%w: %q", binding.ErrExists, linkPath)
	}
	parent.insertChild(name, target)
	return nil
}

// CreateSoftLink creates a soft link at linkPath pointing to targetPath.
// The target need not exist. An existing soft link is replaced, matching
// the native library's H5Lcreate_soft-after-delete idiom used by the
// registry.
func (m *Membind) CreateSoftLink(file binding.Handle, targetPath, linkPath string) error {
	f, err := m.file(file)
	if err != nil {
		return err
	}
	if f.readOnly {
		return binding.ErrReadOnly
	}
	parent, name, err := m.resolveParent(f, linkPath, true)
	if err != nil {
		return err
	}
	if existing, ok := parent.children[name]; ok && existing.typ != binding.TypeSoftLink {
		return fmt.Errorf("%w: %q", binding.ErrExists, linkPath)
	}
	link := f.newObject(binding.TypeSoftLink)
	link.linkTarget = targetPath
	parent.insertChild(name, link)
	return nil
}

// CreateExternalLink creates an external link. The containing file must
// have been created with the latest-format switch.
func (m *Membind) CreateExternalLink(file binding.Handle, linkPath, targetFile, targetPath string) error {
	f, err := m.file(file)
	if err != nil {
		return err
	}
	if f.readOnly {
		return binding.ErrReadOnly
	}
	if !f.latestFormat {
		return fmt.Errorf("%w: external links require the latest file format", binding.ErrUnsupported)
	}
	parent, name, err := m.resolveParent(f, linkPath, true)
	if err != nil {
		return err
	}
	if _, exists := parent.children[name]; exists {
		return fmt.Errorf("%w: %q", binding.ErrExists, linkPath)
	}
	link := f.newObject(binding.TypeExternalLink)
	link.linkTarget = fmt.Sprintf("EXTERNAL::%s::%s", targetFile, targetPath)
	parent.insertChild(name, link)
	return nil
}

// DeleteLink unlinks the object at path.
func (m *Membind) DeleteLink(file binding.Handle, path string) error {
	f, err := m.file(file)
	if err != nil {
		return err
	}
	if f.readOnly {
		return binding.ErrReadOnly
	}
	parent, name, err := m.resolveParent(f, path, false)
	if err != nil {
		return err
	}
	if !parent.removeChild(name) {
		return fmt.Errorf("%w: %q", binding.ErrNotFound, path)
	}
	return nil
}

// MoveLink renames the link at oldPath to newPath.
func (m *Membind) MoveLink(file binding.Handle, oldPath, newPath string) error {
	f, err := m.file(file)
	if err != nil {
		return err
	}
	if f.readOnly {
		return binding.ErrReadOnly
	}
	oldParent, oldName, err := m.resolveParent(f, oldPath, false)
	if err != nil {
		return err
	}
	obj, ok := oldParent.children[oldName]
	if !ok {
		return fmt.Errorf("%w: %q", binding.ErrNotFound, oldPath)
	}
	newParent, newName, err := m.resolveParent(f, newPath, true)
	if err != nil {
		return err
	}
	if _, exists := newParent.children[newName]; exists {
		return fmt.Errorf("%w: %q", binding.ErrExists, newPath)
	}
	oldParent.removeChild(oldName)
	newParent.insertChild(newName, obj)
	return nil
}

// ObjectAddress returns the object's stable in-file address.
func (m *Membind) ObjectAddress(file binding.Handle, path string) (uint64, error) {
	f, err := m.file(file)
	if err != nil {
		return 0, err
	}
	obj, err := m.resolve(f, path, true)
	if err != nil {
		return 0, err
	}
	return obj.addr, nil
}

// PathByAddress resolves an address back to the first canonical path that
// reaches it.
func (m *Membind) PathByAddress(file binding.Handle, addr uint64) (string, error) {
	f, err := m.file(file)
	if err != nil {
		return "", err
	}
	if path, ok := findByAddr(f.root, "", addr); ok {
		return path, nil
	}
	return "", fmt.Errorf("%w: address %d", binding.ErrNotFound, addr)
}

func findByAddr(obj *memObject, prefix string, addr uint64) (string, bool) {
	if obj.addr == addr {
		if prefix == "" {
			return "/", true
		}
		return prefix, true
	}
	for _, name := range obj.order {
		child := obj.children[name]
		if child.typ == binding.TypeSoftLink || child.typ == binding.TypeExternalLink {
			continue
		}
		if path, ok := findByAddr(child, prefix+"/"+name, addr); ok {
			return path, true
		}
	}
	return "", false
}

// Close releases a non-file handle.
func (m *Membind) Close(h binding.Handle) error {
	if h == binding.SpaceAll {
		return nil
	}
	if _, ok := m.handles[h]; !ok {
		return fmt.Errorf("%w: %d", binding.ErrBadHandle, h)
	}
	delete(m.handles, h)
	return nil
}
