package membind

import (
	"fmt"

	"github.com/robert-malhotra/go-h5typed/binding"
)

type memDataset struct {
	typ     *memType
	dims    []uint64
	maxDims []uint64
	layout  binding.Layout
	chunk   []uint64
	deflate int
	data    []byte      // compact and contiguous raw bytes
	chunks  *chunkStore // chunked raw bytes
	varData []string    // variable-length string payload
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// CreateDataset creates a dataset node at path.
func (m *Membind) CreateDataset(file binding.Handle, path string, typeID binding.Handle,
	dims, maxDims []uint64, layout binding.Layout, chunk []uint64, deflate int) (binding.Handle, error) {

	f, err := m.file(file)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if f.readOnly {
		return binding.InvalidHandle, binding.ErrReadOnly
	}
	t, err := m.typeOf(typeID)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if layout == binding.LayoutChunked {
		if len(chunk) != len(dims) {
			return binding.InvalidHandle, fmt.Errorf("%w: chunk rank %d, dims rank %d",
				binding.ErrSelection, len(chunk), len(dims))
		}
	} else if chunk != nil {
		return binding.InvalidHandle, fmt.Errorf("%w: chunk shape on %s layout",
			binding.ErrSelection, layout)
	}
	if maxDims == nil {
		maxDims = dims
	}
	if len(maxDims) != len(dims) {
		return binding.InvalidHandle, fmt.Errorf("%w: max dims rank %d, dims rank %d",
			binding.ErrSelection, len(maxDims), len(dims))
	}
	for k := range dims {
		if maxDims[k] != binding.Unlimited && dims[k] > maxDims[k] {
			return binding.InvalidHandle, fmt.Errorf("%w: axis %d: size %d exceeds max %d",
				binding.ErrSelection, k, dims[k], maxDims[k])
		}
		if maxDims[k] != binding.Unlimited && maxDims[k] > dims[k] && layout != binding.LayoutChunked {
			return binding.InvalidHandle, fmt.Errorf("%w: extendable axes require the chunked layout",
				binding.ErrUnsupported)
		}
	}

	parent, name, err := m.resolveParent(f, path, true)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if _, exists := parent.children[name]; exists {
		return binding.InvalidHandle, fmt.Errorf("%w: %q", binding.ErrExists, path)
	}

	d := &memDataset{
		typ:     t.clone(),
		dims:    append([]uint64(nil), dims...),
		maxDims: append([]uint64(nil), maxDims...),
		layout:  layout,
		deflate: deflate,
	}
	if t.varString {
		d.varData = make([]string, product(dims))
	} else if layout == binding.LayoutChunked {
		d.chunk = append([]uint64(nil), chunk...)
		d.chunks = newChunkStore(deflate, int(product(chunk))*t.size)
	} else {
		d.data = make([]byte, product(dims)*uint64(t.size))
	}

	node := f.newObject(binding.TypeDataset)
	node.dset = d
	parent.insertChild(name, node)
	return m.alloc(&dsHandle{file: f, obj: node}), nil
}

// OpenDataset opens the dataset at path, following links.
func (m *Membind) OpenDataset(file binding.Handle, path string) (binding.Handle, error) {
	f, err := m.file(file)
	if err != nil {
		return binding.InvalidHandle, err
	}
	obj, err := m.resolve(f, path, true)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if obj.typ != binding.TypeDataset {
		return binding.InvalidHandle, fmt.Errorf("%w: %q is a %s", binding.ErrWrongType, path, obj.typ)
	}
	return m.alloc(&dsHandle{file: f, obj: obj}), nil
}

// DatasetType returns a handle to a copy of the dataset's stored type.
func (m *Membind) DatasetType(ds binding.Handle) (binding.Handle, error) {
	d, err := m.dataset(ds)
	if err != nil {
		return binding.InvalidHandle, err
	}
	return m.alloc(d.obj.dset.typ.clone()), nil
}

// DatasetSpace returns a handle to the dataset's current dataspace.
func (m *Membind) DatasetSpace(ds binding.Handle) (binding.Handle, error) {
	d, err := m.dataset(ds)
	if err != nil {
		return binding.InvalidHandle, err
	}
	set := d.obj.dset
	return m.alloc(&memSpace{
		dims:    append([]uint64(nil), set.dims...),
		maxDims: append([]uint64(nil), set.maxDims...),
	}), nil
}

// DatasetLayout returns the storage layout and, for chunked datasets, the
// chunk shape.
func (m *Membind) DatasetLayout(ds binding.Handle) (binding.Layout, []uint64, error) {
	d, err := m.dataset(ds)
	if err != nil {
		return 0, nil, err
	}
	set := d.obj.dset
	return set.layout, append([]uint64(nil), set.chunk...), nil
}

// SetExtent changes the dataset's current dimensions. Only chunked
// datasets can change extent, and only within their max dimensions;
// shrinking is not supported by this implementation.
func (m *Membind) SetExtent(ds binding.Handle, dims []uint64) error {
	d, err := m.dataset(ds)
	if err != nil {
		return err
	}
	if d.file.readOnly {
		return binding.ErrReadOnly
	}
	set := d.obj.dset
	if set.layout != binding.LayoutChunked {
		return fmt.Errorf("%w: set extent on %s layout", binding.ErrUnsupported, set.layout)
	}
	if len(dims) != len(set.dims) {
		return fmt.Errorf("%w: extent rank %d, dataset rank %d",
			binding.ErrSelection, len(dims), len(set.dims))
	}
	for k := range dims {
		if set.maxDims[k] != binding.Unlimited && dims[k] > set.maxDims[k] {
			return fmt.Errorf("%w: axis %d: extent %d exceeds max %d",
				binding.ErrSelection, k, dims[k], set.maxDims[k])
		}
		if dims[k] < set.dims[k] {
			return fmt.Errorf("%w: shrinking extent", binding.ErrUnsupported)
		}
	}
	if set.varData != nil {
		set.varData = remapVarData(set.varData, set.dims, dims)
	}
	set.dims = append([]uint64(nil), dims...)
	return nil
}

// remapVarData moves flat row-major elements from the old extent into the
// new, larger extent.
func remapVarData(old []string, oldDims, newDims []uint64) []string {
	out := make([]string, product(newDims))
	if len(oldDims) == 0 {
		copy(out, old)
		return out
	}
	idx := make([]uint64, len(oldDims))
	for flat := range old {
		newFlat := uint64(0)
		for k := range idx {
			newFlat = newFlat*newDims[k] + idx[k]
		}
		out[newFlat] = old[flat]
		k := len(idx) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < oldDims[k] {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			break
		}
	}
	return out
}

// transferPairs enumerates matched (file, memory) flat element indices for
// a transfer.
func (m *Membind) transferPairs(set *memDataset, memSpace, fileSpace binding.Handle) (fileFlats, memFlats []uint64, memExtent uint64, memDims []uint64, err error) {
	fileSp, err := m.spaceForTransfer(fileSpace, set.dims)
	if err != nil {
		return nil, nil, 0, nil, err
	}
	n := fileSp.selectionCount()
	memSp, err := m.spaceForTransfer(memSpace, []uint64{n})
	if err != nil {
		return nil, nil, 0, nil, err
	}
	if memSp.selectionCount() != n {
		return nil, nil, 0, nil, fmt.Errorf("%w: file selection has %d elements, memory selection %d",
			binding.ErrSelection, n, memSp.selectionCount())
	}
	fileFlats = make([]uint64, 0, n)
	memFlats = make([]uint64, 0, n)
	fileSp.eachSelected(func(flat uint64) { fileFlats = append(fileFlats, flat) })
	memSp.eachSelected(func(flat uint64) { memFlats = append(memFlats, flat) })
	return fileFlats, memFlats, product(memSp.dims), memSp.dims, nil
}

// ReadData reads selected elements into buf, converting from the stored
// type to memType.
func (m *Membind) ReadData(ds binding.Handle, memType, memSpace, fileSpace binding.Handle, buf []byte) error {
	d, err := m.dataset(ds)
	if err != nil {
		return err
	}
	set := d.obj.dset
	if set.varData != nil {
		return fmt.Errorf("%w: variable-length data needs ReadVarStrings", binding.ErrUnsupported)
	}
	mt, err := m.typeOf(memType)
	if err != nil {
		return err
	}
	fileFlats, memFlats, memExtent, _, err := m.transferPairs(set, memSpace, fileSpace)
	if err != nil {
		return err
	}
	if len(fileFlats) > 0 && uint64(len(buf)) < memExtent*uint64(mt.size) {
		return fmt.Errorf("%w: buffer holds %d bytes, transfer needs %d",
			binding.ErrSelection, len(buf), memExtent*uint64(mt.size))
	}

	reader := set.elementReader()
	for i := range fileFlats {
		src := reader(fileFlats[i])
		dst := buf[memFlats[i]*uint64(mt.size) : (memFlats[i]+1)*uint64(mt.size)]
		if err := convertElement(dst, mt, src, set.typ); err != nil {
			return err
		}
	}
	return nil
}

// WriteData writes selected elements from buf, converting from memType to
// the stored type.
func (m *Membind) WriteData(ds binding.Handle, memType, memSpace, fileSpace binding.Handle, buf []byte) error {
	d, err := m.dataset(ds)
	if err != nil {
		return err
	}
	if d.file.readOnly {
		return binding.ErrReadOnly
	}
	set := d.obj.dset
	if set.varData != nil {
		return fmt.Errorf("%w: variable-length data needs WriteVarStrings", binding.ErrUnsupported)
	}
	mt, err := m.typeOf(memType)
	if err != nil {
		return err
	}
	fileFlats, memFlats, memExtent, _, err := m.transferPairs(set, memSpace, fileSpace)
	if err != nil {
		return err
	}
	if len(fileFlats) > 0 && uint64(len(buf)) < memExtent*uint64(mt.size) {
		return fmt.Errorf("%w: buffer holds %d bytes, transfer needs %d",
			binding.ErrSelection, len(buf), memExtent*uint64(mt.size))
	}

	writer, flush := set.elementWriter()
	for i := range fileFlats {
		src := buf[memFlats[i]*uint64(mt.size) : (memFlats[i]+1)*uint64(mt.size)]
		dst := writer(fileFlats[i])
		if err := convertElement(dst, set.typ, src, mt); err != nil {
			return err
		}
	}
	return flush()
}

// ReadVarStrings returns the selected variable-length string elements.
func (m *Membind) ReadVarStrings(ds binding.Handle, fileSpace binding.Handle) ([]string, error) {
	d, err := m.dataset(ds)
	if err != nil {
		return nil, err
	}
	set := d.obj.dset
	if set.varData == nil {
		return nil, fmt.Errorf("%w: dataset is not variable-length", binding.ErrWrongType)
	}
	fileSp, err := m.spaceForTransfer(fileSpace, set.dims)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, fileSp.selectionCount())
	fileSp.eachSelected(func(flat uint64) { out = append(out, set.varData[flat]) })
	return out, nil
}

// WriteVarStrings stores vals into the selected variable-length elements.
func (m *Membind) WriteVarStrings(ds binding.Handle, fileSpace binding.Handle, vals []string) error {
	d, err := m.dataset(ds)
	if err != nil {
		return err
	}
	if d.file.readOnly {
		return binding.ErrReadOnly
	}
	set := d.obj.dset
	if set.varData == nil {
		return fmt.Errorf("%w: dataset is not variable-length", binding.ErrWrongType)
	}
	fileSp, err := m.spaceForTransfer(fileSpace, set.dims)
	if err != nil {
		return err
	}
	if uint64(len(vals)) != fileSp.selectionCount() {
		return fmt.Errorf("%w: %d values for %d selected elements",
			binding.ErrSelection, len(vals), fileSp.selectionCount())
	}
	i := 0
	fileSp.eachSelected(func(flat uint64) {
		set.varData[flat] = vals[i]
		i++
	})
	return nil
}

// elementReader returns raw storage bytes for a flat element index.
// Unwritten chunked elements read as zero.
func (set *memDataset) elementReader() func(flat uint64) []byte {
	size := uint64(set.typ.size)
	if set.layout != binding.LayoutChunked {
		return func(flat uint64) []byte {
			return set.data[flat*size : (flat+1)*size]
		}
	}
	var (
		cachedKey  string
		cachedData []byte
	)
	return func(flat uint64) []byte {
		key, off := set.chunkAddress(flat)
		if key != cachedKey || cachedData == nil {
			cachedKey = key
			cachedData = set.chunks.load(key)
		}
		return cachedData[off*size : (off+1)*size]
	}
}

// elementWriter returns writable raw storage slices; flush persists
// modified chunks back to the store.
func (set *memDataset) elementWriter() (func(flat uint64) []byte, func() error) {
	size := uint64(set.typ.size)
	if set.layout != binding.LayoutChunked {
		return func(flat uint64) []byte {
			return set.data[flat*size : (flat+1)*size]
		}, func() error { return nil }
	}
	dirty := make(map[string][]byte)
	writer := func(flat uint64) []byte {
		key, off := set.chunkAddress(flat)
		data, ok := dirty[key]
		if !ok {
			data = set.chunks.load(key)
			dirty[key] = data
		}
		return data[off*size : (off+1)*size]
	}
	flush := func() error {
		for key, data := range dirty {
			if err := set.chunks.store(key, data); err != nil {
				return err
			}
		}
		return nil
	}
	return writer, flush
}

// chunkAddress maps a flat full-extent element index to its chunk key and
// the row-major offset within that chunk. Edge chunks are stored at full
// chunk size, as in the native library.
func (set *memDataset) chunkAddress(flat uint64) (string, uint64) {
	rank := len(set.dims)
	if rank == 0 {
		return chunkKey(nil), 0
	}
	coords := make([]uint64, rank)
	for k := rank - 1; k >= 0; k-- {
		coords[k] = flat % set.dims[k]
		flat /= set.dims[k]
	}
	chunkIdx := make([]uint64, rank)
	within := uint64(0)
	for k := 0; k < rank; k++ {
		chunkIdx[k] = coords[k] / set.chunk[k]
		within = within*set.chunk[k] + coords[k]%set.chunk[k]
	}
	return chunkKey(chunkIdx), within
}
