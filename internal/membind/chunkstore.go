package membind

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/google/btree"
	"github.com/klauspost/compress/zlib"
)

// chunkStore keeps written chunks in an ordered index keyed by the chunk's
// per-axis grid index. Chunks are stored deflate-compressed when the
// dataset carries a gzip level, mirroring what the filter pipeline does to
// on-disk chunks.
type chunkStore struct {
	tree      *btree.BTree
	deflate   int
	chunkSize int
}

type chunkItem struct {
	key  string
	data []byte
}

func (c *chunkItem) Less(than btree.Item) bool {
	return c.key < than.(*chunkItem).key
}

func newChunkStore(deflate, chunkSize int) *chunkStore {
	return &chunkStore{
		tree:      btree.New(8),
		deflate:   deflate,
		chunkSize: chunkSize,
	}
}

// chunkKey encodes a chunk grid index so that string ordering matches the
// lexicographic grid order.
func chunkKey(idx []uint64) string {
	if len(idx) == 0 {
		return "scalar"
	}
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = fmt.Sprintf("%016x", v)
	}
	return strings.Join(parts, ".")
}

// load returns the decompressed chunk, or a zero-filled chunk when it was
// never written.
func (cs *chunkStore) load(key string) []byte {
	item := cs.tree.Get(&chunkItem{key: key})
	if item == nil {
		return make([]byte, cs.chunkSize)
	}
	raw := item.(*chunkItem).data
	if cs.deflate == 0 {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out
	}
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return make([]byte, cs.chunkSize)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return make([]byte, cs.chunkSize)
	}
	return out
}

// store persists a chunk, compressing when a deflate level is set.
func (cs *chunkStore) store(key string, data []byte) error {
	stored := data
	if cs.deflate != 0 {
		var buf bytes.Buffer
		w, err := zlib.NewWriterLevel(&buf, cs.deflate)
		if err != nil {
			return fmt.Errorf("deflate level %d: %w", cs.deflate, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("compressing chunk: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("compressing chunk: %w", err)
		}
		stored = buf.Bytes()
	} else {
		stored = make([]byte, len(data))
		copy(stored, data)
	}
	cs.tree.ReplaceOrInsert(&chunkItem{key: key, data: stored})
	return nil
}

// count returns the number of written chunks.
func (cs *chunkStore) count() int {
	return cs.tree.Len()
}
