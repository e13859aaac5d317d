package bytecodec

import "math/bits"

const (
	addressBitsPerWord = 6
	bitsPerWord        = 1 << addressBitsPerWord
	bitIndexMask       = bitsPerWord - 1
)

// BitSet is a growable set of non-negative bit indices stored as 64-bit
// words, LSB first within each word; word 0 holds bits 0..63.
type BitSet struct {
	words []uint64
}

// NewBitSet returns a set with the given bits set.
func NewBitSet(indices ...int) *BitSet {
	b := &BitSet{}
	for _, i := range indices {
		b.Set(i)
	}
	return b
}

// Set sets bit i, growing the word array as needed.
func (b *BitSet) Set(i int) {
	w := i >> addressBitsPerWord
	for len(b.words) <= w {
		b.words = append(b.words, 0)
	}
	b.words[w] |= 1 << uint(i&bitIndexMask)
}

// Clear clears bit i.
func (b *BitSet) Clear(i int) {
	w := i >> addressBitsPerWord
	if w < len(b.words) {
		b.words[w] &^= 1 << uint(i&bitIndexMask)
	}
}

// Test reports whether bit i is set.
func (b *BitSet) Test(i int) bool {
	w := i >> addressBitsPerWord
	return w < len(b.words) && b.words[w]&(1<<uint(i&bitIndexMask)) != 0
}

// Len returns one past the highest set bit, or 0 for an empty set.
func (b *BitSet) Len() int {
	for w := len(b.words) - 1; w >= 0; w-- {
		if b.words[w] != 0 {
			return w<<addressBitsPerWord + bitsPerWord - bits.LeadingZeros64(b.words[w])
		}
	}
	return 0
}

// Count returns the number of set bits.
func (b *BitSet) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// NextSet returns the index of the first set bit at or after from, or -1.
func (b *BitSet) NextSet(from int) int {
	if from < 0 {
		from = 0
	}
	w := from >> addressBitsPerWord
	if w >= len(b.words) {
		return -1
	}
	cur := b.words[w] &^ (1<<uint(from&bitIndexMask) - 1)
	for {
		if cur != 0 {
			return w<<addressBitsPerWord + bits.TrailingZeros64(cur)
		}
		w++
		if w >= len(b.words) {
			return -1
		}
		cur = b.words[w]
	}
}

// Equal reports whether both sets contain the same bits, ignoring trailing
// zero words.
func (b *BitSet) Equal(other *BitSet) bool {
	long, short := b.words, other.words
	if len(short) > len(long) {
		long, short = short, long
	}
	for i, w := range short {
		if long[i] != w {
			return false
		}
	}
	for _, w := range long[len(short):] {
		if w != 0 {
			return false
		}
	}
	return true
}

// wordsInUse returns the number of words up to and including the last
// non-zero one.
func (b *BitSet) wordsInUse() int {
	for w := len(b.words) - 1; w >= 0; w-- {
		if b.words[w] != 0 {
			return w + 1
		}
	}
	return 0
}

// StorageForm returns the minimal word sequence for the set: trailing
// all-zero words are trimmed.
func (b *BitSet) StorageForm() []uint64 {
	n := b.wordsInUse()
	out := make([]uint64, n)
	copy(out, b.words[:n])
	return out
}

// StorageFormPadded returns exactly numWords words, zero-padded. Bits above
// numWords*64 are dropped.
func (b *BitSet) StorageFormPadded(numWords int) []uint64 {
	out := make([]uint64, numWords)
	copy(out, b.words)
	return out
}

// FromStorageForm reconstructs a set from a word sequence of any length.
func FromStorageForm(words []uint64) *BitSet {
	b := &BitSet{words: make([]uint64, len(words))}
	copy(b.words, words)
	return b
}

// StorageWordCount returns the number of words needed to hold every set in
// data, i.e. the row width for a padded 2-D table.
func StorageWordCount(data []*BitSet) int {
	n := 0
	for _, b := range data {
		if w := b.wordsInUse(); w > n {
			n = w
		}
	}
	return n
}

// StorageForm2D serializes sets as a table of numWords-wide rows.
func StorageForm2D(data []*BitSet, numWords int) []uint64 {
	out := make([]uint64, 0, len(data)*numWords)
	for _, b := range data {
		out = append(out, b.StorageFormPadded(numWords)...)
	}
	return out
}

// FromStorageForm2D reconstructs a row of sets from a flat table whose rows
// are numWords wide.
func FromStorageForm2D(words []uint64, numWords int) []*BitSet {
	if numWords == 0 {
		return nil
	}
	out := make([]*BitSet, 0, len(words)/numWords)
	for off := 0; off+numWords <= len(words); off += numWords {
		out = append(out, FromStorageForm(words[off:off+numWords]))
	}
	return out
}
