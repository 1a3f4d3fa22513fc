// Package block implements the fixed-capacity-hinted, resizable
// bucket of elements that a BlockCollection chains together, plus the
// default flat-vector backing store used to hold those buckets.
//
// Per-block element storage is intentionally thin: it is the growable
// vector; the interesting
// engineering lives one level up, in blockcollection and arraymap.
package block

import "github.com/skyline93/bigarray/internal/bigarray/arrayerrors"

// Block is a growable sequence of elements of T with a nominal
// initial capacity. It tracks its own length separately from the
// backing slice's capacity so that shrinking never reallocates.
type Block[T any] struct {
	data []T
}

// New allocates an empty Block with capacity hint capacityHint.
func New[T any](capacityHint int) *Block[T] {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Block[T]{data: make([]T, 0, capacityHint)}
}

// FromSlice builds a Block that owns a copy of src, with capacity hint
// capacityHint (which may be smaller than len(src); the backing slice
// still grows to fit).
func FromSlice[T any](src []T, capacityHint int) *Block[T] {
	n := len(src)
	cp := capacityHint
	if cp < n {
		cp = n
	}
	data := make([]T, n, cp)
	copy(data, src)
	return &Block[T]{data: data}
}

// Len returns the block's current element count.
func (b *Block[T]) Len() int {
	return len(b.data)
}

// Cap returns the block's current backing capacity, i.e. how many
// elements it can hold before Append/InsertAt must reallocate.
func (b *Block[T]) Cap() int {
	return cap(b.data)
}

// Get returns the element at block-local offset i.
func (b *Block[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(b.data) {
		return zero, arrayerrors.NewOutOfRange("Block.Get", "index out of range")
	}
	return b.data[i], nil
}

// Set overwrites the element at block-local offset i.
func (b *Block[T]) Set(i int, v T) error {
	if i < 0 || i >= len(b.data) {
		return arrayerrors.NewOutOfRange("Block.Set", "index out of range")
	}
	b.data[i] = v
	return nil
}

// Append adds v to the end of the block.
func (b *Block[T]) Append(v T) {
	b.data = append(b.data, v)
}

// AppendAll adds every element of vs, in order, to the end of the
// block.
func (b *Block[T]) AppendAll(vs []T) {
	b.data = append(b.data, vs...)
}

// InsertAt inserts v at block-local offset i, shifting subsequent
// elements right. i must lie in [0, Len()].
func (b *Block[T]) InsertAt(i int, v T) error {
	if i < 0 || i > len(b.data) {
		return arrayerrors.NewOutOfRange("Block.InsertAt", "index out of range")
	}
	var zero T
	b.data = append(b.data, zero)
	copy(b.data[i+1:], b.data[i:])
	b.data[i] = v
	return nil
}

// RemoveAt deletes the element at block-local offset i, shifting
// subsequent elements left.
func (b *Block[T]) RemoveAt(i int) error {
	if i < 0 || i >= len(b.data) {
		return arrayerrors.NewOutOfRange("Block.RemoveAt", "index out of range")
	}
	copy(b.data[i:], b.data[i+1:])
	var zero T
	b.data[len(b.data)-1] = zero
	b.data = b.data[:len(b.data)-1]
	return nil
}

// CopyTo copies the block's elements into dst, starting at dst[0], and
// returns the number of elements copied.
func (b *Block[T]) CopyTo(dst []T) int {
	return copy(dst, b.data)
}

// Slice returns the block's backing elements. Callers must not retain
// the slice past the next mutating call on the block.
func (b *Block[T]) Slice() []T {
	return b.data
}

// IsEmpty reports whether the block holds zero elements.
func (b *Block[T]) IsEmpty() bool {
	return len(b.data) == 0
}
