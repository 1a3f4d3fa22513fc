// Package blockcollection implements the ordered chain of blocks that
// backs a big array: size-bound enforcement, the splitting policy that
// keeps every block within MaxBlockSize, and block-level CRUD.
//
// A Collection does not know about the ArrayMap that indexes it; the
// owning facade is responsible for notifying the map after every
// structural mutation.
package blockcollection

import (
	"github.com/pkg/errors"
	"github.com/skyline93/bigarray/internal/bigarray/arrayerrors"
	"github.com/skyline93/bigarray/internal/bigarray/block"
)

// Collection is an ordered sequence of *block.Block[T] with two
// size parameters: DefaultBlockSize, the target size for freshly
// split blocks, and MaxBlockSize, the hard upper bound on any single
// block's length.
type Collection[T any] struct {
	backing          block.Backing[*block.Block[T]]
	defaultBlockSize int
	maxBlockSize     int
}

const op = "blockcollection"

// New returns an empty Collection with the given size parameters,
// backed by the default flat-vector implementation.
func New[T any](defaultBlockSize, maxBlockSize int) (*Collection[T], error) {
	return NewWithBacking[T](block.NewSliceBacking[*block.Block[T]](), defaultBlockSize, maxBlockSize)
}

// NewFromSeed returns a Collection whose initial content is seed,
// split into blocks of defaultBlockSize per the splitting policy.
func NewFromSeed[T any](seed []T, defaultBlockSize, maxBlockSize int) (*Collection[T], error) {
	c, err := New[T](defaultBlockSize, maxBlockSize)
	if err != nil {
		return nil, err
	}
	if err := c.AddElements(seed); err != nil {
		return nil, err
	}
	return c, nil
}

// NewWithBacking returns an empty Collection using a caller-supplied
// backing list of blocks.
func NewWithBacking[T any](backing block.Backing[*block.Block[T]], defaultBlockSize, maxBlockSize int) (*Collection[T], error) {
	if backing == nil {
		return nil, arrayerrors.NewContractViolation(op+".New", "backing must not be nil")
	}
	if defaultBlockSize < 0 || maxBlockSize < 0 {
		return nil, arrayerrors.NewOutOfRange(op+".New", "block sizes must be non-negative")
	}
	if defaultBlockSize > maxBlockSize {
		return nil, arrayerrors.NewContractViolation(op+".New", "DefaultBlockSize must not exceed MaxBlockSize")
	}
	return &Collection[T]{backing: backing, defaultBlockSize: defaultBlockSize, maxBlockSize: maxBlockSize}, nil
}

// NewWithBackingFromSeed combines NewWithBacking and NewFromSeed.
func NewWithBackingFromSeed[T any](backing block.Backing[*block.Block[T]], seed []T, defaultBlockSize, maxBlockSize int) (*Collection[T], error) {
	c, err := NewWithBacking[T](backing, defaultBlockSize, maxBlockSize)
	if err != nil {
		return nil, err
	}
	if err := c.AddElements(seed); err != nil {
		return nil, err
	}
	return c, nil
}

// Count returns the number of blocks in the chain.
func (c *Collection[T]) Count() int {
	return c.backing.Count()
}

// IsReadOnly is always false; a Collection is always mutable.
func (c *Collection[T]) IsReadOnly() bool {
	return false
}

// DefaultBlockSize returns the target size for newly created blocks.
func (c *Collection[T]) DefaultBlockSize() int {
	return c.defaultBlockSize
}

// SetDefaultBlockSize updates the target size for newly created
// blocks. It must remain within [0, MaxBlockSize].
func (c *Collection[T]) SetDefaultBlockSize(size int) error {
	if size < 0 {
		return arrayerrors.NewOutOfRange(op+".SetDefaultBlockSize", "size must be non-negative")
	}
	if size > c.maxBlockSize {
		return arrayerrors.NewContractViolation(op+".SetDefaultBlockSize", "DefaultBlockSize must not exceed MaxBlockSize")
	}
	c.defaultBlockSize = size
	return nil
}

// MaxBlockSize returns the hard upper bound on any single block's
// length.
func (c *Collection[T]) MaxBlockSize() int {
	return c.maxBlockSize
}

// SetMaxBlockSize updates the hard upper bound on any single block's
// length. It must remain non-negative and at least DefaultBlockSize.
func (c *Collection[T]) SetMaxBlockSize(size int) error {
	if size < 0 {
		return arrayerrors.NewOutOfRange(op+".SetMaxBlockSize", "size must be non-negative")
	}
	if size < c.defaultBlockSize {
		return arrayerrors.NewContractViolation(op+".SetMaxBlockSize", "MaxBlockSize must not be smaller than DefaultBlockSize")
	}
	c.maxBlockSize = size
	return nil
}

// Get returns the block at position i.
func (c *Collection[T]) Get(i int) (*block.Block[T], error) {
	blk, err := c.backing.Get(i)
	if err != nil {
		return nil, errors.Wrap(err, op+".Get")
	}
	return blk, nil
}

// All returns the blocks in chain order. The returned slice is a
// snapshot; mutating the collection afterward does not retroactively
// change it, but the *block.Block[T] elements it holds are shared with
// the collection and mutate in place.
func (c *Collection[T]) All() []*block.Block[T] {
	out := make([]*block.Block[T], c.backing.Count())
	c.backing.CopyTo(out)
	return out
}

// splitSize returns the block size used by the splitting policy,
// guarding against a configured DefaultBlockSize of zero (which would
// otherwise make ceil(n/0) undefined). A DefaultBlockSize of zero is
// treated as "one element per block".
func (c *Collection[T]) splitSize() int {
	if c.defaultBlockSize <= 0 {
		return 1
	}
	return c.defaultBlockSize
}

// split divides elements into fresh blocks per the splitting policy:
// ceil(n/size) blocks, each of size `size` except the last, every
// block allocated with capacity hint `size`. Empty input yields no
// blocks.
func split[T any](elements []T, size int) []*block.Block[T] {
	n := len(elements)
	if n == 0 {
		return nil
	}
	k := (n + size - 1) / size
	blocks := make([]*block.Block[T], 0, k)
	for i := 0; i < k; i++ {
		start := i * size
		end := start + size
		if end > n {
			end = n
		}
		blocks = append(blocks, block.FromSlice(elements[start:end], size))
	}
	return blocks
}

// AddBlock splits content's elements per the splitting policy and
// appends the resulting fresh blocks. content is not itself retained;
// it may be reused or discarded by the caller after this call.
func (c *Collection[T]) AddBlock(content *block.Block[T]) error {
	if content == nil {
		return arrayerrors.NewContractViolation(op+".AddBlock", "content must not be nil")
	}
	return c.AddElements(content.Slice())
}

// AddElements splits elements per the splitting policy and appends the
// resulting fresh blocks. An empty elements adds nothing.
func (c *Collection[T]) AddElements(elements []T) error {
	return c.AddElementsRange(elements, 0, len(elements))
}

// AddElementsRange is AddElements restricted to elements[offset:offset+count].
func (c *Collection[T]) AddElementsRange(elements []T, offset, count int) error {
	sub, err := subrange(elements, offset, count, op+".AddElementsRange")
	if err != nil {
		return err
	}
	for _, blk := range split[T](sub, c.splitSize()) {
		c.backing.Add(blk)
	}
	return nil
}

func subrange[T any](elements []T, offset, count int, opName string) ([]T, error) {
	if offset < 0 || count < 0 || offset+count > len(elements) {
		return nil, arrayerrors.NewOutOfRange(opName, "sub-range outside input collection")
	}
	return elements[offset : offset+count], nil
}

// AddNewBlock appends a single empty block with capacity hint
// DefaultBlockSize, bypassing the splitting policy.
func (c *Collection[T]) AddNewBlock() *block.Block[T] {
	blk := block.New[T](c.defaultBlockSize)
	c.backing.Add(blk)
	return blk
}

// AddRange runs the splitting policy on each block in blocks and
// appends the results. A nil element in blocks is a contract
// violation; an empty input block contributes nothing.
func (c *Collection[T]) AddRange(blocks []*block.Block[T]) error {
	for _, blk := range blocks {
		if blk == nil {
			return arrayerrors.NewContractViolation(op+".AddRange", "range must not contain a nil block")
		}
	}
	for _, blk := range blocks {
		if err := c.AddBlock(blk); err != nil {
			return err
		}
	}
	return nil
}

// Insert splits content's elements per the splitting policy and
// inserts the resulting fresh blocks starting at index. index must lie
// in [0, Count()]. An empty content is a no-op.
func (c *Collection[T]) Insert(index int, content *block.Block[T]) error {
	if content == nil {
		return arrayerrors.NewContractViolation(op+".Insert", "content must not be nil")
	}
	return c.InsertElements(index, content.Slice())
}

// InsertElements splits elements per the splitting policy and inserts
// the resulting fresh blocks starting at index.
func (c *Collection[T]) InsertElements(index int, elements []T) error {
	if index < 0 || index > c.backing.Count() {
		return arrayerrors.NewOutOfRange(op+".InsertElements", "index out of range")
	}
	blocks := split[T](elements, c.splitSize())
	if len(blocks) == 0 {
		return nil
	}
	if err := c.backing.InsertRange(index, blocks); err != nil {
		return errors.Wrap(err, op+".InsertElements")
	}
	return nil
}

// InsertNewBlock inserts one empty block at index. index must lie in
// [0, Count()].
func (c *Collection[T]) InsertNewBlock(index int) error {
	if index < 0 || index > c.backing.Count() {
		return arrayerrors.NewOutOfRange(op+".InsertNewBlock", "index out of range")
	}
	if err := c.backing.Insert(index, block.New[T](c.defaultBlockSize)); err != nil {
		return errors.Wrap(err, op+".InsertNewBlock")
	}
	return nil
}

// InsertRange splits each block in blocks, concatenates the results,
// and inserts them as a contiguous group at index. An empty
// concatenation is a no-op.
func (c *Collection[T]) InsertRange(index int, blocks []*block.Block[T]) error {
	if index < 0 || index > c.backing.Count() {
		return arrayerrors.NewOutOfRange(op+".InsertRange", "index out of range")
	}
	for _, blk := range blocks {
		if blk == nil {
			return arrayerrors.NewContractViolation(op+".InsertRange", "range must not contain a nil block")
		}
	}
	var concatenated []T
	for _, blk := range blocks {
		concatenated = append(concatenated, blk.Slice()...)
	}
	if len(concatenated) == 0 {
		return nil
	}
	fresh := split[T](concatenated, c.splitSize())
	if err := c.backing.InsertRange(index, fresh); err != nil {
		return errors.Wrap(err, op+".InsertRange")
	}
	return nil
}

// Remove deletes the first occurrence of blk, reporting whether it was
// found.
func (c *Collection[T]) Remove(blk *block.Block[T]) bool {
	return c.backing.Remove(blk)
}

// RemoveAt deletes the block at position index.
func (c *Collection[T]) RemoveAt(index int) error {
	if err := c.backing.RemoveAt(index); err != nil {
		return errors.Wrap(err, op+".RemoveAt")
	}
	return nil
}

// Clear removes every block.
func (c *Collection[T]) Clear() {
	c.backing.Clear()
}

// Reverse reverses block order in place. Per-block element order is
// unchanged: this does not, by itself, reverse the big array's logical
// element order. Whether the two coincide depends on the facade also
// reversing within each block. Flagged as a possible
// surprise; preserved as specified.
func (c *Collection[T]) Reverse() {
	c.backing.Reverse()
}

// TryToDivideBlock splits block index in place if its length has
// reached MaxBlockSize: the block is removed and replaced by its split
// (per the splitting policy). Otherwise this is a no-op. Splitting is
// never automatic on other mutations; only this method or a size check
// by the facade triggers it.
func (c *Collection[T]) TryToDivideBlock(index int) error {
	blk, err := c.backing.Get(index)
	if err != nil {
		return errors.Wrap(err, op+".TryToDivideBlock")
	}
	if blk.Len() < c.maxBlockSize {
		return nil
	}
	elements := append([]T(nil), blk.Slice()...)
	if err := c.backing.RemoveAt(index); err != nil {
		return errors.Wrap(err, op+".TryToDivideBlock")
	}
	replacement := split[T](elements, c.splitSize())
	if len(replacement) == 0 {
		return nil
	}
	if err := c.backing.InsertRange(index, replacement); err != nil {
		return errors.Wrap(err, op+".TryToDivideBlock")
	}
	return nil
}

// AddFirstBlockIfThereIsNeeded ensures the collection holds at least
// one block, adding an empty one if it is currently empty.
func (c *Collection[T]) AddFirstBlockIfThereIsNeeded() {
	if c.backing.Count() == 0 {
		c.AddNewBlock()
	}
}
