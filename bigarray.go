// Package bigarray provides Array, a large, random-access, mutable
// sequence that stores its elements across many fixed-capacity blocks
// instead of one contiguous buffer, so that mid-sequence insertions
// and deletions do not cost time proportional to the total element
// count.
//
// Array wires blockcollection.Collection mutations to arraymap.Map
// notifications, composing both behind one lock-guarded API surface.
package bigarray

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/skyline93/bigarray/internal/bigarray/arraymap"
	"github.com/skyline93/bigarray/internal/bigarray/arrayerrors"
	"github.com/skyline93/bigarray/internal/bigarray/balancer"
	"github.com/skyline93/bigarray/internal/bigarray/bigrange"
	"github.com/skyline93/bigarray/internal/bigarray/blockcollection"
	"github.com/skyline93/bigarray/internal/bigarray/defaultvalues"
)

const op = "bigarray"

// Options configures a new Array.
type Options struct {
	// DefaultBlockSize is the target size for newly created blocks.
	DefaultBlockSize int
	// MaxBlockSize is the hard upper bound on any single block's
	// length. A block reaching this length becomes eligible for
	// splitting via TryToDivideBlock, invoked automatically by Insert
	// and Append.
	MaxBlockSize int
	// Balancer is an optional block-size suggestion capability, stored
	// but not yet consulted.
	Balancer balancer.Balancer
}

// Array is a chunked, random-access, mutable sequence of T.
type Array[T any] struct {
	mu sync.RWMutex

	collection *blockcollection.Collection[T]
	index      *arraymap.Map[T]
}

// New returns an empty Array configured with opts.
func New[T any](opts Options) (*Array[T], error) {
	coll, err := blockcollection.New[T](opts.DefaultBlockSize, opts.MaxBlockSize)
	if err != nil {
		return nil, errors.Wrap(err, op+".New")
	}
	bal := opts.Balancer
	if bal == nil {
		bal = balancer.NoOp{}
	}
	idx, err := arraymap.New[T](bal, coll)
	if err != nil {
		return nil, errors.Wrap(err, op+".New")
	}
	return &Array[T]{collection: coll, index: idx}, nil
}

// NewFromSeed returns an Array pre-populated with seed, split into
// blocks per opts.DefaultBlockSize.
func NewFromSeed[T any](seed []T, opts Options) (*Array[T], error) {
	a, err := New[T](opts)
	if err != nil {
		return nil, err
	}
	if len(seed) == 0 {
		return a, nil
	}
	if err := a.collection.AddElements(seed); err != nil {
		return nil, errors.Wrap(err, op+".NewFromSeed")
	}
	a.index.DataChanged(0)
	return a, nil
}

// Len returns the number of elements currently stored.
func (a *Array[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lenLocked()
}

// At returns the element at global index i.
func (a *Array[T]) At(i int) (T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var zero T
	info, err := a.index.BlockInfo(i, nil)
	if err != nil {
		return zero, errors.Wrap(err, op+".At")
	}
	blk, err := a.collection.Get(info.IndexOfBlock)
	if err != nil {
		return zero, errors.Wrap(err, op+".At")
	}
	return blk.Get(i - info.CommonStartIndex)
}

// Set overwrites the element at global index i.
func (a *Array[T]) Set(i int, v T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := a.index.BlockInfo(i, nil)
	if err != nil {
		return errors.Wrap(err, op+".Set")
	}
	blk, err := a.collection.Get(info.IndexOfBlock)
	if err != nil {
		return errors.Wrap(err, op+".Set")
	}
	return blk.Set(i-info.CommonStartIndex, v)
}

// Append adds v to the end of the array, splitting the tail block if
// it has grown to MaxBlockSize.
func (a *Array[T]) Append(v T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.collection.AddFirstBlockIfThereIsNeeded()
	last := a.collection.Count() - 1
	blk, err := a.collection.Get(last)
	if err != nil {
		return errors.Wrap(err, op+".Append")
	}
	blk.Append(v)
	a.index.DataChanged(last)
	return a.maybeSplitLocked(last)
}

// Grow extends the array to length n, padding the new tail with values
// drawn from provider (a nil provider defaults to the zero value of T).
// If n does not exceed the current length, Grow is a no-op.
func (a *Array[T]) Grow(n int, provider defaultvalues.Provider[T]) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.lenLocked()
	if n <= cur {
		return nil
	}
	if provider == nil {
		provider = defaultvalues.Zero[T]{}
	}

	a.collection.AddFirstBlockIfThereIsNeeded()
	last := a.collection.Count() - 1
	blk, err := a.collection.Get(last)
	if err != nil {
		return errors.Wrap(err, op+".Grow")
	}
	for i := cur; i < n; i++ {
		blk.Append(provider.Default())
	}
	a.index.DataChanged(last)
	return a.maybeSplitLocked(last)
}

// Insert inserts v at global index i, shifting subsequent elements
// right. i must lie in [0, Len()].
func (a *Array[T]) Insert(i int, v T) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.insertLocked(i, v)
}

func (a *Array[T]) insertLocked(i int, v T) error {
	a.collection.AddFirstBlockIfThereIsNeeded()
	n := a.lenLocked()
	if i < 0 || i > n {
		return errors.Wrap(arrayerrors.NewOutOfRange(op+".Insert", "index out of range"), op+".Insert")
	}

	var blockIndex, offset int
	if i == n {
		blockIndex = a.collection.Count() - 1
		blk, err := a.collection.Get(blockIndex)
		if err != nil {
			return errors.Wrap(err, op+".Insert")
		}
		offset = blk.Len()
	} else {
		info, err := a.index.BlockInfo(i, nil)
		if err != nil {
			return errors.Wrap(err, op+".Insert")
		}
		blockIndex = info.IndexOfBlock
		offset = i - info.CommonStartIndex
	}

	blk, err := a.collection.Get(blockIndex)
	if err != nil {
		return errors.Wrap(err, op+".Insert")
	}
	if err := blk.InsertAt(offset, v); err != nil {
		return errors.Wrap(err, op+".Insert")
	}
	a.index.DataChanged(blockIndex)
	return a.maybeSplitLocked(blockIndex)
}

// InsertRange inserts every element of vs, in order, starting at global
// index i, shifting subsequent elements right. i must lie in
// [0, Len()].
func (a *Array[T]) InsertRange(i int, vs []T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for offset, v := range vs {
		if err := a.insertLocked(i+offset, v); err != nil {
			return errors.Wrap(err, op+".InsertRange")
		}
	}
	return nil
}

// RemoveAt deletes the element at global index i, shifting subsequent
// elements left.
func (a *Array[T]) RemoveAt(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.removeAtLocked(i)
}

func (a *Array[T]) removeAtLocked(i int) error {
	info, err := a.index.BlockInfo(i, nil)
	if err != nil {
		return errors.Wrap(err, op+".RemoveAt")
	}
	blk, err := a.collection.Get(info.IndexOfBlock)
	if err != nil {
		return errors.Wrap(err, op+".RemoveAt")
	}
	if err := blk.RemoveAt(i - info.CommonStartIndex); err != nil {
		return errors.Wrap(err, op+".RemoveAt")
	}

	if blk.IsEmpty() && a.collection.Count() > 1 {
		if err := a.collection.RemoveAt(info.IndexOfBlock); err != nil {
			return errors.Wrap(err, op+".RemoveAt")
		}
		a.index.DataChangedAfterBlockRemoving(info.IndexOfBlock)
		return nil
	}

	a.index.DataChanged(info.IndexOfBlock)
	return nil
}

// RemoveRange deletes the n elements starting at global index i,
// shifting subsequent elements left.
func (a *Array[T]) RemoveRange(i, n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n < 0 {
		return errors.Wrap(arrayerrors.NewOutOfRange(op+".RemoveRange", "count must be non-negative"), op+".RemoveRange")
	}
	for k := 0; k < n; k++ {
		if err := a.removeAtLocked(i); err != nil {
			return errors.Wrap(err, op+".RemoveRange")
		}
	}
	return nil
}

// BlockInfo resolves the block containing global index i, optionally
// narrowed by a caller-supplied search window. A nil window searches
// the whole array.
func (a *Array[T]) BlockInfo(i int, searchWindow *bigrange.Range) (bigrange.BlockInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	info, err := a.index.BlockInfo(i, searchWindow)
	if err != nil {
		return bigrange.BlockInfo{}, errors.Wrap(err, op+".BlockInfo")
	}
	return info, nil
}

// Range returns a copy of the count elements starting at global index.
func (a *Array[T]) Range(index, count int) ([]T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	mbr, err := a.index.MultyblockRange(bigrange.Range{Index: index, Count: count})
	if err != nil {
		return nil, errors.Wrap(err, op+".Range")
	}
	out := make([]T, 0, count)
	for i, br := range mbr.Ranges {
		blk, err := a.collection.Get(mbr.IndexOfStartBlock + i)
		if err != nil {
			return nil, errors.Wrap(err, op+".Range")
		}
		s := blk.Slice()
		out = append(out, s[br.Subindex:br.Subindex+br.Count]...)
	}
	return out, nil
}

// ReverseRange returns a copy of the count elements ending at global
// index last (inclusive), in reverse order.
func (a *Array[T]) ReverseRange(last, count int) ([]T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	mbr, err := a.index.ReverseMultyblockRange(bigrange.Range{Index: last, Count: count})
	if err != nil {
		return nil, errors.Wrap(err, op+".ReverseRange")
	}
	out := make([]T, 0, count)
	for i, br := range mbr.Ranges {
		blk, err := a.collection.Get(mbr.IndexOfStartBlock - i)
		if err != nil {
			return nil, errors.Wrap(err, op+".ReverseRange")
		}
		s := blk.Slice()
		for j := br.Subindex; j > br.Subindex-br.Count; j-- {
			out = append(out, s[j])
		}
	}
	return out, nil
}

// ForEach calls fn for every element in order, stopping early if fn
// returns false.
func (a *Array[T]) ForEach(fn func(index int, v T) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	index := 0
	for _, blk := range a.collection.All() {
		for _, v := range blk.Slice() {
			if !fn(index, v) {
				return
			}
			index++
		}
	}
}

func (a *Array[T]) lenLocked() int {
	total := 0
	for _, blk := range a.collection.All() {
		total += blk.Len()
	}
	return total
}

// maybeSplitLocked calls TryToDivideBlock when the block at blockIndex
// has reached MaxBlockSize, and notifies the index of the resulting
// structural change.
func (a *Array[T]) maybeSplitLocked(blockIndex int) error {
	blk, err := a.collection.Get(blockIndex)
	if err != nil {
		return errors.Wrap(err, op+".maybeSplit")
	}
	if blk.Len() < a.collection.MaxBlockSize() {
		return nil
	}
	log.Infof("bigarray: splitting block %d (len=%d, max=%d)", blockIndex, blk.Len(), a.collection.MaxBlockSize())
	if err := a.collection.TryToDivideBlock(blockIndex); err != nil {
		return errors.Wrap(err, op+".maybeSplit")
	}
	a.index.DataChanged(blockIndex)
	return nil
}
