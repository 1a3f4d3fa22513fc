// Package bigrange holds the plain value records shared by the block
// collection and the array map: logical ranges, per-block position
// descriptors, and their multi-block projections.
package bigrange

// Range denotes a half-open logical range [Index, Index+Count) in the
// big array's global coordinates.
type Range struct {
	Index int
	Count int
}

// BlockInfo describes a block at position IndexOfBlock in the chain,
// whose first element has global index CommonStartIndex, and which
// contains Count elements.
type BlockInfo struct {
	IndexOfBlock     int
	CommonStartIndex int
	Count            int
}

// Contains reports whether global index i falls inside the block
// described by b.
func (b BlockInfo) Contains(i int) bool {
	return i >= b.CommonStartIndex && i < b.CommonStartIndex+b.Count
}

// End returns the global index one past the block's last element.
func (b BlockInfo) End() int {
	return b.CommonStartIndex + b.Count
}

// BlockRange describes, for one block, the sub-range
// [Subindex, Subindex+Count) in block-local coordinates, whose first
// element has global index CommonStartIndex.
type BlockRange struct {
	Subindex         int
	Count            int
	CommonStartIndex int
}

// MultyblockRange describes a contiguous global range projected onto
// consecutive blocks, one BlockRange per touched block, ordered in the
// direction of the query (forward or reverse).
type MultyblockRange struct {
	IndexOfStartBlock int
	Count             int
	Ranges            []BlockRange
}

// CachedCountInfo memoizes the number of globally addressable elements
// covered by the currently-valid prefix of an array map's cache.
type CachedCountInfo struct {
	CachedIndexOfFirstChangedBlock int
	CachedCount                    int
}
