// Package arraymap implements the index→block resolver: a lazily
// built, mutex-guarded prefix-sum cache over a blockcollection.Collection,
// answering (global index → block) and (global range → per-block
// ranges) queries via interpolation search over the cached prefix and
// linear scan with lazy caching beyond it.
//
// One exclusive lock guards every public operation, including reads,
// and a "dirty from here on" watermark distinguishes valid cache
// entries from stale ones.
package arraymap

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/skyline93/bigarray/internal/bigarray/arrayerrors"
	"github.com/skyline93/bigarray/internal/bigarray/balancer"
	"github.com/skyline93/bigarray/internal/bigarray/bigrange"
	"github.com/skyline93/bigarray/internal/bigarray/blockcollection"
)

// NoChanges is the sentinel value of indexOfFirstChangedBlock meaning
// the entire cache is current.
const NoChanges = -1

// invalidCount is the sentinel value of a CachedCountInfo meaning the
// memo is stale.
const invalidCount = -2

const op = "arraymap"

// Map maintains the lazily-built prefix-sum cache over a
// blockcollection.Collection and answers index/range queries about it.
// Every public operation acquires m's lock for its entire duration.
type Map[T any] struct {
	mu sync.Mutex

	collection *blockcollection.Collection[T]
	balancer   balancer.Balancer

	blocksInfoList           []bigrange.BlockInfo
	indexOfFirstChangedBlock int
	cachedCountInfo          bigrange.CachedCountInfo
}

// New constructs an ArrayMap for collection. balancer is accepted and
// stored but not consulted by any algorithm here. If
// collection is already non-empty, the map starts fully dirty from
// block 0.
func New[T any](bal balancer.Balancer, collection *blockcollection.Collection[T]) (*Map[T], error) {
	if collection == nil {
		return nil, arrayerrors.NewContractViolation(op+".New", "collection must not be nil")
	}
	m := &Map[T]{
		collection:               collection,
		balancer:                 bal,
		indexOfFirstChangedBlock: NoChanges,
		cachedCountInfo:          bigrange.CachedCountInfo{CachedIndexOfFirstChangedBlock: invalidCount, CachedCount: invalidCount},
	}
	if collection.Count() > 0 {
		m.indexOfFirstChangedBlock = 0
		m.cachedCountInfo.CachedIndexOfFirstChangedBlock = invalidCount
	}
	return m, nil
}

// Balancer returns the balancer supplied at construction.
func (m *Map[T]) Balancer() balancer.Balancer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balancer
}

// Collection returns the block collection this map indexes.
func (m *Map[T]) Collection() *blockcollection.Collection[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collection
}

// DataChanged notifies the map that block blockIndex's content changed
// (its length or position may now be stale in the cache). Callers
// guarantee 0 <= blockIndex < collection.Count().
func (m *Map[T]) DataChanged(blockIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataChangedLocked(blockIndex)
}

func (m *Map[T]) dataChangedLocked(blockIndex int) {
	if m.indexOfFirstChangedBlock == NoChanges || blockIndex < m.indexOfFirstChangedBlock {
		m.indexOfFirstChangedBlock = blockIndex
	}
	m.invalidateCountMemo()
	log.Debugf("arraymap: block %d marked dirty, indexOfFirstChangedBlock=%d", blockIndex, m.indexOfFirstChangedBlock)
}

// DataChangedAfterBlockRemoving notifies the map that the block chain's
// entry at blockIndex is gone: every position at or after blockIndex may
// now describe the wrong block, whether because a block shifted into
// that slot or because it was the tail and no replacement exists. It
// marks the same dirty watermark DataChanged would, so a later scan
// truncates the stale suffix of the cache rather than trusting it.
func (m *Map[T]) DataChangedAfterBlockRemoving(blockIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataChangedLocked(blockIndex)
}

func (m *Map[T]) invalidateCountMemo() {
	m.cachedCountInfo = bigrange.CachedCountInfo{CachedIndexOfFirstChangedBlock: invalidCount, CachedCount: invalidCount}
}

// GetCachedBlockCount returns the length of the currently valid cache
// prefix.
func (m *Map[T]) GetCachedBlockCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cachedBlockCountLocked()
}

func (m *Map[T]) cachedBlockCountLocked() int {
	if m.indexOfFirstChangedBlock == NoChanges {
		return len(m.blocksInfoList)
	}
	return m.indexOfFirstChangedBlock
}

// GetCachedElementCount returns the number of globally addressable
// elements covered by the currently-valid prefix of the cache, per the
// four-branch memo rule for the cache's valid-prefix element count.
func (m *Map[T]) GetCachedElementCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cachedElementCountLocked()
}

func (m *Map[T]) cachedElementCountLocked() int {
	if m.cachedCountInfo.CachedIndexOfFirstChangedBlock == m.indexOfFirstChangedBlock {
		return m.cachedCountInfo.CachedCount
	}

	var count int
	switch {
	case m.indexOfFirstChangedBlock == NoChanges:
		if m.collection.Count() == 0 {
			count = 0
		} else {
			last := m.blocksInfoList[len(m.blocksInfoList)-1]
			count = last.End()
		}
	case m.indexOfFirstChangedBlock == 0:
		count = 0
	default:
		entry := m.blocksInfoList[m.indexOfFirstChangedBlock-1]
		count = entry.End()
	}

	m.cachedCountInfo = bigrange.CachedCountInfo{
		CachedIndexOfFirstChangedBlock: m.indexOfFirstChangedBlock,
		CachedCount:                    count,
	}
	return count
}

// truncateCacheLocked drops any obsolete tail of blocksInfoList, i.e.
// everything at or beyond indexOfFirstChangedBlock.
func (m *Map[T]) truncateCacheLocked() {
	if m.indexOfFirstChangedBlock == NoChanges {
		return
	}
	if m.indexOfFirstChangedBlock < len(m.blocksInfoList) {
		m.blocksInfoList = m.blocksInfoList[:m.indexOfFirstChangedBlock]
	}
}

// BlockInfo returns the BlockInfo for the block containing global
// index. searchBlockRange, when non-nil, narrows the search to a
// window of block positions; it is a performance hint only — if index
// does not actually fall inside the window, the call fails.
func (m *Map[T]) BlockInfo(index int, searchBlockRange *bigrange.Range) (bigrange.BlockInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blockInfoLocked(index, searchBlockRange)
}

func (m *Map[T]) blockInfoLocked(index int, searchBlockRange *bigrange.Range) (bigrange.BlockInfo, error) {
	window := bigrange.Range{Index: 0, Count: m.collection.Count()}
	if searchBlockRange != nil {
		window = *searchBlockRange
	}
	if window.Index < 0 || window.Count < 0 || window.Index+window.Count > m.collection.Count() {
		return bigrange.BlockInfo{}, arrayerrors.NewOutOfRange(op+".BlockInfo", "searchBlockRange outside [0, collection.Count())")
	}

	if index < m.cachedElementCountLocked() {
		return m.interpolationSearchLocked(index, window)
	}
	return m.linearScanLocked(index, window)
}

// interpolationSearchLocked runs interpolation search over the valid
// cache prefix, within [lo, hi] clamped to the search window and the
// cached prefix.
func (m *Map[T]) interpolationSearchLocked(index int, window bigrange.Range) (bigrange.BlockInfo, error) {
	lo := window.Index
	hi := window.Index + window.Count - 1
	if cachedHi := m.cachedBlockCountLocked() - 1; hi > cachedHi {
		hi = cachedHi
	}
	if lo > hi {
		return bigrange.BlockInfo{}, arrayerrors.NewOutOfRange(op+".BlockInfo", "index does not fall inside searchBlockRange")
	}

	firstIteration := true
	for lo <= hi {
		s := m.blocksInfoList[lo]
		e := m.blocksInfoList[hi]
		startIdx := s.CommonStartIndex
		endIdx := e.CommonStartIndex + e.Count - 1

		if firstIteration {
			if index < startIdx || index > endIdx {
				return bigrange.BlockInfo{}, arrayerrors.NewOutOfRange(op+".BlockInfo", "index does not fall inside searchBlockRange")
			}
			firstIteration = false
		}

		var probe int
		if index == s.CommonStartIndex {
			probe = s.IndexOfBlock
		} else {
			span := endIdx - startIdx + 1
			width := e.IndexOfBlock - s.IndexOfBlock + 1
			probe = lo + int(float64(index-startIdx)*float64(width)/float64(span))
		}
		if probe < lo {
			probe = lo
		}
		if probe > hi {
			probe = hi
		}

		b := m.blocksInfoList[probe]
		switch {
		case index < b.CommonStartIndex:
			hi = probe - 1
		case index >= b.End():
			lo = probe + 1
		default:
			return b, nil
		}
	}

	return bigrange.BlockInfo{}, arrayerrors.NewInternalInvariantViolation(op+".BlockInfo", "interpolation search terminated without a match")
}

// linearScanLocked runs a linear scan with lazy caching; precondition index >=
// GetCachedElementCount().
func (m *Map[T]) linearScanLocked(index int, window bigrange.Range) (bigrange.BlockInfo, error) {
	start, err := m.startBlockInfoForLinearLocked()
	if err != nil {
		return bigrange.BlockInfo{}, err
	}
	if start.Contains(index) {
		return start, nil
	}

	limit := window.Index + window.Count - 1
	commonStartIndex := start.End()
	for i := start.IndexOfBlock + 1; i <= limit; i++ {
		blk, err := m.collection.Get(i)
		if err != nil {
			return bigrange.BlockInfo{}, errors.Wrap(err, op+".BlockInfo")
		}
		length := blk.Len()
		entry := bigrange.BlockInfo{IndexOfBlock: i, CommonStartIndex: commonStartIndex, Count: length}
		m.blocksInfoList = append(m.blocksInfoList, entry)

		if commonStartIndex <= index && index < commonStartIndex+length {
			if i == m.collection.Count()-1 {
				m.indexOfFirstChangedBlock = NoChanges
			} else {
				m.indexOfFirstChangedBlock = i + 1
			}
			m.invalidateCountMemo()
			log.Debugf("arraymap: linear scan extended cache to block %d for index %d", i, index)
			return entry, nil
		}
		commonStartIndex += length
	}

	return bigrange.BlockInfo{}, arrayerrors.NewOutOfRange(op+".BlockInfo", "index out of range")
}

// startBlockInfoForLinearLocked implements
// the starting point for a linear scan.
func (m *Map[T]) startBlockInfoForLinearLocked() (bigrange.BlockInfo, error) {
	m.truncateCacheLocked()

	if len(m.blocksInfoList) == 0 {
		blk, err := m.collection.Get(0)
		if err != nil {
			return bigrange.BlockInfo{}, errors.Wrap(err, op+".BlockInfo")
		}
		entry := bigrange.BlockInfo{IndexOfBlock: 0, CommonStartIndex: 0, Count: blk.Len()}
		m.blocksInfoList = append(m.blocksInfoList, entry)
		if m.collection.Count() == 1 {
			m.indexOfFirstChangedBlock = NoChanges
		} else {
			m.indexOfFirstChangedBlock = 1
		}
		m.invalidateCountMemo()
		return entry, nil
	}

	return m.blocksInfoList[len(m.blocksInfoList)-1], nil
}

// MultyblockRange projects the global range described by calcRange
// onto the block chain, producing one BlockRange per touched block, in
// forward block order.
func (m *Map[T]) MultyblockRange(calcRange bigrange.Range) (bigrange.MultyblockRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.multyblockRangeLocked(calcRange)
}

func (m *Map[T]) multyblockRangeLocked(calcRange bigrange.Range) (bigrange.MultyblockRange, error) {
	if calcRange.Count < 0 {
		return bigrange.MultyblockRange{}, arrayerrors.NewOutOfRange(op+".MultyblockRange", "count must be non-negative")
	}

	if calcRange.Count == 0 {
		startIndex := 0
		if calcRange.Index != 0 {
			b, err := m.blockInfoLocked(calcRange.Index, nil)
			if err != nil {
				return bigrange.MultyblockRange{}, err
			}
			startIndex = b.CommonStartIndex
		}
		return bigrange.MultyblockRange{IndexOfStartBlock: startIndex, Count: 0, Ranges: nil}, nil
	}

	startBlock, err := m.blockInfoLocked(calcRange.Index, nil)
	if err != nil {
		return bigrange.MultyblockRange{}, err
	}
	lastGlobalIndex := calcRange.Index + calcRange.Count - 1
	hint := &bigrange.Range{Index: startBlock.IndexOfBlock, Count: m.collection.Count() - startBlock.IndexOfBlock}
	endBlock, err := m.blockInfoLocked(lastGlobalIndex, hint)
	if err != nil {
		return bigrange.MultyblockRange{}, err
	}

	ranges := make([]bigrange.BlockRange, 0, endBlock.IndexOfBlock-startBlock.IndexOfBlock+1)
	currentStartIndex := startBlock.CommonStartIndex
	for i := startBlock.IndexOfBlock; i <= endBlock.IndexOfBlock; i++ {
		blk, err := m.collection.Get(i)
		if err != nil {
			return bigrange.MultyblockRange{}, errors.Wrap(err, op+".MultyblockRange")
		}
		count := blk.Len()

		startSub := 0
		if i == startBlock.IndexOfBlock {
			if s := calcRange.Index - currentStartIndex; s > 0 {
				startSub = s
			}
		}
		rangeCount := count - startSub
		if remaining := lastGlobalIndex - currentStartIndex - startSub + 1; remaining < rangeCount {
			rangeCount = remaining
		}
		if rangeCount >= 0 {
			ranges = append(ranges, bigrange.BlockRange{Subindex: startSub, Count: rangeCount, CommonStartIndex: currentStartIndex})
		}
		currentStartIndex += count
	}

	return bigrange.MultyblockRange{IndexOfStartBlock: startBlock.IndexOfBlock, Count: len(ranges), Ranges: ranges}, nil
}

// ReverseMultyblockRange interprets calcRange.Index as the last
// (inclusive) element of the range and calcRange.Count as its length
// walking backward. The emitted BlockRanges are in reverse block
// order; within each, Subindex points at the last element of that
// block's contribution.
func (m *Map[T]) ReverseMultyblockRange(calcRange bigrange.Range) (bigrange.MultyblockRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var direct int
	if calcRange.Index == 0 && calcRange.Count == 0 {
		direct = 0
	} else {
		direct = calcRange.Index - calcRange.Count + 1
	}

	forward, err := m.multyblockRangeLocked(bigrange.Range{Index: direct, Count: calcRange.Count})
	if err != nil {
		return bigrange.MultyblockRange{}, err
	}

	reversed := make([]bigrange.BlockRange, len(forward.Ranges))
	for i, r := range forward.Ranges {
		reversed[len(forward.Ranges)-1-i] = bigrange.BlockRange{
			Subindex:         r.Subindex + r.Count - 1,
			Count:            r.Count,
			CommonStartIndex: r.CommonStartIndex,
		}
	}

	indexOfStartBlock := forward.IndexOfStartBlock + forward.Count - 1
	if indexOfStartBlock < 0 {
		indexOfStartBlock = 0
	}

	return bigrange.MultyblockRange{IndexOfStartBlock: indexOfStartBlock, Count: forward.Count, Ranges: reversed}, nil
}
