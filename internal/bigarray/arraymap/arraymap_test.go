package arraymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyline93/bigarray/internal/bigarray/balancer"
	"github.com/skyline93/bigarray/internal/bigarray/bigrange"
	"github.com/skyline93/bigarray/internal/bigarray/blockcollection"
)

func newMap(t *testing.T, seed []int, defaultBlockSize, maxBlockSize int) *Map[int] {
	t.Helper()
	coll, err := blockcollection.NewFromSeed(seed, defaultBlockSize, maxBlockSize)
	require.NoError(t, err)
	m, err := New[int](balancer.NoOp{}, coll)
	require.NoError(t, err)
	return m
}

func seedRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestNewRejectsNilCollection(t *testing.T) {
	_, err := New[int](balancer.NoOp{}, nil)
	assert.Error(t, err)
}

func TestBlockInfoResolvesEveryIndex(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	for i := 0; i < 10; i++ {
		info, err := m.BlockInfo(i, nil)
		require.NoError(t, err)
		assert.True(t, info.Contains(i), "index %d not contained by resolved block %+v", i, info)
	}
}

func TestBlockInfoOutOfRange(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	_, err := m.BlockInfo(10, nil)
	assert.Error(t, err)
	_, err = m.BlockInfo(-1, nil)
	assert.Error(t, err)
}

func TestBlockInfoNarrowingHintMismatchIsOutOfRange(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	// Force the whole array into cache first.
	_, err := m.BlockInfo(9, nil)
	require.NoError(t, err)

	_, err = m.BlockInfo(0, &bigrange.Range{Index: 1, Count: 2})
	assert.Error(t, err)
}

func TestGetCachedCountsGrowAsScanProceeds(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	assert.Equal(t, 0, m.GetCachedBlockCount())
	assert.Equal(t, 0, m.GetCachedElementCount())

	_, err := m.BlockInfo(5, nil)
	require.NoError(t, err)

	assert.True(t, m.GetCachedBlockCount() >= 1)
	assert.True(t, m.GetCachedElementCount() >= 4)

	_, err = m.BlockInfo(9, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, m.GetCachedBlockCount())
	assert.Equal(t, 10, m.GetCachedElementCount())
}

func TestDataChangedTruncatesCacheAndAllowsRescan(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	_, err := m.BlockInfo(9, nil)
	require.NoError(t, err)
	require.Equal(t, 3, m.GetCachedBlockCount())

	m.DataChanged(1)
	assert.Equal(t, 1, m.GetCachedBlockCount())

	info, err := m.BlockInfo(9, nil)
	require.NoError(t, err)
	assert.True(t, info.Contains(9))
	assert.Equal(t, 3, m.GetCachedBlockCount())
}

func TestDataChangedAfterBlockRemovingTailMarksRemovedSlotDirty(t *testing.T) {
	coll, err := blockcollection.NewFromSeed(seedRange(8), 4, 8)
	require.NoError(t, err)
	m, err := New[int](balancer.NoOp{}, coll)
	require.NoError(t, err)

	_, err = m.BlockInfo(7, nil)
	require.NoError(t, err)
	require.Equal(t, 2, m.GetCachedBlockCount())

	require.NoError(t, coll.RemoveAt(1))
	m.DataChangedAfterBlockRemoving(1)

	assert.Equal(t, 1, m.GetCachedBlockCount())
	info, err := m.BlockInfo(3, nil)
	require.NoError(t, err)
	assert.True(t, info.Contains(3))
}

func TestMultyblockRangeWithinSingleBlock(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	mbr, err := m.MultyblockRange(bigrange.Range{Index: 1, Count: 2})
	require.NoError(t, err)
	require.Equal(t, 0, mbr.IndexOfStartBlock)
	require.Len(t, mbr.Ranges, 1)
	assert.Equal(t, bigrange.BlockRange{Subindex: 1, Count: 2, CommonStartIndex: 0}, mbr.Ranges[0])
}

func TestMultyblockRangeSpanningBlocks(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	mbr, err := m.MultyblockRange(bigrange.Range{Index: 2, Count: 6})
	require.NoError(t, err)
	require.Equal(t, 0, mbr.IndexOfStartBlock)
	require.Len(t, mbr.Ranges, 2)
	assert.Equal(t, bigrange.BlockRange{Subindex: 2, Count: 2, CommonStartIndex: 0}, mbr.Ranges[0])
	assert.Equal(t, bigrange.BlockRange{Subindex: 0, Count: 4, CommonStartIndex: 4}, mbr.Ranges[1])
}

func TestMultyblockRangeZeroCount(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	mbr, err := m.MultyblockRange(bigrange.Range{Index: 0, Count: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, mbr.IndexOfStartBlock)
	assert.Equal(t, 0, mbr.Count)
	assert.Empty(t, mbr.Ranges)

	mbr, err = m.MultyblockRange(bigrange.Range{Index: 5, Count: 0})
	require.NoError(t, err)
	assert.Equal(t, 4, mbr.IndexOfStartBlock)
}

func TestMultyblockRangeRejectsNegativeCount(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)
	_, err := m.MultyblockRange(bigrange.Range{Index: 0, Count: -1})
	assert.Error(t, err)
}

// flattenForward reconstructs the elements a MultyblockRange covers, by
// reading them directly out of the collection, to check the projection
// against the seed instead of hand-computed expected values.
func flattenForward(t *testing.T, m *Map[int], mbr bigrange.MultyblockRange) []int {
	t.Helper()
	var out []int
	for i, br := range mbr.Ranges {
		blk, err := m.Collection().Get(mbr.IndexOfStartBlock + i)
		require.NoError(t, err)
		s := blk.Slice()
		out = append(out, s[br.Subindex:br.Subindex+br.Count]...)
	}
	return out
}

func TestMultyblockRangeMatchesSeedForAllWindows(t *testing.T) {
	seed := seedRange(23)
	m := newMap(t, seed, 5, 9)

	for index := 0; index < len(seed); index++ {
		for count := 1; index+count <= len(seed); count++ {
			mbr, err := m.MultyblockRange(bigrange.Range{Index: index, Count: count})
			require.NoError(t, err)
			got := flattenForward(t, m, mbr)
			assert.Equal(t, seed[index:index+count], got, "index=%d count=%d", index, count)
		}
	}
}

func TestReverseMultyblockRangeMatchesSeedForAllWindows(t *testing.T) {
	seed := seedRange(23)
	m := newMap(t, seed, 5, 9)

	for last := 0; last < len(seed); last++ {
		for count := 1; count <= last+1; count++ {
			mbr, err := m.ReverseMultyblockRange(bigrange.Range{Index: last, Count: count})
			require.NoError(t, err)

			var got []int
			for i, br := range mbr.Ranges {
				blk, err := m.Collection().Get(mbr.IndexOfStartBlock - i)
				require.NoError(t, err)
				s := blk.Slice()
				for j := br.Subindex; j > br.Subindex-br.Count; j-- {
					got = append(got, s[j])
				}
			}

			want := make([]int, count)
			for i := 0; i < count; i++ {
				want[i] = seed[last-i]
			}
			assert.Equal(t, want, got, "last=%d count=%d", last, count)
		}
	}
}

func TestReverseMultyblockRangeZeroAtZero(t *testing.T) {
	m := newMap(t, seedRange(10), 4, 8)

	mbr, err := m.ReverseMultyblockRange(bigrange.Range{Index: 0, Count: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, mbr.Count)
	assert.Empty(t, mbr.Ranges)
}

func TestInterpolationAndLinearAgreeOnBoundary(t *testing.T) {
	m := newMap(t, seedRange(40), 4, 8)

	// warm the cache for the first half via linear scan.
	_, err := m.BlockInfo(19, nil)
	require.NoError(t, err)

	// now every subsequent lookup within the cached prefix must go
	// through interpolation search and agree with a fresh linear one.
	for i := 0; i < 20; i++ {
		info, err := m.BlockInfo(i, nil)
		require.NoError(t, err)
		assert.True(t, info.Contains(i))
	}

	// and the uncached tail still resolves correctly.
	for i := 20; i < 40; i++ {
		info, err := m.BlockInfo(i, nil)
		require.NoError(t, err)
		assert.True(t, info.Contains(i))
	}
}
