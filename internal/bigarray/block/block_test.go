package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockNewIsEmpty(t *testing.T) {
	b := New[int](4)
	assert.Equal(t, 0, b.Len())
	assert.True(t, b.IsEmpty())
}

func TestBlockCapReflectsCapacityHint(t *testing.T) {
	b := New[int](4)
	assert.Equal(t, 4, b.Cap())

	b.Append(1)
	b.Append(2)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 4, b.Cap())
}

func TestBlockCapGrowsPastHintOnOverflow(t *testing.T) {
	b := New[int](1)
	b.Append(1)
	b.Append(2)
	assert.Equal(t, 2, b.Len())
	assert.True(t, b.Cap() >= b.Len())
}

func TestBlockFromSlice(t *testing.T) {
	src := []int{1, 2, 3}
	b := FromSlice(src, 8)
	require.Equal(t, 3, b.Len())

	// mutating src afterward must not affect the block's copy.
	src[0] = 99
	v, err := b.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestBlockAppendAndGet(t *testing.T) {
	b := New[string](0)
	b.Append("a")
	b.Append("b")
	b.AppendAll([]string{"c", "d"})

	require.Equal(t, 4, b.Len())
	for i, want := range []string{"a", "b", "c", "d"} {
		v, err := b.Get(i)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestBlockGetOutOfRange(t *testing.T) {
	b := New[int](0)
	_, err := b.Get(0)
	assert.Error(t, err)

	b.Append(1)
	_, err = b.Get(-1)
	assert.Error(t, err)
	_, err = b.Get(1)
	assert.Error(t, err)
}

func TestBlockSet(t *testing.T) {
	b := FromSlice([]int{1, 2, 3}, 0)
	require.NoError(t, b.Set(1, 20))
	v, _ := b.Get(1)
	assert.Equal(t, 20, v)

	assert.Error(t, b.Set(3, 0))
}

func TestBlockInsertAt(t *testing.T) {
	b := FromSlice([]int{1, 2, 4}, 0)
	require.NoError(t, b.InsertAt(2, 3))
	assert.Equal(t, []int{1, 2, 3, 4}, b.Slice())

	require.NoError(t, b.InsertAt(0, 0))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, b.Slice())

	require.NoError(t, b.InsertAt(b.Len(), 5))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, b.Slice())

	assert.Error(t, b.InsertAt(-1, 0))
	assert.Error(t, b.InsertAt(b.Len()+1, 0))
}

func TestBlockRemoveAt(t *testing.T) {
	b := FromSlice([]int{1, 2, 3}, 0)
	require.NoError(t, b.RemoveAt(1))
	assert.Equal(t, []int{1, 3}, b.Slice())

	assert.Error(t, b.RemoveAt(2))
}

func TestBlockCopyTo(t *testing.T) {
	b := FromSlice([]int{1, 2, 3}, 0)
	dst := make([]int, 2)
	n := b.CopyTo(dst)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{1, 2}, dst)
}
