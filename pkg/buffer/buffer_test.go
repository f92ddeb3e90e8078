package buffer_test

import (
	"testing"

	"github.com/calvinalkan/containers/pkg/buffer"
	"github.com/calvinalkan/containers/pkg/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_PushBackGrowable(t *testing.T) {
	b := buffer.New[int](0, false)
	for i := 0; i < 20; i++ {
		idx, err := b.PushBack(i)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, 20, b.Count())
	v, err := b.At(19)
	require.NoError(t, err)
	assert.Equal(t, 19, *v)
}

func TestBuffer_FixedNoAllocFailsOnOverflow(t *testing.T) {
	b := buffer.New[int](4, true)
	for i := 0; i < 4; i++ {
		_, err := b.PushBack(i)
		require.NoError(t, err)
	}
	_, err := b.PushBack(4)
	assert.ErrorIs(t, err, entry.ErrNoAlloc)
	assert.Equal(t, 4, b.Count())
}

func TestBuffer_InsertAndErase(t *testing.T) {
	b := buffer.New[string](0, false)
	for _, s := range []string{"a", "b", "d"} {
		_, err := b.PushBack(s)
		require.NoError(t, err)
	}
	require.NoError(t, b.Insert(2, "c"))
	got := collect(b)
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)

	require.NoError(t, b.Erase(0))
	got = collect(b)
	assert.Equal(t, []string{"b", "c", "d"}, got)
}

func TestBuffer_PopBackAndPopBackN(t *testing.T) {
	b := buffer.New[int](0, false)
	for i := 1; i <= 5; i++ {
		_, _ = b.PushBack(i)
	}
	v, err := b.PopBack()
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	require.NoError(t, b.PopBackN(10))
	assert.Equal(t, 0, b.Count())
}

func TestBuffer_SwapAndMove(t *testing.T) {
	b := buffer.New[int](0, false)
	for i := 0; i < 5; i++ {
		_, _ = b.PushBack(i)
	}
	require.NoError(t, b.Swap(0, 4))
	assert.Equal(t, []int{4, 1, 2, 3, 0}, collect(b))

	require.NoError(t, b.Move(0, 4))
	assert.Equal(t, []int{0, 4, 1, 2, 3}, collect(b))
}

func TestBuffer_IndexOf(t *testing.T) {
	b := buffer.New[int](0, false)
	for i := 0; i < 5; i++ {
		_, _ = b.PushBack(i * 10)
	}
	p, err := b.At(3)
	require.NoError(t, err)
	i, ok := b.IndexOf(p)
	require.True(t, ok)
	assert.Equal(t, 3, i)

	var other int
	_, ok = b.IndexOf(&other)
	assert.False(t, ok)
}

func TestBuffer_ClearAndFree(t *testing.T) {
	growable := buffer.New[int](8, false)
	_, _ = growable.PushBack(1)
	require.NoError(t, growable.ClearAndFree(nil))
	assert.Equal(t, 0, growable.Count())

	fixed := buffer.New[int](8, true)
	assert.ErrorIs(t, fixed.ClearAndFree(nil), entry.ErrArg)
}

func TestBuffer_ClearInvokesDestroy(t *testing.T) {
	b := buffer.New[int](0, false)
	for i := 0; i < 3; i++ {
		_, _ = b.PushBack(i)
	}
	var destroyed []int
	b.Clear(func(v *int) { destroyed = append(destroyed, *v) })
	assert.Equal(t, []int{0, 1, 2}, destroyed)
	assert.Equal(t, 0, b.Count())
}

func TestBuffer_Copy(t *testing.T) {
	src := buffer.New[int](0, false)
	for i := 0; i < 3; i++ {
		_, _ = src.PushBack(i)
	}
	dst := buffer.New[int](0, false)
	require.NoError(t, dst.Copy(src))
	assert.Equal(t, collect(src), collect(dst))

	fixedTooSmall := buffer.New[int](1, true)
	assert.ErrorIs(t, fixedTooSmall.Copy(src), entry.ErrNoAlloc)
}

func collect[T any](b *buffer.Buffer[T]) []T {
	var out []T
	for _, v := range b.All() {
		out = append(out, *v)
	}
	return out
}
