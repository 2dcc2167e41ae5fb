package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_AcquireZeroInitialized(t *testing.T) {
	p := NewPool()
	h, ok := p.Acquire()
	require.True(t, ok)

	rec := p.Get(h)
	require.NotNil(t, rec)
	require.Equal(t, OrderID(0), rec.ID)
	require.Equal(t, Quantity(0), rec.Quantity)
	require.Equal(t, NilHandle, rec.Next())
	require.Equal(t, NilHandle, rec.Prev())
}

func TestPool_ReleaseThenReuse(t *testing.T) {
	p := NewPool(WithSlabSize(4))

	h1, _ := p.Acquire()
	rec := p.Get(h1)
	rec.ID = 42
	rec.Quantity = 10

	p.Release(h1)

	stats := p.Stats()
	require.Equal(t, 0, stats.Live)
	require.Equal(t, 1, stats.FreeListLen)

	h2, ok := p.Acquire()
	require.True(t, ok)
	require.Equal(t, h1, h2, "free list is LIFO, so the freed handle is handed back first")

	rec2 := p.Get(h2)
	require.Equal(t, OrderID(0), rec2.ID, "reused record must be zero-initialized")
}

func TestPool_GrowsWhenSlabExhausted(t *testing.T) {
	p := NewPool(WithSlabSize(2))

	var handles []Handle
	for i := 0; i < 10; i++ {
		h, ok := p.Acquire()
		require.True(t, ok)
		handles = append(handles, h)
	}

	stats := p.Stats()
	require.Equal(t, 10, stats.Live)
	require.Greater(t, stats.Slabs, 1)
	require.GreaterOrEqual(t, stats.SlabSize, 10)

	// Indices handed out before growth must still resolve to the
	// correct, independent records after the backing array moved.
	for i, h := range handles {
		rec := p.Get(h)
		rec.ID = OrderID(i)
	}
	for i, h := range handles {
		require.Equal(t, OrderID(i), p.Get(h).ID)
	}
}

func TestPool_ReleaseNilHandleIsNoOp(t *testing.T) {
	p := NewPool()
	p.Release(NilHandle)
	require.Equal(t, 0, p.Stats().Live)
}

func TestPool_FreeListReuseAfterManyReleases(t *testing.T) {
	p := NewPool(WithSlabSize(8))

	const n = 5
	handles := make([]Handle, n)
	for i := range handles {
		handles[i], _ = p.Acquire()
	}
	for _, h := range handles {
		p.Release(h)
	}

	before := p.Stats()
	require.Equal(t, n, before.FreeListLen)

	for i := 0; i < n; i++ {
		_, ok := p.Acquire()
		require.True(t, ok)
	}

	after := p.Stats()
	require.Equal(t, 0, after.FreeListLen, "N releases must satisfy the next N acquires from the free list")
	require.Equal(t, before.Slabs, after.Slabs, "reuse must not trigger a grow")
}
