package spiral

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func labeledSegment(i int) Segment {
	return Segment{X1: float32(i), Y1: float32(i), X2: float32(i + 1)}
}

func TestSegmentBufferCapacityInvariant(t *testing.T) {
	b := NewSegmentBuffer(16)
	for i := 0; i < 1000; i++ {
		b.Append(labeledSegment(i))
		require.LessOrEqual(t, b.Count(), b.Capacity(), "count must never exceed capacity")
	}
}

func TestSegmentBufferOverflowEviction(t *testing.T) {
	b := NewSegmentBuffer(10)
	for i := 0; i < 15; i++ {
		b.Append(labeledSegment(i))
	}
	// Retained segments must be a contiguous suffix of the appended
	// labels, in original order. With N=10 the 11th append evicts the
	// oldest 5, leaving 5..10, and 11..14 follow.
	segs := b.All()
	require.NotEmpty(t, segs)
	first := int(segs[0].X1)
	for i, s := range segs {
		require.Equal(t, float32(first+i), s.X1, "retained segments must stay contiguous and ordered")
	}
	require.Equal(t, float32(14), segs[len(segs)-1].X1, "newest segment must survive eviction")
	require.Equal(t, 10, b.Count())
}

func TestSegmentBufferEvictionKeepsRecentHalf(t *testing.T) {
	b := NewSegmentBuffer(8)
	for i := 0; i < 8; i++ {
		b.Append(labeledSegment(i))
	}
	b.Append(labeledSegment(8))
	// Eviction dropped 0..3; 4..8 remain.
	require.Equal(t, 5, b.Count())
	require.Equal(t, float32(4), b.All()[0].X1)
	require.Equal(t, float32(8), b.All()[4].X1)
}

func TestSegmentBufferDrain(t *testing.T) {
	b := NewSegmentBuffer(100)
	for i := 0; i < 5; i++ {
		b.Append(labeledSegment(i))
	}
	first := b.Drain()
	require.Len(t, first, 5)
	require.Empty(t, b.Drain(), "second drain without appends returns nothing")

	b.Append(labeledSegment(5))
	b.Append(labeledSegment(6))
	second := b.Drain()
	require.Len(t, second, 2)
	require.Equal(t, float32(5), second[0].X1)
}

func TestSegmentBufferDrainAcrossEviction(t *testing.T) {
	b := NewSegmentBuffer(10)
	for i := 0; i < 10; i++ {
		b.Append(labeledSegment(i))
	}
	b.Drain() // everything drawn
	// Overflow shifts storage; the drain cursor must follow.
	b.Append(labeledSegment(10))
	got := b.Drain()
	require.Len(t, got, 1)
	require.Equal(t, float32(10), got[0].X1)
}

func TestSegmentBufferResetIdempotent(t *testing.T) {
	b := NewSegmentBuffer(10)
	for i := 0; i < 7; i++ {
		b.Append(labeledSegment(i))
	}
	b.Reset()
	require.Equal(t, 0, b.Count())
	b.Reset()
	require.Equal(t, 0, b.Count())
	require.Empty(t, b.Drain())
}

func TestSegmentBufferDirtyFlag(t *testing.T) {
	b := NewSegmentBuffer(10)
	require.False(t, b.Dirty())
	b.Append(labeledSegment(0))
	require.True(t, b.Dirty())
	b.ClearDirty()
	require.False(t, b.Dirty())
}
