package spiral

// Segment is one immutable line piece. Alpha is deliberately not per
// segment: all segments drawn in one pass share one material alpha,
// updated per frame by the renderer.
type Segment struct {
	X1, Y1  float32
	X2, Y2  float32
	R, G, B float32
}

// SegmentBuffer is a fixed-capacity append store in insertion order
// (= temporal order = draw order). On overflow the oldest half is
// evicted and the remainder shifts to index 0: amortized O(1) appends
// at the cost of a periodic O(N) compaction, favoring recency.
type SegmentBuffer struct {
	segs    []Segment
	cap     int
	drained int // index of the first segment not yet drawn
	dirty   bool
}

// NewSegmentBuffer allocates a buffer holding at most capacity
// segments. The backing array is allocated once and reused.
func NewSegmentBuffer(capacity int) *SegmentBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &SegmentBuffer{
		segs: make([]Segment, 0, capacity),
		cap:  capacity,
	}
}

// Append stores a segment. Never fails: when full, the oldest cap/2
// entries are evicted first (documented data loss, not a fault).
func (b *SegmentBuffer) Append(s Segment) {
	if len(b.segs) == b.cap {
		half := b.cap / 2
		n := copy(b.segs, b.segs[half:])
		b.segs = b.segs[:n]
		b.drained -= half
		if b.drained < 0 {
			b.drained = 0
		}
	}
	b.segs = append(b.segs, s)
	b.dirty = true
}

// Count reports the number of retained segments.
func (b *SegmentBuffer) Count() int { return len(b.segs) }

// Capacity reports the fixed capacity N.
func (b *SegmentBuffer) Capacity() int { return b.cap }

// All returns the retained segments in insertion order. The slice
// aliases internal storage and is invalidated by the next Append.
func (b *SegmentBuffer) All() []Segment { return b.segs }

// Drain returns the segments appended since the previous Drain and
// marks them consumed. The renderer draws only these each frame so
// GPU cost scales with new segments, not total history.
func (b *SegmentBuffer) Drain() []Segment {
	if b.drained >= len(b.segs) {
		return nil
	}
	out := b.segs[b.drained:]
	b.drained = len(b.segs)
	return out
}

// Dirty reports whether the contents changed since ClearDirty.
func (b *SegmentBuffer) Dirty() bool { return b.dirty }

// ClearDirty acknowledges a completed upload.
func (b *SegmentBuffer) ClearDirty() { b.dirty = false }

// Reset drops all segments without deallocating backing storage.
func (b *SegmentBuffer) Reset() {
	b.segs = b.segs[:0]
	b.drained = 0
	b.dirty = true
}
