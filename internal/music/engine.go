package music

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/oto/v2"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

const (
	SampleRate   = 44100
	ChannelCount = 2
	BitDepth     = 0 // 32-bit float (oto.FormatFloat32LE)
)

// ErrUnavailable reports that no audio device could be opened. The
// caller continues without sound; nothing else in the system depends
// on a working output.
var ErrUnavailable = errors.New("music: audio output unavailable")

// Engine is the generative music engine: one explicit struct owning
// the oto context, the voice pool, and the mix graph. Constructed per
// use-site and passed by reference; there is no ambient singleton.
// Lifecycle: NewEngine → Start → ... → Dispose.
type Engine struct {
	ctx    *oto.Context
	ready  chan struct{}
	player oto.Player

	graphMu sync.Mutex
	graph   *MixGraph
	pool    *VoicePool

	// Audio clock: rendered samples / SampleRate, in float64 bits.
	// The playback position is the only clock audio events are timed
	// against; wallclock never touches ramp evaluation.
	clockBits atomic.Uint64

	// Loopback tap: most recent master-bus mono samples, for the
	// reactive analyzer. Single writer (render), guarded copy out.
	tapMu  sync.Mutex
	tap    []float64
	tapPos int

	started  bool
	disposed bool
}

// NewEngine opens the audio device and builds the graph and pool.
// seed drives the steal choice and nothing else here.
func NewEngine(seed uint64) (*Engine, error) {
	ctx, ready, err := oto.NewContext(SampleRate, ChannelCount, BitDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	e := &Engine{
		ctx:   ctx,
		ready: ready,
		graph: newMixGraph(SampleRate),
		pool:  NewVoicePool(spiral.NewRand(seed)),
		tap:   make([]float64, 4096),
	}
	return e, nil
}

// newSilentEngine builds an engine with no output device, for tests.
func newSilentEngine(seed uint64) *Engine {
	return &Engine{
		graph: newMixGraph(SampleRate),
		pool:  NewVoicePool(spiral.NewRand(seed)),
		tap:   make([]float64, 4096),
	}
}

// Graph exposes the mix graph's named control points.
func (e *Engine) Graph() *MixGraph { return e.graph }

// Pool exposes the voice pool (the scheduler claims voices from it).
func (e *Engine) Pool() *VoicePool { return e.pool }

// Now returns the audio clock in seconds.
func (e *Engine) Now() float64 {
	return math.Float64frombits(e.clockBits.Load())
}

func (e *Engine) setNow(t float64) {
	e.clockBits.Store(math.Float64bits(t))
}

// lockGraph serializes scheduler access against the render loop.
func (e *Engine) lockGraph()   { e.graphMu.Lock() }
func (e *Engine) unlockGraph() { e.graphMu.Unlock() }

// Start begins playback once the device context is ready. Returns
// true when the player is running; callers may retry while the
// context is still initializing. A disposed engine refuses to start
// again, so a late retry can never resurrect playback.
func (e *Engine) Start() bool {
	if e.disposed {
		return false
	}
	if e.started {
		return true
	}
	if e.ctx == nil {
		return false
	}
	select {
	case <-e.ready:
	default:
		return false
	}
	e.player = e.ctx.NewPlayer(e)
	e.player.Play()
	e.started = true
	return true
}

// Dispose stops playback and releases the device player. No render
// callback runs after Dispose returns, and Start is permanently
// refused.
func (e *Engine) Dispose() {
	if e.player != nil {
		e.player.Close()
		e.player = nil
	}
	e.started = false
	e.disposed = true
}

// Read renders the master bus. Implements io.Reader over interleaved
// stereo float32 LE frames, the format the oto player consumes.
func (e *Engine) Read(p []byte) (int, error) {
	samples := len(p) / 8
	if samples == 0 {
		return 0, nil
	}
	e.renderBlock(p, samples)
	return samples * 8, nil
}

// renderBlock synthesizes n frames starting at the current clock.
func (e *Engine) renderBlock(p []byte, n int) {
	const dt = 1.0 / SampleRate
	t := e.Now()

	e.graphMu.Lock()
	e.graph.pruneAutomation(t)
	e.tapMu.Lock()
	for i := 0; i < n; i++ {
		var layers [numLayers]float64
		e.pool.sampleAll(&layers, t, dt)
		s := softSat(e.graph.process(layers, t))
		putStereoF32(p, i, s)

		e.tap[e.tapPos] = s
		e.tapPos = (e.tapPos + 1) % len(e.tap)
		t += dt
	}
	e.tapMu.Unlock()
	e.graphMu.Unlock()

	e.setNow(t)
}

// Tap copies the most recent len(dst) master-bus samples in playback
// order. Returns the number copied.
func (e *Engine) Tap(dst []float64) int {
	e.tapMu.Lock()
	defer e.tapMu.Unlock()
	n := len(dst)
	if n > len(e.tap) {
		n = len(e.tap)
	}
	start := e.tapPos - n
	for i := 0; i < n; i++ {
		idx := start + i
		if idx < 0 {
			idx += len(e.tap)
		}
		dst[i] = e.tap[idx%len(e.tap)]
	}
	return n
}

// softSat applies gentle saturation instead of hard clipping. Cubic
// inside [-1,1], asymptotic to ±1 outside, continuous at the seam.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 2.0/3.0 + (1.0-1.0/x)/3.0
	}
	if x < -1.0 {
		return -2.0/3.0 - (1.0-1.0/(-x))/3.0
	}
	return x - x*x*x/3.0
}

// putStereoF32 writes a [-1,1] sample as float32 LE to both stereo
// channels at frame i.
func putStereoF32(buf []byte, i int, sample float64) {
	v := math.Float32bits(float32(sample))
	buf[i*8] = byte(v)
	buf[i*8+1] = byte(v >> 8)
	buf[i*8+2] = byte(v >> 16)
	buf[i*8+3] = byte(v >> 24)
	buf[i*8+4] = byte(v)
	buf[i*8+5] = byte(v >> 8)
	buf[i*8+6] = byte(v >> 16)
	buf[i*8+7] = byte(v >> 24)
}
