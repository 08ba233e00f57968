package spiral

import (
	"math"
	"sync/atomic"
	"time"
)

// AnimState is the animator's lifecycle state.
type AnimState int

const (
	StateIdle AnimState = iota
	StateRunning
)

// Animator advances curve state, appends segments, and decides when a
// frame should be drawn. It runs entirely on the caller's display
// loop; the cross-goroutine inputs are the reactive override and the
// beat pulse, both published by the audio domain and read once per
// step.
type Animator struct {
	cfg   Config
	state AnimState
	curve CurveState
	buf   *SegmentBuffer
	rng   *Rand

	lastStep time.Time
	disposed bool

	// Reactive override: single writer (audio tick), single reader
	// (visual step). One-step staleness is acceptable.
	override atomic.Pointer[Override]

	// Beat pulse: decaying boost on the step-length pulse term.
	// Stored as float64 bits; written by the audio tick, decayed by
	// the visual step.
	beatBits atomic.Uint64
}

// NewAnimator builds an idle animator over a fresh segment buffer.
func NewAnimator(cfg Config, seed uint64) *Animator {
	a := &Animator{
		cfg:   cfg,
		buf:   NewSegmentBuffer(MaxSegments),
		rng:   NewRand(seed),
		curve: NewCurveState(cfg),
	}
	return a
}

// Buffer exposes the segment store for the renderer to drain.
func (a *Animator) Buffer() *SegmentBuffer { return a.buf }

// State returns the current lifecycle state.
func (a *Animator) State() AnimState { return a.state }

// Config returns the base configuration currently in effect.
func (a *Animator) Config() Config { return a.cfg }

// SetConfig swaps the base configuration. Takes effect on the next
// step; the running curve state is kept so the drawing continues.
func (a *Animator) SetConfig(cfg Config) { a.cfg = cfg }

// SetOverride publishes the reactive override map. Called from the
// audio domain; nil clears modulation.
func (a *Animator) SetOverride(ov Override) {
	if ov == nil {
		a.override.Store(nil)
		return
	}
	a.override.Store(&ov)
}

// Beat injects an analyzer beat as a decaying pulse boost. Called
// from the audio domain.
func (a *Animator) Beat(strength float64) {
	a.beatBits.Store(math.Float64bits(clampF(strength, 0, 1)))
}

// Play transitions idle → running.
func (a *Animator) Play() {
	if a.disposed {
		return
	}
	a.state = StateRunning
	a.lastStep = time.Time{}
}

// Pause transitions running → idle. No further steps occur until
// Play; the pending tick gate is discarded so resuming never replays
// a stale timer.
func (a *Animator) Pause() {
	a.state = StateIdle
	a.lastStep = time.Time{}
}

// Restart resets curve state and the segment buffer, then runs.
// The caller must also clear the accumulation target.
func (a *Animator) Restart() {
	if a.disposed {
		return
	}
	a.curve = NewCurveState(a.cfg)
	a.buf.Reset()
	a.state = StateRunning
	a.lastStep = time.Time{}
}

// ClearCanvas resets drawing state without changing running/idle.
func (a *Animator) ClearCanvas() {
	a.curve = NewCurveState(a.cfg)
	a.buf.Reset()
}

// Dispose permanently idles the animator. Any later Play is a no-op,
// so no step can run after disposal.
func (a *Animator) Dispose() {
	a.state = StateIdle
	a.disposed = true
}

// Frame is called once per display frame. It returns true when steps
// were taken and a draw should be submitted. A configured SpeedMS
// gates stepping to a fixed delay; 0 steps every display frame.
// StepsPerFrame consecutive advances are batched into one draw.
func (a *Animator) Frame(now time.Time) bool {
	if a.state != StateRunning {
		return false
	}
	if a.cfg.SpeedMS > 0 {
		if !a.lastStep.IsZero() && now.Sub(a.lastStep) < time.Duration(a.cfg.SpeedMS)*time.Millisecond {
			return false
		}
		a.lastStep = now
	}
	steps := clamp(a.cfg.StepsPerFrame, 1, MaxStepsPerFrame)
	for i := 0; i < steps; i++ {
		a.Step()
	}
	return true
}

// Step performs one curve advance. The base config is merged with the
// latest reactive override fresh each step, so modulation is never
// stale by more than one step.
func (a *Animator) Step() {
	cfg := a.cfg
	if p := a.override.Load(); p != nil {
		cfg = Merge(cfg, *p)
	}
	if bp := math.Float64frombits(a.beatBits.Load()); bp > 0.001 {
		cfg.Pulse += bp
		a.beatBits.Store(math.Float64bits(bp * 0.92))
	} else {
		a.beatBits.Store(0)
	}

	prev, next := a.curve.Advance(cfg, a.rng)
	r, g, b := HueRGB(a.curve.Hue)
	a.appendWithSymmetry(cfg, prev, next, r, g, b)
}

// appendWithSymmetry expands one point pair into MultiLine × Symmetry
// segments: parallel offsets perpendicular to the segment direction,
// each replicated at evenly-spaced rotations around the origin.
// Order matters: offset first, then rotate. The alternate order
// produces visibly different patterns and is not interchangeable.
func (a *Animator) appendWithSymmetry(cfg Config, p1, p2 Point, r, g, b float32) {
	lines := cfg.MultiLine
	if lines < 1 {
		lines = 1
	}
	sym := cfg.Symmetry
	if sym < 1 {
		sym = 1
	}

	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	length := math.Hypot(dx, dy)
	var nx, ny float64 // unit perpendicular
	if length > 1e-12 {
		nx = -dy / length
		ny = dx / length
	}

	rotStep := 2 * math.Pi / float64(sym)
	rotBase := cfg.RotationOffset * math.Pi / 180

	for li := 0; li < lines; li++ {
		// Center the fan of parallel lines on the base segment.
		off := (float64(li) - float64(lines-1)/2) * cfg.LineSpacing
		a1 := Point{X: p1.X + nx*off, Y: p1.Y + ny*off}
		a2 := Point{X: p2.X + nx*off, Y: p2.Y + ny*off}
		for si := 0; si < sym; si++ {
			rot := rotBase + rotStep*float64(si)
			sin, cos := math.Sincos(rot)
			a.buf.Append(Segment{
				X1: float32(a1.X*cos - a1.Y*sin),
				Y1: float32(a1.X*sin + a1.Y*cos),
				X2: float32(a2.X*cos - a2.Y*sin),
				Y2: float32(a2.X*sin + a2.Y*cos),
				R:  r, G: g, B: b,
			})
		}
	}
}

// Alpha returns the material alpha for this frame's draw, after
// reactive modulation.
func (a *Animator) Alpha() float64 {
	cfg := a.cfg
	if p := a.override.Load(); p != nil {
		cfg = Merge(cfg, *p)
	}
	return clampF(cfg.Alpha, 0, 1)
}
