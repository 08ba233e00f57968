package music

import (
	"math"
	"sync"
	"time"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

const (
	tickInterval = 10 * time.Millisecond
	// lookaheadWindow is how far ahead of the audio clock events are
	// scheduled. Must exceed the tick interval so a late tick cannot
	// leave a gap.
	lookaheadWindow = 0.025
)

// LayerConfig toggles and weights one generative layer.
type LayerConfig struct {
	Enabled bool
	Density float64 // 0-1, scales event rate inversely into intervals
}

// SchedulerConfig is the per-layer generative configuration, read
// fresh on every tick.
type SchedulerConfig struct {
	Drone   LayerConfig
	Melody  LayerConfig
	Sparkle LayerConfig
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Drone:   LayerConfig{Enabled: true, Density: 0.5},
		Melody:  LayerConfig{Enabled: true, Density: 0.5},
		Sparkle: LayerConfig{Enabled: true, Density: 0.5},
	}
}

func (c SchedulerConfig) layer(l Layer) LayerConfig {
	switch l {
	case LayerDrone:
		return c.Drone
	case LayerMelody:
		return c.Melody
	default:
		return c.Sparkle
	}
}

// layerClock tracks when a layer's next event is due, in audio-clock
// seconds. nextEventTime only ever moves forward.
type layerClock struct {
	next float64
}

// Scheduler runs the per-layer lookahead clocks on a fixed wallclock
// tick, independent of the visual frame loop: audio events must be
// sample-accurate against the audio clock and must not starve when
// the display stalls. Event *playback* timing uses the engine's audio
// clock; only the decision to schedule happens on the coarse tick.
type Scheduler struct {
	engine *Engine
	derive *Derivation
	rng    *spiral.Rand

	mu     sync.Mutex
	cfg    SchedulerConfig
	visual VisualState
	hook   func(now float64)
	clocks [numLayers]layerClock

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler wires a scheduler to an engine. rng feeds the interval
// jitter, note choice (via the derivation), and Poisson sparkles.
func NewScheduler(engine *Engine, derive *Derivation, rng *spiral.Rand) *Scheduler {
	return &Scheduler{
		engine: engine,
		derive: derive,
		rng:    rng,
		cfg:    DefaultSchedulerConfig(),
	}
}

// SetConfig swaps the layer configuration; applied next tick.
func (s *Scheduler) SetConfig(cfg SchedulerConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// SetVisualState publishes the visual snapshot the derivation reads.
func (s *Scheduler) SetVisualState(st VisualState) {
	s.mu.Lock()
	s.visual = st
	s.mu.Unlock()
}

// SetAnalysisHook installs a callback run once per tick, after the
// scheduling pass and outside the graph lock. The reactive analysis
// rides this tick so override production stays in the audio domain.
func (s *Scheduler) SetAnalysisHook(fn func(now float64)) {
	s.mu.Lock()
	s.hook = fn
	s.mu.Unlock()
}

// Start launches the wallclock tick loop.
func (s *Scheduler) Start() {
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(tickInterval)
	s.done = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				s.TickOnce(s.engine.Now())
			}
		}
	}()
}

// Stop cancels the tick loop synchronously: when it returns no
// further tick can fire.
func (s *Scheduler) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.wg.Wait()
	s.ticker = nil
}

// TickOnce runs one scheduling pass against the given audio-clock
// time. Exposed (rather than buried in the goroutine) so tests can
// drive the clock directly.
func (s *Scheduler) TickOnce(now float64) {
	s.mu.Lock()
	cfg := s.cfg
	st := s.visual
	hook := s.hook
	s.mu.Unlock()

	s.engine.lockGraph()
	s.engine.pool.Update(now)
	s.engine.unlockGraph()

	s.derive.TickRootDrift(st)

	for l := LayerDrone; l < numLayers; l++ {
		lc := cfg.layer(l)
		if !lc.Enabled {
			continue
		}
		clk := &s.clocks[l]
		if clk.next < now {
			// First event after enable/stall: schedule from now.
			clk.next = now
		}
		for clk.next < now+lookaheadWindow {
			s.scheduleEvent(l, clk.next, st)
			clk.next += s.interval(l, lc.Density)
		}
	}

	if hook != nil {
		hook(now)
	}
}

// NextEventTime reports a layer's clock, for observation.
func (s *Scheduler) NextEventTime(l Layer) float64 {
	return s.clocks[l].next
}

// interval computes the inter-event spacing for a layer at the given
// density. Higher density, shorter intervals.
func (s *Scheduler) interval(l Layer, density float64) float64 {
	density = clampF(density, 0, 1)
	switch l {
	case LayerDrone:
		// Drone retriggers every 8-20s.
		return lerp(20, 8, density)
	case LayerMelody:
		// Melody notes every 1.5-6s.
		return lerp(6, 1.5, density)
	default:
		// Sparkles follow a Poisson process, mean 0.5-3s.
		mean := lerp(3, 0.5, density)
		u := s.rng.Float64()
		if u <= 0 {
			u = 1e-9
		}
		return math.Max(0.05, -mean*math.Log(u))
	}
}

// scheduleEvent claims a voice and programs one musical event at
// audio time at.
func (s *Scheduler) scheduleEvent(l Layer, at float64, st VisualState) {
	sc := s.derive.ScaleSelection(st)
	ratio := s.derive.HarmonicRatio(st)

	s.engine.lockGraph()
	defer s.engine.unlockGraph()

	switch l {
	case LayerDrone:
		v := s.engine.pool.Claim(at, true)
		v.layer = LayerDrone
		root := s.derive.Root() - 12
		v.start(NoteSpec{
			Freq:    NoteFreq(root),
			Peak:    0.22,
			Attack:  2.5,
			Sustain: 6.0,
			Release: 4.0,
			Wave:    WaveFM,
			FMRatio: ratio,
			FMIndex: 0.6,
		}, at)

	case LayerMelody:
		v := s.engine.pool.Claim(at, false)
		v.layer = LayerMelody
		note := s.derive.NextMelodyNote(sc)
		freq := NoteFreq(note) * s.derive.MicrotonalMultiplier(st)
		v.start(NoteSpec{
			Freq:    freq,
			Peak:    0.30,
			Attack:  0.03,
			Sustain: 0.4 + s.rng.Float64()*0.6,
			Release: 1.2,
			Wave:    WaveFM,
			FMRatio: ratio,
			FMIndex: 1.8,
		}, at)

	default: // LayerSparkle
		v := s.engine.pool.Claim(at, false)
		v.layer = LayerSparkle
		note := s.derive.NextMelodyNote(sc) + 12
		if note > melodyMax {
			note -= 24
		}
		v.start(NoteSpec{
			Freq:    NoteFreq(note),
			Peak:    0.12,
			Attack:  0.005,
			Sustain: 0.05,
			Release: 0.35,
			Wave:    WaveSine,
		}, at)
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
