package music

import (
	"math"
	"sort"
)

// ramp is one linear automation segment in audio-clock seconds.
type ramp struct {
	t0, t1 float64
	v0, v1 float64
}

// Param is an automatable control value. The *decision* to schedule a
// ramp happens on a coarse wallclock tick, but ramps are evaluated at
// exact audio-clock positions during rendering, so envelopes execute
// sample-accurately. Not self-locking: the owning MixGraph serializes
// access between the render loop and the scheduler tick.
type Param struct {
	base  float64
	ramps []ramp
}

func newParam(v float64) *Param { return &Param{base: v} }

// Set replaces the base value immediately and drops all automation.
func (p *Param) Set(v float64) {
	p.base = v
	p.ramps = p.ramps[:0]
}

// SetValueAtTime pins the value from time t onward.
func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(ramp{t0: t, t1: t, v0: v, v1: v})
}

// LinearRampToValueAtTime ramps from the value at the last scheduled
// event to v, ending at t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	start := p.base
	startT := 0.0
	if n := len(p.ramps); n > 0 {
		last := p.ramps[n-1]
		start = last.v1
		startT = last.t1
	}
	if t < startT {
		t = startT
	}
	p.insert(ramp{t0: startT, t1: t, v0: start, v1: v})
}

// CancelScheduledValues removes automation at or after time t. A ramp
// spanning t is truncated so the value holds at its level at t.
func (p *Param) CancelScheduledValues(t float64) {
	kept := p.ramps[:0]
	for _, r := range p.ramps {
		switch {
		case r.t0 >= t:
			// dropped
		case r.t1 > t:
			v := r.valueAt(t)
			kept = append(kept, ramp{t0: r.t0, t1: t, v0: r.v0, v1: v})
		default:
			kept = append(kept, r)
		}
	}
	p.ramps = kept
}

func (p *Param) insert(r ramp) {
	p.ramps = append(p.ramps, r)
	// Ramps arrive mostly in order; keep them sorted by start.
	sort.SliceStable(p.ramps, func(i, j int) bool { return p.ramps[i].t0 < p.ramps[j].t0 })
}

func (r ramp) valueAt(t float64) float64 {
	if r.t1 <= r.t0 || t >= r.t1 {
		return r.v1
	}
	if t <= r.t0 {
		return r.v0
	}
	f := (t - r.t0) / (r.t1 - r.t0)
	return r.v0 + (r.v1-r.v0)*f
}

// ValueAt evaluates the parameter at audio time t.
func (p *Param) ValueAt(t float64) float64 {
	v := p.base
	for _, r := range p.ramps {
		if t < r.t0 {
			break
		}
		v = r.valueAt(t)
	}
	return v
}

// prune folds ramps that ended before t into the base value so the
// slice stays short during long runs.
func (p *Param) prune(t float64) {
	idx := 0
	for idx < len(p.ramps) && p.ramps[idx].t1 < t {
		p.base = p.ramps[idx].v1
		idx++
	}
	if idx > 0 {
		p.ramps = append(p.ramps[:0], p.ramps[idx:]...)
	}
}

// Layer identifies one generative music layer.
type Layer int

const (
	LayerDrone Layer = iota
	LayerMelody
	LayerSparkle
	numLayers
)

func (l Layer) String() string {
	switch l {
	case LayerDrone:
		return "drone"
	case LayerMelody:
		return "melody"
	case LayerSparkle:
		return "sparkle"
	}
	return "unknown"
}

// MixGraph is the fixed-topology output chain: per-layer gain → sum →
// one-pole lowpass → feedback delay → comb/allpass reverb → master
// gain. Exposed to callers as named control points that ramps can be
// scheduled on; the node wiring itself never changes.
type MixGraph struct {
	master     *Param
	layerGain  [numLayers]*Param
	cutoff     *Param // lowpass cutoff, Hz
	delayMix   *Param
	reverbMix  *Param
	sampleRate float64

	lpState float64

	delayBuf []float64
	delayPos int

	combBuf  [3][]float64
	combPos  [3]int
	apBuf    []float64
	apPos    int
}

const (
	delaySeconds  = 0.42
	delayFeedback = 0.38
)

var combSeconds = [3]float64{0.0297, 0.0371, 0.0411}

const allpassSeconds = 0.0050

func newMixGraph(sampleRate int) *MixGraph {
	sr := float64(sampleRate)
	g := &MixGraph{
		master:     newParam(0.7),
		cutoff:     newParam(8000),
		delayMix:   newParam(0.18),
		reverbMix:  newParam(0.25),
		sampleRate: sr,
		delayBuf:   make([]float64, int(delaySeconds*sr)),
		apBuf:      make([]float64, int(allpassSeconds*sr)),
	}
	for i := range g.layerGain {
		g.layerGain[i] = newParam(0.8)
	}
	for i := range g.combBuf {
		g.combBuf[i] = make([]float64, int(combSeconds[i]*sr))
	}
	return g
}

// Control returns the named automation point. Names are fixed:
// master.gain, drone.gain, melody.gain, sparkle.gain, filter.cutoff,
// delay.mix, reverb.mix.
func (g *MixGraph) Control(name string) (*Param, bool) {
	switch name {
	case "master.gain":
		return g.master, true
	case "drone.gain":
		return g.layerGain[LayerDrone], true
	case "melody.gain":
		return g.layerGain[LayerMelody], true
	case "sparkle.gain":
		return g.layerGain[LayerSparkle], true
	case "filter.cutoff":
		return g.cutoff, true
	case "delay.mix":
		return g.delayMix, true
	case "reverb.mix":
		return g.reverbMix, true
	}
	return nil, false
}

// process runs one mono sample of the layer mix through the chain.
func (g *MixGraph) process(layerIn [numLayers]float64, t float64) float64 {
	s := 0.0
	for l := 0; l < int(numLayers); l++ {
		s += layerIn[l] * g.layerGain[l].ValueAt(t)
	}

	// One-pole lowpass.
	cut := clampF(g.cutoff.ValueAt(t), 20, g.sampleRate*0.45)
	a := 1 - math.Exp(-2*math.Pi*cut/g.sampleRate)
	g.lpState += a * (s - g.lpState)
	s = g.lpState

	// Feedback delay.
	d := g.delayBuf[g.delayPos]
	g.delayBuf[g.delayPos] = s + d*delayFeedback
	g.delayPos = (g.delayPos + 1) % len(g.delayBuf)
	s += d * g.delayMix.ValueAt(t)

	// Small comb+allpass reverb.
	wet := 0.0
	for i := range g.combBuf {
		c := g.combBuf[i][g.combPos[i]]
		g.combBuf[i][g.combPos[i]] = s + c*0.72
		g.combPos[i] = (g.combPos[i] + 1) % len(g.combBuf[i])
		wet += c
	}
	wet /= 3
	delayed := g.apBuf[g.apPos]
	g.apBuf[g.apPos] = wet + delayed*0.5
	g.apPos = (g.apPos + 1) % len(g.apBuf)
	wet = delayed - 0.5*wet
	s += wet * g.reverbMix.ValueAt(t)

	return s * g.master.ValueAt(t)
}

func (g *MixGraph) pruneAutomation(t float64) {
	g.master.prune(t)
	g.cutoff.prune(t)
	g.delayMix.prune(t)
	g.reverbMix.prune(t)
	for _, p := range g.layerGain {
		p.prune(t)
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
