package music

import (
	"math"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

// Waveform selects the oscillator timbre.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveFM
)

// Voice is one reusable unit of sound generation: an oscillator plus
// a gain envelope drawn from the fixed pool. A voice is busy from
// claim until its computed release time passes.
type Voice struct {
	id    int
	pad   bool // pad voices serve the drone layer
	layer Layer

	wave    Waveform
	freq    float64
	fmRatio float64 // modulator/carrier ratio for WaveFM
	fmIndex float64
	phase   float64

	gain      *Param
	busy      bool
	busyUntil float64 // audio-clock seconds; busy clears when passed
}

// sample renders one mono sample at audio time t and advances phase.
func (v *Voice) sample(t, dt float64) float64 {
	g := v.gain.ValueAt(t)
	if g <= 0 && !v.busy {
		return 0
	}
	var s float64
	switch v.wave {
	case WaveTriangle:
		s = (2.0 / math.Pi) * math.Asin(math.Sin(v.phase))
	case WaveFM:
		mod := math.Sin(v.phase * v.fmRatio)
		s = math.Sin(v.phase + v.fmIndex*mod)
	default:
		s = math.Sin(v.phase)
	}
	v.phase += 2 * math.Pi * v.freq * dt
	if v.phase > 1e6 {
		v.phase = math.Mod(v.phase, 2*math.Pi)
	}
	return s * g
}

// NoteSpec describes one scheduled note's envelope and timbre.
type NoteSpec struct {
	Freq    float64
	Peak    float64
	Attack  float64
	Sustain float64
	Release float64
	Wave    Waveform
	FMRatio float64
	FMIndex float64
}

// start programs the voice's oscillator and gain envelope for a note
// beginning at audio time at: linear 0→peak over attack, slight decay
// plateau over sustain, linear to 0 over release.
func (v *Voice) start(spec NoteSpec, at float64) {
	v.freq = spec.Freq
	v.wave = spec.Wave
	v.fmRatio = spec.FMRatio
	v.fmIndex = spec.FMIndex

	v.gain.CancelScheduledValues(at)
	v.gain.SetValueAtTime(0, at)
	v.gain.LinearRampToValueAtTime(spec.Peak, at+spec.Attack)
	v.gain.LinearRampToValueAtTime(spec.Peak*0.82, at+spec.Attack+spec.Sustain)
	v.gain.LinearRampToValueAtTime(0, at+spec.Attack+spec.Sustain+spec.Release)
	v.busyUntil = at + spec.Attack + spec.Sustain + spec.Release
}

// VoicePool is the fixed set of reusable voices: melodic voices for
// melody/sparkle plus dedicated pad voices for the drone layer.
type VoicePool struct {
	voices []*Voice
	rng    *spiral.Rand
}

const (
	melodicVoices = 6
	padVoices     = 2
)

// NewVoicePool builds the fixed pool. rng feeds only the steal choice.
func NewVoicePool(rng *spiral.Rand) *VoicePool {
	p := &VoicePool{rng: rng}
	for i := 0; i < melodicVoices+padVoices; i++ {
		p.voices = append(p.voices, &Voice{
			id:   i,
			pad:  i >= melodicVoices,
			gain: newParam(0),
		})
	}
	return p
}

// Claim returns a free voice of the wanted kind, or steals a busy
// one. Never fails: under pressure a uniform-random (not oldest) busy
// voice is force-silenced at now and reused.
func (p *VoicePool) Claim(now float64, pad bool) *Voice {
	var candidates []*Voice
	for _, v := range p.voices {
		if v.pad == pad {
			candidates = append(candidates, v)
		}
	}
	for _, v := range candidates {
		if !v.busy {
			v.busy = true
			return v
		}
	}
	// Steal: silence immediately so the new envelope starts from 0.
	v := candidates[p.rng.Intn(len(candidates))]
	v.gain.CancelScheduledValues(now)
	v.gain.SetValueAtTime(0, now)
	v.busy = true
	return v
}

// Update clears the busy flag of voices whose release time passed and
// folds completed envelope ramps into each gain's base value, so a
// long session never accumulates finished automation. Called from the
// scheduler tick, standing in for the per-note deferred release
// callback.
func (p *VoicePool) Update(now float64) {
	for _, v := range p.voices {
		if v.busy && now >= v.busyUntil {
			v.busy = false
		}
		v.gain.prune(now)
	}
}

// BusyCount reports currently claimed voices.
func (p *VoicePool) BusyCount() int {
	n := 0
	for _, v := range p.voices {
		if v.busy {
			n++
		}
	}
	return n
}

// Size reports the fixed pool size.
func (p *VoicePool) Size() int { return len(p.voices) }

// sampleAll renders every voice into the per-layer accumulator.
func (p *VoicePool) sampleAll(out *[numLayers]float64, t, dt float64) {
	for _, v := range p.voices {
		s := v.sample(t, dt)
		if s != 0 {
			out[v.layer] += s
		}
	}
}
