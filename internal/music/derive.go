package music

import (
	"math"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

// MIDI range limits.
const (
	rootMin   = 48 // C3
	rootMax   = 72 // C5
	melodyMin = 36
	melodyMax = 96
)

// Scale is a named set of semitone intervals from the root.
type Scale struct {
	Name      string
	Intervals []int
}

var scales = map[string]Scale{
	"major":           {"major", []int{0, 2, 4, 5, 7, 9, 11}},
	"minor":           {"minor", []int{0, 2, 3, 5, 7, 8, 10}},
	"dorian":          {"dorian", []int{0, 2, 3, 5, 7, 9, 10}},
	"phrygian":        {"phrygian", []int{0, 1, 3, 5, 7, 8, 10}},
	"lydian":          {"lydian", []int{0, 2, 4, 6, 7, 9, 11}},
	"mixolydian":      {"mixolydian", []int{0, 2, 4, 5, 7, 9, 10}},
	"pentatonic":      {"pentatonic", []int{0, 2, 4, 7, 9}},
	"minorPentatonic": {"minorPentatonic", []int{0, 3, 5, 7, 10}},
	"harmonicMinor":   {"harmonicMinor", []int{0, 2, 3, 5, 7, 8, 11}},
	"wholeTone":       {"wholeTone", []int{0, 2, 4, 6, 8, 10}},
	"hirajoshi":       {"hirajoshi", []int{0, 2, 3, 7, 8}},
}

// scalePalettes lists candidate scale names per curve family. The
// selection index depends only on slow-moving visual parameters, so
// the chosen scale is naturally stable without hysteresis.
var scalePalettes = map[spiral.Family][]string{
	spiral.FamilyClassic:    {"pentatonic", "major", "lydian", "mixolydian"},
	spiral.FamilyPolar:      {"minor", "dorian", "harmonicMinor", "phrygian"},
	spiral.FamilyParametric: {"wholeTone", "minorPentatonic", "hirajoshi", "lydian"},
}

// ratioTable holds the musically simple ratios harmonic ratios snap to.
var ratioTable = []float64{1, 1.25, 1.333, 1.5, 2, 2.5, 3, 4, 8}

// SnapRatio clamps r to [1,8] and snaps it to the nearest table entry
// when within 15% relative distance, else returns the clamped input.
// Keeps FM partial stacking musical without forcing every parameter
// change onto a fixed grid.
func SnapRatio(r float64) float64 {
	r = clampF(r, 1, 8)
	best := 0.0
	bestDist := math.Inf(1)
	for _, e := range ratioTable {
		d := math.Abs(r-e) / e
		if d < bestDist {
			bestDist = d
			best = e
		}
	}
	if bestDist <= 0.15 {
		return best
	}
	return r
}

// VisualState is the read-only snapshot of visual parameters the
// derivation consumes. Written by the visual domain once per frame.
type VisualState struct {
	Family    spiral.Family
	Curve     spiral.Curve
	TurnAngle float64
	ParamA    float64
	ParamB    float64
}

// Derivation maps continuous visual parameters onto discrete musical
// ones. Stateful: the root note drifts slowly and melody selection
// remembers the previous note.
type Derivation struct {
	rng *spiral.Rand

	root       int
	driftAccum float64
	prevMelody int
}

func NewDerivation(rng *spiral.Rand) *Derivation {
	return &Derivation{
		rng:        rng,
		root:       57, // A3
		prevMelody: 69,
	}
}

// Root returns the current root note (MIDI).
func (d *Derivation) Root() int { return d.root }

// ScaleSelection picks a scale from the family's palette based on the
// turn-angle parameter.
func (d *Derivation) ScaleSelection(st VisualState) Scale {
	palette := scalePalettes[st.Family]
	if len(palette) == 0 {
		palette = scalePalettes[spiral.FamilyClassic]
	}
	norm := math.Mod(math.Abs(st.TurnAngle), 360)
	idx := int(norm/90*float64(len(palette))/4) % len(palette)
	return scales[palette[idx]]
}

// HarmonicRatio derives an FM partial ratio from the curve's shape
// parameters, snapped to the simple-ratio table.
func (d *Derivation) HarmonicRatio(st VisualState) float64 {
	a, b := math.Abs(st.ParamA), math.Abs(st.ParamB)
	if a == 0 {
		a = 1
	}
	if b == 0 {
		b = 1
	}
	r := a / b
	if r < 1 {
		r = 1 / r
	}
	return SnapRatio(r)
}

// rootDriftRate per tick, before the curve-type seed term.
const rootDriftRate = 0.0012

// TickRootDrift advances the drift accumulator; when it crosses 1 the
// root steps ±1 semitone (random sign) within [rootMin, rootMax].
// Produces slow organic key changes tied to the current visuals
// without a hard timer.
func (d *Derivation) TickRootDrift(st VisualState) {
	seed := 0.0008 * math.Abs(math.Sin(st.ParamA+float64(st.Curve)))
	d.driftAccum += rootDriftRate + seed
	if d.driftAccum < 1 {
		return
	}
	d.driftAccum = 0
	step := 1
	if d.rng.Float64() < 0.5 {
		step = -1
	}
	d.root = clampI(d.root+step, rootMin, rootMax)
}

// MicrotonalMultiplier returns a frequency multiplier for a small
// cents offset. Active only for the parametric family; melody notes
// only. The offset comes from the fractional part of the parameter
// ratio, scaled into ±15..±25 cents depending on curve type.
func (d *Derivation) MicrotonalMultiplier(st VisualState) float64 {
	if st.Family != spiral.FamilyParametric {
		return 1
	}
	b := st.ParamB
	if b == 0 {
		b = 1
	}
	ratio := math.Abs(st.ParamA / b)
	frac := ratio - math.Floor(ratio)
	span := 15.0 + 10.0*math.Mod(float64(st.Curve), 2) // 15 or 25 cents
	cents := (frac*2 - 1) * span
	return math.Pow(2, cents/1200)
}

const stepwiseSemitones = 5

// NextMelodyNote picks the next melody note: all scale-degree pitches
// across a ±3-octave window around the root, clipped to the absolute
// MIDI range; stepwise candidates (≤5 semitones from the previous
// note) are preferred with 70% probability, falling back to the leap
// bucket (or the full set) when the preferred bucket is empty.
func (d *Derivation) NextMelodyNote(sc Scale) int {
	var stepwise, leap []int
	for oct := -3; oct <= 3; oct++ {
		for _, iv := range sc.Intervals {
			n := d.root + oct*12 + iv
			if n < melodyMin || n > melodyMax {
				continue
			}
			if abs(n-d.prevMelody) <= stepwiseSemitones {
				stepwise = append(stepwise, n)
			} else {
				leap = append(leap, n)
			}
		}
	}
	bucket := stepwise
	if d.rng.Float64() >= 0.7 || len(bucket) == 0 {
		if len(leap) > 0 {
			bucket = leap
		}
	}
	if len(bucket) == 0 {
		bucket = append(stepwise, leap...)
	}
	if len(bucket) == 0 {
		return d.prevMelody // degenerate scale; hold the note
	}
	note := bucket[d.rng.Intn(len(bucket))]
	d.prevMelody = note
	return note
}

// NoteFreq converts a MIDI note to Hz (A4 = 440, equal temperament).
func NoteFreq(midi int) float64 {
	return 440.0 * math.Pow(2, (float64(midi)-69)/12)
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
