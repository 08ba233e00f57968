package music

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

func TestSnapRatioTableCases(t *testing.T) {
	// 1.48 is within 15% of 1.5.
	require.Equal(t, 1.5, SnapRatio(1.48))
	// 1.2 vs 1.25: |1.2-1.25|/1.25 = 0.04 < 0.15.
	require.Equal(t, 1.25, SnapRatio(1.2))
	// 6.0: nearest entries 4 (dist 0.5) and 8 (dist 0.25), neither
	// within 15%; the raw clamped input comes back.
	require.Equal(t, 6.0, SnapRatio(6.0))
	// Clamping applies before snapping.
	require.Equal(t, 1.0, SnapRatio(0.2))
	require.Equal(t, 8.0, SnapRatio(55))
}

func TestScaleSelectionStable(t *testing.T) {
	d := NewDerivation(spiral.NewRand(1))
	st := VisualState{Family: spiral.FamilyClassic, TurnAngle: 17}
	first := d.ScaleSelection(st)
	for i := 0; i < 10; i++ {
		require.Equal(t, first.Name, d.ScaleSelection(st).Name,
			"same visual params must select the same scale")
	}

	// Every family resolves to a real scale at any angle.
	for _, fam := range []spiral.Family{spiral.FamilyClassic, spiral.FamilyPolar, spiral.FamilyParametric} {
		for a := -720.0; a <= 720; a += 37 {
			sc := d.ScaleSelection(VisualState{Family: fam, TurnAngle: a})
			require.NotEmpty(t, sc.Intervals)
		}
	}
}

func TestRootDriftClampedAndStepsBySemitone(t *testing.T) {
	d := NewDerivation(spiral.NewRand(7))
	st := VisualState{Family: spiral.FamilyPolar, ParamA: 3}
	prev := d.Root()
	for i := 0; i < 20000; i++ {
		d.TickRootDrift(st)
		r := d.Root()
		require.GreaterOrEqual(t, r, rootMin)
		require.LessOrEqual(t, r, rootMax)
		require.LessOrEqual(t, abs(r-prev), 1, "root moves at most one semitone per tick")
		prev = r
	}
	require.NotEqual(t, 57, prev, "after many ticks the root should have drifted")
}

func TestMicrotonalOnlyParametric(t *testing.T) {
	d := NewDerivation(spiral.NewRand(1))
	require.Equal(t, 1.0, d.MicrotonalMultiplier(VisualState{Family: spiral.FamilyClassic, ParamA: 3, ParamB: 2}))
	require.Equal(t, 1.0, d.MicrotonalMultiplier(VisualState{Family: spiral.FamilyPolar, ParamA: 3, ParamB: 2}))

	m := d.MicrotonalMultiplier(VisualState{Family: spiral.FamilyParametric, Curve: spiral.CurveLissajous, ParamA: 3.3, ParamB: 2})
	require.NotEqual(t, 1.0, m)
	// Bounded by ±25 cents.
	cents := 1200 * math.Log2(m)
	require.LessOrEqual(t, math.Abs(cents), 25.0)
}

func TestNextMelodyNoteFallsBackToLeapBucket(t *testing.T) {
	d := NewDerivation(spiral.NewRand(3))
	// A one-interval scale spaces all candidates an octave apart;
	// from halfway between two of them nothing is within 5 semitones,
	// so the stepwise bucket is empty.
	d.root = 72
	sc := Scale{Name: "degenerate", Intervals: []int{0}}
	for i := 0; i < 50; i++ {
		d.prevMelody = 42
		n := d.NextMelodyNote(sc)
		require.GreaterOrEqual(t, n, melodyMin)
		require.LessOrEqual(t, n, melodyMax)
		require.Greater(t, abs(n-42), stepwiseSemitones, "must come from the leap bucket")
	}
}

func TestNextMelodyNotePrefersStepwise(t *testing.T) {
	d := NewDerivation(spiral.NewRand(11))
	sc := scales["major"]
	step, leap := 0, 0
	for i := 0; i < 2000; i++ {
		prev := d.prevMelody
		n := d.NextMelodyNote(sc)
		if abs(n-prev) <= stepwiseSemitones {
			step++
		} else {
			leap++
		}
	}
	require.Greater(t, step, leap, "stepwise motion must dominate")
}

func TestNoteFreq(t *testing.T) {
	require.InDelta(t, 440.0, NoteFreq(69), 1e-9)
	require.InDelta(t, 261.63, NoteFreq(60), 0.01)
	require.InDelta(t, 880.0, NoteFreq(81), 1e-9)
}
