package spiral

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAnimatorStateMachine(t *testing.T) {
	a := NewAnimator(DefaultConfig(), 1)
	require.Equal(t, StateIdle, a.State())

	a.Play()
	require.Equal(t, StateRunning, a.State())

	a.Pause()
	require.Equal(t, StateIdle, a.State())
	require.False(t, a.Frame(time.Now()), "paused animator must not step")

	a.Play()
	require.True(t, a.Frame(time.Now()))
}

func TestAnimatorDisposeBlocksPlay(t *testing.T) {
	a := NewAnimator(DefaultConfig(), 1)
	a.Play()
	a.Dispose()
	a.Play()
	require.Equal(t, StateIdle, a.State())
	require.False(t, a.Frame(time.Now()), "no step may run after dispose")
}

func TestAnimatorStepsPerFrameBatching(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepsPerFrame = 7
	cfg.MultiLine = 1
	cfg.Symmetry = 1
	a := NewAnimator(cfg, 1)
	a.Play()
	a.Frame(time.Now())
	require.Equal(t, 7, a.Buffer().Count(), "one frame batches StepsPerFrame advances")
}

func TestAnimatorSpeedGate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpeedMS = 50
	a := NewAnimator(cfg, 1)
	a.Play()

	now := time.Now()
	require.True(t, a.Frame(now), "first frame always steps")
	require.False(t, a.Frame(now.Add(10*time.Millisecond)), "gate not yet elapsed")
	require.True(t, a.Frame(now.Add(60*time.Millisecond)))
}

func TestAnimatorRestartResetsState(t *testing.T) {
	a := NewAnimator(DefaultConfig(), 1)
	a.Play()
	a.Frame(time.Now())
	require.NotZero(t, a.Buffer().Count())

	a.Restart()
	require.Equal(t, StateRunning, a.State())
	require.Equal(t, 0, a.Buffer().Count())
}

func TestAnimatorClearCanvasKeepsRunState(t *testing.T) {
	a := NewAnimator(DefaultConfig(), 1)
	a.Play()
	a.Frame(time.Now())
	a.ClearCanvas()
	require.Equal(t, StateRunning, a.State())
	require.Equal(t, 0, a.Buffer().Count())

	a.Pause()
	a.ClearCanvas()
	require.Equal(t, StateIdle, a.State())
}

func TestSymmetryExpansionCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MultiLine = 3
	cfg.Symmetry = 4
	cfg.StepsPerFrame = 1
	a := NewAnimator(cfg, 1)
	a.Play()
	a.Frame(time.Now())
	require.Equal(t, 12, a.Buffer().Count(), "each step expands to MultiLine×Symmetry segments")
}

// Offset must be applied before rotation: the offset copies of a
// rotated segment stay perpendicular to the *unrotated* base segment
// direction only if the offset happens first. Verified by checking
// that a rotated copy equals rotate(offset(base)), not
// offset(rotate(base)).
func TestSymmetryOffsetThenRotateOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Family = FamilyParametric
	cfg.Curve = CurveLissajous
	cfg.MultiLine = 2
	cfg.LineSpacing = 10
	cfg.Symmetry = 2
	cfg.StepsPerFrame = 1
	cfg.ParamSpeed = 0.05
	a := NewAnimator(cfg, 1)
	a.Play()
	a.Frame(time.Now())

	segs := a.Buffer().All()
	require.Len(t, segs, 4)

	// Segments are appended offset-major: [off0 rot0, off0 rot1,
	// off1 rot0, off1 rot1]. rot1 is a half turn, so rotate(offset)
	// means seg[1] == -seg[0] exactly.
	require.InDelta(t, -segs[0].X1, segs[1].X1, 1e-4)
	require.InDelta(t, -segs[0].Y1, segs[1].Y1, 1e-4)
	require.InDelta(t, -segs[0].X2, segs[1].X2, 1e-4)
	require.InDelta(t, -segs[0].Y2, segs[1].Y2, 1e-4)

	// And the two offset copies at rot0 are LineSpacing apart.
	dx := float64(segs[2].X1 - segs[0].X1)
	dy := float64(segs[2].Y1 - segs[0].Y1)
	require.InDelta(t, 10.0, math.Hypot(dx, dy), 1e-4)
}

func TestOverrideMergeFreshEachStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Family = FamilyClassic
	cfg.TurnAngle = 10
	cfg.StepsPerFrame = 1
	a := NewAnimator(cfg, 1)
	a.Play()

	a.SetOverride(Override{FieldTurnAngle: 90})
	a.Step()
	afterOverride := a.curve.Angle

	a.SetOverride(nil)
	a.Step()
	afterClear := a.curve.Angle

	require.InDelta(t, math.Pi/2, afterOverride, 1e-9)
	require.InDelta(t, math.Pi/2+10*math.Pi/180, afterClear, 1e-9,
		"cleared override must fall back to the base config next step")
}

func TestBeatPulseDecaysAcrossSteps(t *testing.T) {
	a := NewAnimator(DefaultConfig(), 1)
	a.Play()

	a.Beat(1.5) // clamped
	require.Equal(t, 1.0, math.Float64frombits(a.beatBits.Load()))

	a.Step()
	require.InDelta(t, 0.92, math.Float64frombits(a.beatBits.Load()), 1e-9)

	for i := 0; i < 200; i++ {
		a.Step()
	}
	require.Equal(t, 0.0, math.Float64frombits(a.beatBits.Load()),
		"pulse decays all the way back to zero")
}

func TestMergeClosedFieldSet(t *testing.T) {
	base := DefaultConfig()
	out := Merge(base, Override{
		FieldStepLength: 5,
		FieldAlpha:      2.0, // clamped
	})
	require.Equal(t, 5.0, out.StepLength)
	require.Equal(t, 1.0, out.Alpha)
	// Input untouched.
	require.Equal(t, DefaultConfig().StepLength, base.StepLength)
	// Empty override returns the base unchanged.
	require.Equal(t, base, Merge(base, nil))
}

func TestWobbleDeterministicUnderSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wobble = 5
	cfg.StepsPerFrame = 1

	run := func() []Segment {
		a := NewAnimator(cfg, 42)
		a.Play()
		for i := 0; i < 20; i++ {
			a.Step()
		}
		out := make([]Segment, a.Buffer().Count())
		copy(out, a.Buffer().All())
		return out
	}
	require.Equal(t, run(), run(), "same seed must reproduce the same drawing")
}
