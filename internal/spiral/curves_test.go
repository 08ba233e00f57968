package spiral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSamplePurity(t *testing.T) {
	cfg := DefaultConfig()
	for _, tc := range []struct {
		family Family
		curve  Curve
	}{
		{FamilyPolar, CurveArchimedean},
		{FamilyPolar, CurveLogarithmic},
		{FamilyPolar, CurveRose},
		{FamilyPolar, CurveFermat},
		{FamilyParametric, CurveLissajous},
		{FamilyParametric, CurveHypotrochoid},
		{FamilyParametric, CurveButterfly},
	} {
		for _, tt := range []float64{0, 0.5, 3.7, 12} {
			p1 := Sample(tc.family, tc.curve, tt, cfg)
			p2 := Sample(tc.family, tc.curve, tt, cfg)
			require.Equal(t, p1, p2, "%v/%v must be deterministic", tc.family, tc.curve)
			require.False(t, math.IsNaN(p1.X) || math.IsNaN(p1.Y))
		}
	}
}

func TestLissajousBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scale = 100
	for tt := 0.0; tt < 50; tt += 0.1 {
		p := Sample(FamilyParametric, CurveLissajous, tt, cfg)
		require.LessOrEqual(t, math.Abs(p.X), 100.0)
		require.LessOrEqual(t, math.Abs(p.Y), 100.0)
	}
}

func TestClassicAdvanceTracksHeading(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TurnAngle = 90
	cfg.Growth = GrowthLinear
	cfg.StepLength = 1
	cfg.GrowthRate = 0
	cfg.OscAmount = 0
	cfg.Wobble = 0

	st := NewCurveState(cfg)
	// Four 90° turns walk a unit square back to the origin.
	for i := 0; i < 4; i++ {
		st.Advance(cfg, nil)
	}
	require.InDelta(t, 0, st.Pos.X, 1e-9)
	require.InDelta(t, 0, st.Pos.Y, 1e-9)
	require.Equal(t, 4, st.StepCount)
}

func TestGrowthLaws(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepLength = 2
	cfg.GrowthRate = 0.5

	cfg.Growth = GrowthLinear
	require.Equal(t, 2.0, stepLength(cfg, 0))
	require.Equal(t, 7.0, stepLength(cfg, 10))

	cfg.Growth = GrowthExponential
	require.InDelta(t, 2.0, stepLength(cfg, 0), 1e-12)
	require.InDelta(t, 2.0*math.Pow(1.5, 10), stepLength(cfg, 10), 1e-9)

	cfg.Growth = GrowthGolden
	require.InDelta(t, 2.0, stepLength(cfg, 0), 1e-12)
	require.Greater(t, stepLength(cfg, 100), stepLength(cfg, 1))
}

func TestCurveStateRestartIsInitial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Family = FamilyPolar
	cfg.Curve = CurveRose
	st := NewCurveState(cfg)
	init := st
	for i := 0; i < 50; i++ {
		st.Advance(cfg, nil)
	}
	require.NotEqual(t, init, st)
	require.Equal(t, init, NewCurveState(cfg), "reset must restore initial values")
}
