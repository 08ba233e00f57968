package spiral

import "math"

// Point is a position in world units, origin at the canvas center.
type Point struct {
	X, Y float64
}

// Sample evaluates a t-driven curve formula. Pure and deterministic:
// the same (family, curve, t, cfg shape params) always yields the same
// point. The classic family advances through CurveState instead (its
// position depends on accumulated heading, not on t alone).
func Sample(family Family, curve Curve, t float64, cfg Config) Point {
	switch family {
	case FamilyPolar:
		return samplePolar(curve, t, cfg)
	case FamilyParametric:
		return sampleParametric(curve, t, cfg)
	}
	// Classic as a pure function degenerates to an archimedean coil.
	return samplePolar(CurveArchimedean, t, cfg)
}

func samplePolar(curve Curve, theta float64, cfg Config) Point {
	var r float64
	switch curve {
	case CurveLogarithmic:
		r = cfg.ParamA * math.Exp(cfg.ParamB*0.05*theta)
	case CurveRose:
		// k petals for odd k, 2k for even k.
		r = cfg.Scale * math.Cos(cfg.ParamA*theta)
	case CurveFermat:
		r = cfg.ParamA * math.Sqrt(math.Abs(theta)) * 8
	default: // CurveArchimedean
		r = cfg.ParamA + cfg.ParamB*theta*4
	}
	return Point{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

func sampleParametric(curve Curve, t float64, cfg Config) Point {
	s := cfg.Scale
	switch curve {
	case CurveHypotrochoid:
		// Fixed circle R=ParamA, rolling circle r=ParamB, pen d=ParamC.
		R, r, d := cfg.ParamA, cfg.ParamB, cfg.ParamC
		if r == 0 {
			r = 1
		}
		k := (R - r) / r
		x := (R-r)*math.Cos(t) + d*math.Cos(k*t)
		y := (R-r)*math.Sin(t) - d*math.Sin(k*t)
		norm := R - r + d
		if norm == 0 {
			norm = 1
		}
		return Point{X: s * x / norm, Y: s * y / norm}
	case CurveButterfly:
		e := math.Exp(math.Cos(t)) - 2*math.Cos(4*t) - math.Pow(math.Sin(t/12), 5)
		return Point{X: s * 0.25 * math.Sin(t) * e, Y: s * 0.25 * math.Cos(t) * e}
	default: // CurveLissajous
		x := math.Sin(cfg.ParamA*t + cfg.ParamC)
		y := math.Sin(cfg.ParamB * t)
		return Point{X: s * x, Y: s * y}
	}
}

// CurveState is the per-run continuous state of the active curve.
// Created on mount, mutated every scheduler tick, reset by Restart.
type CurveState struct {
	// Classic turtle state.
	Pos       Point
	Angle     float64 // heading, radians
	StepCount int
	OscPhase  float64

	// Polar/parametric state.
	T    float64
	Prev Point

	// Shared style state.
	Hue        float64
	PulsePhase float64
}

// NewCurveState returns the initial state for a config.
func NewCurveState(cfg Config) CurveState {
	st := CurveState{Hue: cfg.HueStart}
	if cfg.Family != FamilyClassic {
		st.Prev = Sample(cfg.Family, cfg.Curve, 0, cfg)
	}
	return st
}

// stepLength computes the next classic step length for the configured
// growth law, before pulse and acceleration scaling.
func stepLength(cfg Config, step int) float64 {
	switch cfg.Growth {
	case GrowthExponential:
		return cfg.StepLength * math.Pow(1+cfg.GrowthRate, float64(step))
	case GrowthGolden:
		// One golden-ratio doubling per full turn's worth of steps.
		perTurn := 360.0 / math.Max(1, math.Abs(cfg.TurnAngle))
		return cfg.StepLength * math.Pow(GoldenRatio, float64(step)/perTurn*cfg.GrowthRate*25)
	case GrowthCustom:
		return cfg.StepLength * (1 + cfg.GrowthRate*math.Sin(float64(step)*0.05))
	default: // GrowthLinear
		return cfg.StepLength + cfg.GrowthRate*float64(step)
	}
}

// turnShape adds the corner turns that give squares and stars their
// shape; spiral and wobble variants turn every step already.
func turnShape(curve Curve, step int) float64 {
	switch curve {
	case CurveSquare:
		if step%4 == 0 {
			return 90.0
		}
	case CurveStar:
		if step%5 == 0 {
			return 144.0
		}
	}
	return 0
}

// Advance computes the next point for the active family and returns
// the (previous, next) pair. rng feeds only the wobble jitter term.
func (st *CurveState) Advance(cfg Config, rng *Rand) (Point, Point) {
	if cfg.Family != FamilyClassic {
		st.T += cfg.ParamSpeed * 2 * math.Pi
		prev := st.Prev
		next := Sample(cfg.Family, cfg.Curve, st.T, cfg)
		st.Prev = next
		st.StepCount++
		st.advanceStyle(cfg)
		return prev, next
	}

	// Turn: base + acceleration, perturbed by oscillation and jitter.
	turn := cfg.TurnAngle + cfg.Acceleration*float64(st.StepCount)
	turn += turnShape(cfg.Curve, st.StepCount)
	if cfg.OscAmount != 0 {
		turn += cfg.OscAmount * math.Sin(st.OscPhase)
	}
	if cfg.Wobble != 0 && rng != nil {
		turn += rng.RangeF(-cfg.Wobble, cfg.Wobble)
	}
	st.Angle = wrapAngle(st.Angle + turn*math.Pi/180)
	st.OscPhase += cfg.OscSpeed

	length := stepLength(cfg, st.StepCount)
	if cfg.Pulse != 0 {
		length *= 1 + cfg.Pulse*math.Sin(st.PulsePhase)
	}
	if cfg.Acceleration != 0 {
		length *= 1 + math.Abs(cfg.Acceleration)*0.01*float64(st.StepCount%60)
	}

	prev := st.Pos
	next := Point{
		X: st.Pos.X + length*math.Cos(st.Angle),
		Y: st.Pos.Y + length*math.Sin(st.Angle),
	}
	st.Pos = next
	st.StepCount++
	st.advanceStyle(cfg)
	return prev, next
}

func (st *CurveState) advanceStyle(cfg Config) {
	st.Hue += cfg.HueSpeed
	st.PulsePhase += cfg.PulseSpeed
}
