package spiral

// Segment buffer sizing.
const (
	// MaxSegments bounds the retained line history. On overflow the
	// oldest half is evicted; the accumulation target keeps the pixels.
	MaxSegments = 50000
)

// Animator defaults.
const (
	DefaultStepsPerFrame = 4
	MaxStepsPerFrame     = 64
	GoldenRatio          = 1.618033988749895
)

// Family selects one of the three curve generation strategies.
type Family int

const (
	FamilyClassic    Family = iota // step-based turtle
	FamilyPolar                    // polar-angle-based
	FamilyParametric               // free-parameter-based
)

func (f Family) String() string {
	switch f {
	case FamilyClassic:
		return "classic"
	case FamilyPolar:
		return "polar"
	case FamilyParametric:
		return "parametric"
	}
	return "unknown"
}

// Curve identifies a concrete formula within a family.
type Curve int

const (
	// Classic (turtle) variants.
	CurveSpiral Curve = iota
	CurveSquare
	CurveStar
	CurveWobble
	// Polar curves.
	CurveArchimedean
	CurveLogarithmic
	CurveRose
	CurveFermat
	// Parametric curves.
	CurveLissajous
	CurveHypotrochoid
	CurveButterfly
)

// Growth selects the step-length law for the classic family.
type Growth int

const (
	GrowthLinear Growth = iota
	GrowthExponential
	GrowthGolden
	GrowthCustom
)

// Config is the flat, externally-owned drawing configuration. The
// engine reads it each step and never mutates the caller's copy.
type Config struct {
	Family Family
	Curve  Curve

	// Motion.
	TurnAngle    float64 // base turn per step, degrees
	Acceleration float64 // per-step increment to the turn, degrees
	OscAmount    float64 // sinusoidal turn perturbation amplitude, degrees
	OscSpeed     float64 // oscillation phase advance per step
	Wobble       float64 // bounded random turn jitter amplitude, degrees

	// Step length.
	Growth     Growth
	StepLength float64 // base length, world units
	GrowthRate float64 // meaning depends on Growth law
	Pulse      float64 // pulse term amplitude scaling step length
	PulseSpeed float64

	// Polar/parametric parameter advance per step.
	ParamSpeed float64

	// Curve shape parameters (meaning is per-curve).
	ParamA float64
	ParamB float64
	ParamC float64

	// Pattern replication.
	MultiLine      int     // parallel offset copies of each segment
	LineSpacing    float64 // perpendicular distance between copies
	Symmetry       int     // rotational copies around the origin
	RotationOffset float64 // extra rotation applied to all copies, degrees

	// Style.
	HueStart float64 // degrees
	HueSpeed float64 // degrees per step
	Alpha    float64 // cross-segment material alpha, 0-1
	Scale    float64 // world-unit scale for polar/parametric output

	// Timing.
	SpeedMS       int // inter-tick delay; 0 = draw every display frame
	StepsPerFrame int
}

// DefaultConfig returns a config that draws a dense golden spiral.
func DefaultConfig() Config {
	return Config{
		Family:        FamilyClassic,
		Curve:         CurveSpiral,
		TurnAngle:     17.0,
		OscSpeed:      0.06,
		Growth:        GrowthGolden,
		StepLength:    1.2,
		GrowthRate:    0.004,
		PulseSpeed:    0.05,
		ParamSpeed:    0.02,
		ParamA:        3,
		ParamB:        2,
		ParamC:        1,
		MultiLine:     1,
		LineSpacing:   2.0,
		Symmetry:      1,
		HueSpeed:      0.5,
		Alpha:         0.85,
		Scale:         90,
		StepsPerFrame: DefaultStepsPerFrame,
	}
}

// Field names a numeric Config field that reactive modulation may
// override. The set is closed: the merge never iterates unknown keys.
type Field int

const (
	FieldTurnAngle Field = iota
	FieldStepLength
	FieldWobble
	FieldPulse
	FieldHueSpeed
	FieldAlpha
	FieldOscAmount
	FieldRotationOffset
	numFields
)

func (f Field) String() string {
	switch f {
	case FieldTurnAngle:
		return "turnAngle"
	case FieldStepLength:
		return "stepLength"
	case FieldWobble:
		return "wobble"
	case FieldPulse:
		return "pulse"
	case FieldHueSpeed:
		return "hueSpeed"
	case FieldAlpha:
		return "alpha"
	case FieldOscAmount:
		return "oscAmount"
	case FieldRotationOffset:
		return "rotationOffset"
	}
	return "unknown"
}

// Override is a possibly-empty set of reactive field replacements,
// produced once per audio tick and read once per visual step.
type Override map[Field]float64

// BaseValue returns the current value of a reactive-targetable field.
func (c Config) BaseValue(f Field) float64 {
	switch f {
	case FieldTurnAngle:
		return c.TurnAngle
	case FieldStepLength:
		return c.StepLength
	case FieldWobble:
		return c.Wobble
	case FieldPulse:
		return c.Pulse
	case FieldHueSpeed:
		return c.HueSpeed
	case FieldAlpha:
		return c.Alpha
	case FieldOscAmount:
		return c.OscAmount
	case FieldRotationOffset:
		return c.RotationOffset
	}
	return 0
}

// Merge returns a copy of c with the override values written over the
// matching fields. Shallow, closed field set, input untouched.
func Merge(c Config, ov Override) Config {
	if len(ov) == 0 {
		return c
	}
	out := c
	for f, v := range ov {
		switch f {
		case FieldTurnAngle:
			out.TurnAngle = v
		case FieldStepLength:
			out.StepLength = v
		case FieldWobble:
			out.Wobble = v
		case FieldPulse:
			out.Pulse = v
		case FieldHueSpeed:
			out.HueSpeed = v
		case FieldAlpha:
			out.Alpha = clampF(v, 0, 1)
		case FieldOscAmount:
			out.OscAmount = v
		case FieldRotationOffset:
			out.RotationOffset = v
		}
	}
	return out
}
