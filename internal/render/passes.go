package render

import "github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"

// PostConfig holds the post-processing amounts, all 0..1. A zero value
// disables the corresponding pass.
type PostConfig struct {
	Trail    float64 // previous-frame persistence
	Bloom    float64
	Chroma   float64 // chromatic aberration, scaled by 0.02 in the shader
	Vignette float64
	Grain    float64
}

// PassKind identifies one post pass. Order in a plan is the order the
// passes run.
type PassKind int

const (
	PassTrail PassKind = iota
	PassBloom
	PassChroma
	PassVignette
	PassGrain
)

func (p PassKind) String() string {
	switch p {
	case PassTrail:
		return "trail"
	case PassBloom:
		return "bloom"
	case PassChroma:
		return "chroma"
	case PassVignette:
		return "vignette"
	case PassGrain:
		return "grain"
	}
	return "unknown"
}

// PlanPasses lists the enabled passes in their fixed order: trail,
// bloom, chroma, vignette, grain. An empty plan means the accumulation
// texture can be blitted straight to screen.
func PlanPasses(cfg PostConfig) []PassKind {
	var plan []PassKind
	if cfg.Trail > 0 {
		plan = append(plan, PassTrail)
	}
	if cfg.Bloom > 0 {
		plan = append(plan, PassBloom)
	}
	if cfg.Chroma > 0 {
		plan = append(plan, PassChroma)
	}
	if cfg.Vignette > 0 {
		plan = append(plan, PassVignette)
	}
	if cfg.Grain > 0 {
		plan = append(plan, PassGrain)
	}
	return plan
}

// segFloats is the per-segment vertex payload: two vertices of
// (x, y, r, g, b) each.
const segFloats = 10

// appendSegmentVerts packs one segment as two line vertices.
func appendSegmentVerts(dst []float32, s spiral.Segment) []float32 {
	return append(dst,
		s.X1, s.Y1, s.R, s.G, s.B,
		s.X2, s.Y2, s.R, s.G, s.B,
	)
}

// physicalSize converts a logical window size to framebuffer pixels.
// Non-positive inputs yield (0, 0), which callers treat as a no-op.
func physicalSize(logicalW, logicalH int, dpr float64) (int, int) {
	if logicalW <= 0 || logicalH <= 0 || dpr <= 0 {
		return 0, 0
	}
	return int(float64(logicalW) * dpr), int(float64(logicalH) * dpr)
}
