package reactive

import (
	"math"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

// CombineMode selects how a band energy is folded into the base
// parameter value.
type CombineMode int

const (
	CombineAdd CombineMode = iota
	CombineMultiply
	CombineSet
)

func (m CombineMode) String() string {
	switch m {
	case CombineAdd:
		return "add"
	case CombineMultiply:
		return "multiply"
	case CombineSet:
		return "set"
	}
	return "unknown"
}

// Mapping routes one band's energy onto one animation parameter.
// Min and Max only apply in set mode; nil picks the defaults of 0 and
// 2×|base| respectively.
type Mapping struct {
	Source    Band
	Target    spiral.Field
	Intensity float64
	Mode      CombineMode
	Min, Max  *float64
}

// Apply evaluates mappings against the given band energies and base
// configuration, producing an override set. Later mappings onto the
// same field win. A nil or empty mapping list yields a nil override.
func Apply(mappings []Mapping, energy func(Band) float64, base spiral.Config) spiral.Override {
	if len(mappings) == 0 {
		return nil
	}
	ov := make(spiral.Override, len(mappings))
	for _, m := range mappings {
		e := clampF(energy(m.Source), 0, 1)
		b := base.BaseValue(m.Target)
		ov[m.Target] = m.apply(b, e)
	}
	return ov
}

func (m Mapping) apply(base, energy float64) float64 {
	switch m.Mode {
	case CombineMultiply:
		return base * (1 + energy*m.Intensity)
	case CombineSet:
		lo := 0.0
		if m.Min != nil {
			lo = *m.Min
		}
		hi := math.Abs(base) * 2
		if m.Max != nil {
			hi = *m.Max
		}
		return lo + (hi-lo)*energy
	default:
		return base + energy*m.Intensity*math.Abs(base)*0.5
	}
}
