package music

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

func newTestScheduler(seed uint64) *Scheduler {
	e := newSilentEngine(seed)
	return NewScheduler(e, NewDerivation(spiral.NewRand(seed)), spiral.NewRand(seed^0xABCD))
}

func TestSchedulerMonotonicNextEventTime(t *testing.T) {
	s := newTestScheduler(5)
	prev := [numLayers]float64{}
	for tick := 0; tick < 500; tick++ {
		now := float64(tick) * 0.01
		s.TickOnce(now)
		for l := LayerDrone; l < numLayers; l++ {
			next := s.NextEventTime(l)
			require.GreaterOrEqual(t, next, prev[l],
				"layer %v nextEventTime must be non-decreasing", l)
			prev[l] = next
		}
	}
}

func TestSchedulerOnlySchedulesWithinLookahead(t *testing.T) {
	s := newTestScheduler(5)
	s.TickOnce(0)
	for l := LayerDrone; l < numLayers; l++ {
		require.GreaterOrEqual(t, s.NextEventTime(l), lookaheadWindow,
			"after a tick, the due event must lie at or beyond the lookahead horizon")
	}
}

func TestSchedulerDisabledLayerNeverAdvances(t *testing.T) {
	s := newTestScheduler(5)
	cfg := DefaultSchedulerConfig()
	cfg.Drone.Enabled = false
	s.SetConfig(cfg)
	for tick := 0; tick < 100; tick++ {
		s.TickOnce(float64(tick) * 0.01)
	}
	require.Equal(t, 0.0, s.NextEventTime(LayerDrone))
	require.Greater(t, s.NextEventTime(LayerMelody), 0.0)
}

func TestIntervalRangesScaleWithDensity(t *testing.T) {
	s := newTestScheduler(1)

	require.Equal(t, 20.0, s.interval(LayerDrone, 0))
	require.Equal(t, 8.0, s.interval(LayerDrone, 1))
	require.Equal(t, 6.0, s.interval(LayerMelody, 0))
	require.Equal(t, 1.5, s.interval(LayerMelody, 1))

	// Sparkle intervals are Poisson-distributed around the mean and
	// never shorter than the clamp floor.
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		iv := s.interval(LayerSparkle, 1)
		require.GreaterOrEqual(t, iv, 0.05)
		sum += iv
	}
	mean := sum / n
	require.InDelta(t, 0.5, mean, 0.05, "mean inter-arrival tracks the density mapping")
	require.False(t, math.IsInf(mean, 0))
}

func TestSchedulerStallRecovery(t *testing.T) {
	s := newTestScheduler(2)
	s.TickOnce(0)
	// Long gap (display stall analog): the clocks must catch up to
	// the new now rather than burst-schedule the missed interval.
	s.TickOnce(100)
	for l := LayerDrone; l < numLayers; l++ {
		require.GreaterOrEqual(t, s.NextEventTime(l), 100.0)
	}
}

func TestSchedulerEventsClaimVoices(t *testing.T) {
	s := newTestScheduler(3)
	s.TickOnce(0)
	require.Greater(t, s.engine.pool.BusyCount(), 0,
		"a scheduling pass with all layers enabled claims at least one voice")
}

func TestSchedulerAnalysisHookRunsOnTick(t *testing.T) {
	s := newTestScheduler(4)
	var got []float64
	s.SetAnalysisHook(func(now float64) {
		got = append(got, now)
	})
	s.TickOnce(1.5)
	s.TickOnce(1.6)
	require.Equal(t, []float64{1.5, 1.6}, got,
		"the hook runs once per tick with the tick's clock value")

	s.SetAnalysisHook(nil)
	s.TickOnce(1.7)
	require.Len(t, got, 2, "a cleared hook no longer fires")
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	s := newTestScheduler(1)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
