package music

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngineClockAdvancesWithRendering(t *testing.T) {
	e := newSilentEngine(1)
	require.Equal(t, 0.0, e.Now())

	buf := make([]byte, SampleRate/10*8) // 100ms of frames
	n, err := e.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.InDelta(t, 0.1, e.Now(), 1e-9, "audio clock is rendered samples over sample rate")
}

func TestEngineRendersScheduledNote(t *testing.T) {
	e := newSilentEngine(1)
	v := e.pool.Claim(0, false)
	v.layer = LayerMelody
	v.start(NoteSpec{Freq: 440, Peak: 0.5, Attack: 0.01, Sustain: 0.3, Release: 0.1, Wave: WaveSine}, 0)

	buf := make([]byte, SampleRate/5*8)
	_, err := e.Read(buf)
	require.NoError(t, err)

	tap := make([]float64, 1024)
	e.Tap(tap)
	var energy float64
	for _, s := range tap {
		energy += s * s
	}
	require.Greater(t, energy, 0.0, "a sounding voice must reach the master bus")
}

func TestEngineSilentWithoutVoices(t *testing.T) {
	e := newSilentEngine(1)
	buf := make([]byte, 4096*8)
	_, err := e.Read(buf)
	require.NoError(t, err)

	tap := make([]float64, 512)
	e.Tap(tap)
	for _, s := range tap {
		require.Equal(t, 0.0, s)
	}
}

func TestMixGraphControlNames(t *testing.T) {
	g := newMixGraph(SampleRate)
	for _, name := range []string{
		"master.gain", "drone.gain", "melody.gain", "sparkle.gain",
		"filter.cutoff", "delay.mix", "reverb.mix",
	} {
		p, ok := g.Control(name)
		require.True(t, ok, "control %q must exist", name)
		require.NotNil(t, p)
	}
	_, ok := g.Control("nonexistent")
	require.False(t, ok)
}

func TestMixGraphRampOnControl(t *testing.T) {
	g := newMixGraph(SampleRate)
	p, _ := g.Control("master.gain")
	p.SetValueAtTime(0.0, 0)
	p.LinearRampToValueAtTime(1.0, 2.0)
	require.InDelta(t, 0.25, p.ValueAt(0.5), 1e-9)
	require.InDelta(t, 1.0, p.ValueAt(2.0), 1e-9)
}

func TestSoftSatBounded(t *testing.T) {
	for _, x := range []float64{-100, -2, -1, -0.5, 0, 0.5, 1, 2, 100} {
		y := softSat(x)
		require.LessOrEqual(t, y, 1.0)
		require.GreaterOrEqual(t, y, -1.0)
	}
	require.Equal(t, 0.0, softSat(0))
}

func TestEngineDisposeWithoutDevice(t *testing.T) {
	e := newSilentEngine(1)
	require.False(t, e.Start(), "no device context: Start reports not running")
	e.Dispose()
}

func TestEngineStartRefusedAfterDispose(t *testing.T) {
	e := newSilentEngine(1)
	e.Dispose()
	require.False(t, e.Start())
	// Even stale running state cannot bypass the dispose latch.
	e.started = true
	require.False(t, e.Start(), "a disposed engine must never report running again")
}
