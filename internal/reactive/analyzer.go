package reactive

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Band names a contiguous slice of the spectrum.
type Band int

const (
	BandBass    Band = iota // bottom 8% of bins
	BandMid                 // next 32%
	BandTreble              // next 45%
	BandOverall             // full-spectrum energy
)

func (b Band) String() string {
	switch b {
	case BandBass:
		return "bass"
	case BandMid:
		return "mid"
	case BandTreble:
		return "treble"
	case BandOverall:
		return "overall"
	}
	return "unknown"
}

// Band bin fractions. The top 15% of bins carries little musical
// content and is ignored.
const (
	bassFrac   = 0.08
	midFrac    = 0.32
	trebleFrac = 0.45
)

const (
	// historyLen samples of overall energy back the beat detector.
	historyLen = 60
	// minBeatGap is the refractory period between declared beats.
	minBeatGap = 0.200
	// beatRatio: latest sample must exceed this multiple of the mean
	// of the rest of the history.
	beatRatio = 1.5
	// noiseFloor gates beat detection in near-silence.
	noiseFloor = 0.01
	// energyScale maps mean FFT magnitude into the 0-1 energy range.
	energyScale = 6.0
)

// Analyzer extracts spectral energy and beats from an audio signal.
// Feed it fixed-size windows via Process; query band energies and the
// beat flag afterwards. Single-goroutine use.
type Analyzer struct {
	n    int
	fft  *fourier.FFT
	win  []float64 // Hann-windowed copy of the input
	spec []complex128
	mags []float64

	history  [historyLen]float64
	histLen  int
	histPos  int
	lastBeat float64
	haveBeat bool

	beatNow      bool
	beatStrength float64
}

// NewAnalyzer builds an analyzer over windows of n samples. n should
// be a power of two (1024 and 2048 are typical).
func NewAnalyzer(n int) *Analyzer {
	return &Analyzer{
		n:    n,
		fft:  fourier.NewFFT(n),
		win:  make([]float64, n),
		spec: make([]complex128, n/2+1),
		mags: make([]float64, n/2+1),
	}
}

// WindowSize returns the expected Process input length.
func (a *Analyzer) WindowSize() int { return a.n }

// Process analyzes one window at analysis-clock time now (seconds).
// Returns true when this window was declared a beat.
func (a *Analyzer) Process(samples []float64, now float64) bool {
	if len(samples) < a.n {
		return false
	}
	// Hann window suppresses leakage from the rectangular cut.
	for i := 0; i < a.n; i++ {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(a.n-1)))
		a.win[i] = samples[i] * w
	}
	a.fft.Coefficients(a.spec, a.win)
	norm := 2.0 / float64(a.n)
	for i, c := range a.spec {
		a.mags[i] = math.Hypot(real(c), imag(c)) * norm
	}

	energy := a.bandMean(0, 1.0)
	a.pushHistory(energy)
	return a.detectBeat(energy, now)
}

// pushHistory appends one overall-energy sample to the rolling ring.
func (a *Analyzer) pushHistory(e float64) {
	a.history[a.histPos] = e
	a.histPos = (a.histPos + 1) % historyLen
	if a.histLen < historyLen {
		a.histLen++
	}
}

// detectBeat declares a beat when there is enough history, the
// refractory gap has elapsed, the rolling mean is above the noise
// floor, and the latest sample exceeds beatRatio × the mean of all
// *other* samples in history.
func (a *Analyzer) detectBeat(latest, now float64) bool {
	a.beatNow = false
	if a.histLen < 10 {
		return false
	}
	if a.haveBeat && now-a.lastBeat < minBeatGap {
		return false
	}
	var sum float64
	for i := 0; i < a.histLen; i++ {
		sum += a.history[i]
	}
	mean := (sum - latest) / float64(a.histLen-1)
	if mean <= noiseFloor {
		return false
	}
	if latest <= beatRatio*mean {
		return false
	}
	a.lastBeat = now
	a.haveBeat = true
	a.beatNow = true
	a.beatStrength = clampF(latest/mean-1, 0, 1)
	return true
}

// BeatStrength reports how far the last declared beat exceeded the
// rolling mean, normalized to 0-1.
func (a *Analyzer) BeatStrength() float64 { return a.beatStrength }

// bandMean averages a fractional slice [fromFrac, toFrac) of the
// magnitude bins and scales the result into 0-1.
func (a *Analyzer) bandMean(fromFrac, toFrac float64) float64 {
	bins := len(a.mags)
	lo := int(fromFrac * float64(bins))
	hi := int(toFrac * float64(bins))
	if hi <= lo {
		hi = lo + 1
	}
	if hi > bins {
		hi = bins
	}
	var sum float64
	for i := lo; i < hi; i++ {
		sum += a.mags[i]
	}
	return clampF(sum/float64(hi-lo)*energyScale, 0, 1)
}

// BandEnergy returns the normalized 0-1 energy of a band for the most
// recently processed window.
func (a *Analyzer) BandEnergy(b Band) float64 {
	switch b {
	case BandBass:
		return a.bandMean(0, bassFrac)
	case BandMid:
		return a.bandMean(bassFrac, bassFrac+midFrac)
	case BandTreble:
		return a.bandMean(bassFrac+midFrac, bassFrac+midFrac+trebleFrac)
	default:
		return a.bandMean(0, 1.0)
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
